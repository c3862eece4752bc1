package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

type payload struct {
	A string `json:"a"`
	B int    `json:"b"`
}

func TestCodecRoundTripsAStruct(t *testing.T) {
	c := jsonCodec{}
	in := payload{A: "hello", B: 7}

	data, err := c.Marshal(in)
	require.NoError(t, err)

	var out payload
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestCodecNameIsJson(t *testing.T) {
	assert.Equal(t, "json", jsonCodec{}.Name())
}

func TestCodecIsRegisteredUnderItsName(t *testing.T) {
	assert.NotNil(t, encoding.GetCodec(Name))
}
