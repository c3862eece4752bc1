package secret

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBox(t *testing.T) {
	t.Run("exposes the wrapped value", func(t *testing.T) {
		b := New("top-secret-token")
		assert.Equal(t, "top-secret-token", b.Expose())
	})

	t.Run("String never leaks the value", func(t *testing.T) {
		b := New("top-secret-token")
		assert.Equal(t, "[redacted]", b.String())
		assert.NotContains(t, b.String(), "top-secret-token")
	})

	t.Run("fmt verbs do not leak the value either", func(t *testing.T) {
		b := New("top-secret-token")
		assert.NotContains(t, fmt.Sprintf("%v", b), "top-secret-token")
		assert.NotContains(t, fmt.Sprintf("%+v", b), "top-secret-token")
	})

	t.Run("works for non-string payloads", func(t *testing.T) {
		b := New([]byte{0x01, 0x02, 0x03})
		assert.Equal(t, []byte{0x01, 0x02, 0x03}, b.Expose())
		assert.Equal(t, "[redacted]", b.String())
	})
}
