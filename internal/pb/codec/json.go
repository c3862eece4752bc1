// Package codec registers a JSON grpc.Codec so the GC/MC gRPC surfaces in
// internal/pb can be exercised over a real *grpc.ClientConn without the
// protoc-gen-go toolchain: the wire encoding here is JSON-over-gRPC rather
// than a hand-rolled protobuf descriptor.
package codec

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const Name = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return Name
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
