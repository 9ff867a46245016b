// Package api defines the JSON wire messages of the sharethebill.v1 Connect
// services, with handler and client constructors for them.
package api

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// JSONCodec marshals plain Go structs with encoding/json. It replaces
// Connect's default "json" codec, which only accepts protobuf messages.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

// Name implements connect.Codec.
func (JSONCodec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal implements connect.Codec. Unknown fields are ignored.
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
}
