// Package rpc is the narrow messenger the quorum package uses to resolve a
// peer's permanent UUID over the network (spec.md §3's discovery step of
// BuildInitialConfig). There is no .proto definition in this tree, so unlike
// the teacher's proto.SpaceClient/proto.InodeDBMasterClient stubs, the wire
// messages here ride grpc's codec extension point with JSON framing instead
// of a generated protobuf codec — see DESIGN.md for why.
package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const codecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec lets grpc.ClientConn/grpc.Server exchange the request/response
// structs in this package without a protoc-generated Marshal/Unmarshal pair.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return codecName }
