package linkspb

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// WireCodec is the encoding.Codec used to (un)marshal [Message] values on
// the wire. It must be installed on both server (grpc.ForceServerCodec)
// and client (grpc.ForceCodec) for calls against this service to work, since
// these messages do not implement the reflection-based proto.Message
// contract the default "proto" codec expects.
type wireCodec struct{}

// WireCodec is the shared codec instance for the links RPC service.
var WireCodec encoding.Codec = wireCodec{}

func (wireCodec) Name() string { return "links-wire" }

func (wireCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("linkspb: %T does not implement Message", v)
	}
	return m.MarshalWire()
}

func (wireCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("linkspb: %T does not implement Message", v)
	}
	return m.UnmarshalWire(data)
}

func init() {
	encoding.RegisterCodec(WireCodec)
}
