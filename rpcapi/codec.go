package rpcapi

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
)

// Message is implemented by every kvstore request and response.
type Message interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// Codec encodes the kvstore messages in protobuf wire format and hands any
// other protobuf message, such as those of the health service, to the
// protobuf runtime.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case Message:
		return m.Marshal()
	case proto.Message:
		return proto.Marshal(m)
	}
	return nil, fmt.Errorf("kvstore codec: cannot marshal %T", v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case Message:
		return m.Unmarshal(data)
	case proto.Message:
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("kvstore codec: cannot unmarshal into %T", v)
}

// Name is the content subtype. Peers see ordinary "application/grpc+proto".
func (Codec) Name() string {
	return "proto"
}

// ServerOptions installs the codec on a grpc server.
func ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{grpc.ForceServerCodec(Codec{})}
}

// DialOptions installs the codec on a client connection.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec{}))}
}
