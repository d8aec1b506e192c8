package rpcapi

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName = "kvstore.KVStore"

	GetFullMethodName         = "/" + ServiceName + "/Get"
	SetFullMethodName         = "/" + ServiceName + "/Set"
	DeleteFullMethodName      = "/" + ServiceName + "/Delete"
	ListFullMethodName        = "/" + ServiceName + "/List"
	HealthCheckFullMethodName = "/" + ServiceName + "/HealthCheck"
)

// KVStoreServer is the server API for the KVStore service.
type KVStoreServer interface {
	Get(context.Context, *GetRequest) (*GetResponse, error)
	Set(context.Context, *SetRequest) (*SetResponse, error)
	Delete(context.Context, *DeleteRequest) (*DeleteResponse, error)
	List(*ListRequest, ListServer) error
	HealthCheck(context.Context, *HealthCheckRequest) (*HealthCheckResponse, error)
}

// ListServer is the server side of the List stream.
type ListServer interface {
	Send(*ListResponse) error
	grpc.ServerStream
}

type listServer struct {
	grpc.ServerStream
}

func (x *listServer) Send(m *ListResponse) error {
	return x.ServerStream.SendMsg(m)
}

// unaryHandler adapts one typed method to the grpc method handler shape.
func unaryHandler[Req any, Resp any](
	fullMethod string,
	call func(KVStoreServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(KVStoreServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(KVStoreServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func listHandler(srv any, stream grpc.ServerStream) error {
	m := new(ListRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(KVStoreServer).List(m, &listServer{stream})
}

// ServiceDesc is the grpc.ServiceDesc for the KVStore service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*KVStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Get",
			Handler:    unaryHandler(GetFullMethodName, KVStoreServer.Get),
		},
		{
			MethodName: "Set",
			Handler:    unaryHandler(SetFullMethodName, KVStoreServer.Set),
		},
		{
			MethodName: "Delete",
			Handler:    unaryHandler(DeleteFullMethodName, KVStoreServer.Delete),
		},
		{
			MethodName: "HealthCheck",
			Handler:    unaryHandler(HealthCheckFullMethodName, KVStoreServer.HealthCheck),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "List",
			Handler:       listHandler,
			ServerStreams: true,
		},
	},
	Metadata: "kvstore.proto",
}

// KVStoreClient is the client API for the KVStore service.
type KVStoreClient interface {
	Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*GetResponse, error)
	Set(ctx context.Context, in *SetRequest, opts ...grpc.CallOption) (*SetResponse, error)
	Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error)
	List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (ListClient, error)
	HealthCheck(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error)
}

// ListClient is the client side of the List stream.
type ListClient interface {
	Recv() (*ListResponse, error)
	grpc.ClientStream
}

type kvStoreClient struct {
	cc grpc.ClientConnInterface
}

// NewKVStoreClient requires a connection using Codec, see DialOptions.
func NewKVStoreClient(cc grpc.ClientConnInterface) KVStoreClient {
	return &kvStoreClient{cc}
}

func (c *kvStoreClient) Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*GetResponse, error) {
	out := new(GetResponse)
	if err := c.cc.Invoke(ctx, GetFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *kvStoreClient) Set(ctx context.Context, in *SetRequest, opts ...grpc.CallOption) (*SetResponse, error) {
	out := new(SetResponse)
	if err := c.cc.Invoke(ctx, SetFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *kvStoreClient) Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	out := new(DeleteResponse)
	if err := c.cc.Invoke(ctx, DeleteFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *kvStoreClient) HealthCheck(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error) {
	out := new(HealthCheckResponse)
	if err := c.cc.Invoke(ctx, HealthCheckFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *kvStoreClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (ListClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], ListFullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &listClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type listClient struct {
	grpc.ClientStream
}

func (x *listClient) Recv() (*ListResponse, error) {
	m := new(ListResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
