package rpcapi

import (
	"errors"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// The schema of proto/kvstore.proto, built in code so that server
// reflection can describe the service without generated code.

const protoFile = "kvstore.proto"

var (
	descriptorOnce sync.Once
	fileDesc       protoreflect.FileDescriptor
	fileDescErr    error
)

func field(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		JsonName: proto.String(jsonName(name)),
		Number:   proto.Int32(num),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:     typ.Enum(),
	}
}

func jsonName(name string) string {
	out := make([]byte, 0, len(name))
	upper := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '_' {
			upper = true
			continue
		}
		if upper && 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		out = append(out, c)
	}
	return string(out)
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{
		Name:  proto.String(name),
		Field: fields,
	}
}

func method(name, in, out string, serverStreaming bool) *descriptorpb.MethodDescriptorProto {
	m := &descriptorpb.MethodDescriptorProto{
		Name:       proto.String(name),
		InputType:  proto.String(".kvstore." + in),
		OutputType: proto.String(".kvstore." + out),
	}
	if serverStreaming {
		m.ServerStreaming = proto.Bool(true)
	}
	return m
}

func fileDescriptorProto() *descriptorpb.FileDescriptorProto {
	str := descriptorpb.FieldDescriptorProto_TYPE_STRING
	boolean := descriptorpb.FieldDescriptorProto_TYPE_BOOL

	ttl := field("ttl_seconds", 4, descriptorpb.FieldDescriptorProto_TYPE_INT64)
	ttl.Proto3Optional = proto.Bool(true)
	ttl.OneofIndex = proto.Int32(0)
	setRequest := message("SetRequest",
		field("token", 1, str), field("key", 2, str), field("value", 3, str), ttl)
	setRequest.OneofDecl = []*descriptorpb.OneofDescriptorProto{{Name: proto.String("_ttl_seconds")}}

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(protoFile),
		Package: proto.String("kvstore"),
		Syntax:  proto.String("proto3"),
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/datatrails/go-datatrails-kvstore/rpcapi"),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			message("GetRequest", field("token", 1, str), field("key", 2, str)),
			message("GetResponse", field("value", 1, str), field("found", 2, boolean)),
			setRequest,
			message("SetResponse", field("success", 1, boolean), field("message", 2, str)),
			message("DeleteRequest", field("token", 1, str), field("key", 2, str)),
			message("DeleteResponse", field("success", 1, boolean), field("message", 2, str)),
			message("ListRequest", field("token", 1, str), field("prefix", 2, str)),
			message("ListResponse", field("key", 1, str)),
			message("HealthCheckRequest"),
			message("HealthCheckResponse", field("healthy", 1, boolean), field("message", 2, str)),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{
			{
				Name: proto.String("KVStore"),
				Method: []*descriptorpb.MethodDescriptorProto{
					method("Get", "GetRequest", "GetResponse", false),
					method("Set", "SetRequest", "SetResponse", false),
					method("Delete", "DeleteRequest", "DeleteResponse", false),
					method("List", "ListRequest", "ListResponse", true),
					method("HealthCheck", "HealthCheckRequest", "HealthCheckResponse", false),
				},
			},
		},
	}
}

// FileDescriptor returns the kvstore.proto descriptor.
func FileDescriptor() (protoreflect.FileDescriptor, error) {
	descriptorOnce.Do(func() {
		fileDesc, fileDescErr = protodesc.NewFile(fileDescriptorProto(), protoregistry.GlobalFiles)
	})
	return fileDesc, fileDescErr
}

// RegisterDescriptor adds the descriptor to the global registry used by
// server reflection. Registering twice is not an error.
func RegisterDescriptor() error {
	fd, err := FileDescriptor()
	if err != nil {
		return err
	}
	if _, err := protoregistry.GlobalFiles.FindFileByPath(protoFile); err == nil {
		return nil
	} else if !errors.Is(err, protoregistry.NotFound) {
		return err
	}
	return protoregistry.GlobalFiles.RegisterFile(fd)
}
