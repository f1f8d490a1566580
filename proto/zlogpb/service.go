package zlogpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ObjectClass_Exec_FullMethodName = "/zlog.ObjectClass/Exec"

// ObjectClassClient is the client API for the ObjectClass service.
type ObjectClassClient interface {
	Exec(ctx context.Context, in *ExecRequest, opts ...grpc.CallOption) (*ExecReply, error)
}

type objectClassClient struct {
	cc grpc.ClientConnInterface
}

func NewObjectClassClient(cc grpc.ClientConnInterface) ObjectClassClient {
	return &objectClassClient{cc}
}

func (c *objectClassClient) Exec(ctx context.Context, in *ExecRequest, opts ...grpc.CallOption) (*ExecReply, error) {
	out := new(ExecReply)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, ObjectClass_Exec_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ObjectClassServer is the server API for the ObjectClass service.
type ObjectClassServer interface {
	Exec(context.Context, *ExecRequest) (*ExecReply, error)
}

type UnimplementedObjectClassServer struct{}

func (UnimplementedObjectClassServer) Exec(context.Context, *ExecRequest) (*ExecReply, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Exec not implemented")
}

func RegisterObjectClassServer(s grpc.ServiceRegistrar, srv ObjectClassServer) {
	s.RegisterService(&ObjectClass_ServiceDesc, srv)
}

func _ObjectClass_Exec_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ExecRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ObjectClassServer).Exec(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ObjectClass_Exec_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ObjectClassServer).Exec(ctx, req.(*ExecRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var ObjectClass_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "zlog.ObjectClass",
	HandlerType: (*ObjectClassServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Exec",
			Handler:    _ObjectClass_Exec_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "zlog.proto",
}
