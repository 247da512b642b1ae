package glass

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "birdctl.glass.LookingGlass"

const (
	methodProtocols      = "/" + ServiceName + "/Protocols"
	methodProtocolRaw    = "/" + ServiceName + "/ProtocolRaw"
	methodConfigureCheck = "/" + ServiceName + "/ConfigureCheck"
)

// LookingGlassServer is served over well known protobuf types, so no
// generated code is needed on either side.
type LookingGlassServer interface {
	// Protocols returns detailed records, all of them when name is empty.
	Protocols(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	// ProtocolRaw returns the text bird printed for one protocol.
	ProtocolRaw(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	ConfigureCheck(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LookingGlassServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Protocols", Handler: protocolsHandler},
		{MethodName: "ProtocolRaw", Handler: protocolRawHandler},
		{MethodName: "ConfigureCheck", Handler: configureCheckHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "glass.proto",
}

// RegisterLookingGlassServer adds srv to s.
func RegisterLookingGlassServer(s grpc.ServiceRegistrar, srv LookingGlassServer) {
	s.RegisterService(&serviceDesc, srv)
}

func protocolsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LookingGlassServer).Protocols(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodProtocols}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LookingGlassServer).Protocols(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func protocolRawHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LookingGlassServer).ProtocolRaw(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodProtocolRaw}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LookingGlassServer).ProtocolRaw(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func configureCheckHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LookingGlassServer).ConfigureCheck(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodConfigureCheck}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LookingGlassServer).ConfigureCheck(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
