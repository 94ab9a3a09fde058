package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// DiscoveryServer is implemented by whatever owns the local tablet's
// permanent UUID; cmd/syscatalogd registers it against the process's single
// grpc.Server alongside whatever other services the deployment needs.
type DiscoveryServer interface {
	GetPermanentUUID(ctx context.Context, req *GetPermanentUUIDRequest) (*GetPermanentUUIDResponse, error)
}

// discoveryServiceDesc is the hand-written equivalent of a protoc-generated
// _ServiceDesc: with no .proto source in this tree there is no codegen step,
// so the method table is built directly against the json codec.
var discoveryServiceDesc = grpc.ServiceDesc{
	ServiceName: discoveryServiceName,
	HandlerType: (*DiscoveryServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetPermanentUUID",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				req := new(GetPermanentUUIDRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(DiscoveryServer).GetPermanentUUID(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetPermanentUUID}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(DiscoveryServer).GetPermanentUUID(ctx, req.(*GetPermanentUUIDRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "syscatalog/rpc/discovery.proto",
}

// RegisterDiscoveryServer registers srv against s the way a generated
// proto.RegisterXxxServer function would.
func RegisterDiscoveryServer(s *grpc.Server, srv DiscoveryServer) {
	s.RegisterService(&discoveryServiceDesc, srv)
}
