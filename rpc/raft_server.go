package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// RaftServer is the receive side a consensus group binds into the process
// grpc server, mirroring DiscoveryServer's hand-built ServiceDesc pattern.
type RaftServer interface {
	SendMessages(ctx context.Context, req *SendMessagesRequest) (*SendMessagesResponse, error)
	SendSnapshot(ctx context.Context, req *SendSnapshotRequest) (*SendSnapshotResponse, error)
}

var raftServiceDesc = grpc.ServiceDesc{
	ServiceName: raftServiceName,
	HandlerType: (*RaftServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SendMessages",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				req := &SendMessagesRequest{}
				if err := dec(req); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(RaftServer).SendMessages(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodSendRaftMessages}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(RaftServer).SendMessages(ctx, req.(*SendMessagesRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
		{
			MethodName: "SendSnapshot",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				req := &SendSnapshotRequest{}
				if err := dec(req); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(RaftServer).SendSnapshot(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodSendRaftSnapshot}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(RaftServer).SendSnapshot(ctx, req.(*SendSnapshotRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
	},
}

func RegisterRaftServer(s *grpc.Server, srv RaftServer) {
	s.RegisterService(&raftServiceDesc, srv)
}
