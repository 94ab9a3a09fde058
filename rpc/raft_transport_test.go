package rpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/coredb/syscatalog/consensus"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/raft/v3/raftpb"
	"google.golang.org/grpc"
)

type fakeRaftServer struct {
	mu       sync.Mutex
	received []raftpb.Message
}

func (s *fakeRaftServer) SendMessages(ctx context.Context, req *SendMessagesRequest) (*SendMessagesResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, req.Messages...)
	return &SendMessagesResponse{}, nil
}

func (s *fakeRaftServer) SendSnapshot(ctx context.Context, req *SendSnapshotRequest) (*SendSnapshotResponse, error) {
	return &SendSnapshotResponse{}, nil
}

func TestRaftTransport_SendMessages_DeliversToTarget(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	fake := &fakeRaftServer{}
	srv := grpc.NewServer()
	RegisterRaftServer(srv, fake)
	go srv.Serve(lis)
	defer srv.Stop()

	messenger := NewMessenger(Config{})
	defer messenger.Close()

	transport := NewRaftTransport(messenger)
	transport.UpdatePeers([]consensus.Member{
		{NodeID: 42, Host: lis.Addr().String()},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	transport.SendMessages(ctx, 1, []raftpb.Message{{To: 42, From: 1, Term: 3}})

	require.Eventually(t, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return len(fake.received) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRaftTransport_SendMessages_UnknownTargetIsANoop(t *testing.T) {
	messenger := NewMessenger(Config{})
	defer messenger.Close()

	transport := NewRaftTransport(messenger)
	transport.SendMessages(context.Background(), 1, []raftpb.Message{{To: 999}})
}
