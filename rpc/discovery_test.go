package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

type fakeDiscoveryServer struct {
	uuid string
}

func (s *fakeDiscoveryServer) GetPermanentUUID(ctx context.Context, req *GetPermanentUUIDRequest) (*GetPermanentUUIDResponse, error) {
	return &GetPermanentUUIDResponse{PermanentUUID: s.uuid}, nil
}

func TestDiscoveryClient_GetPermanentUUID(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	RegisterDiscoveryServer(srv, &fakeDiscoveryServer{uuid: "peer-uuid-1"})
	go srv.Serve(lis)
	defer srv.Stop()

	client, err := DialDiscoveryClient(lis.Addr().String(), TransportConfig{})
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	uuid, err := client.GetPermanentUUID(ctx, "sys-catalog")
	require.NoError(t, err)
	require.Equal(t, "peer-uuid-1", uuid)
}
