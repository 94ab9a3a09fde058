package rpc

import (
	"context"
	"math"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// TransportConfig mirrors the teacher's client.TransportConfig shape:
// dial/keepalive/backoff knobs loaded from the process config rather than
// hardcoded, per SPEC_FULL.md's ambient config section.
type TransportConfig struct {
	ConnectTimeoutMs   uint32 `json:"connect_timeout_ms"`
	KeepaliveTimeoutS  uint32 `json:"keepalive_timeout_s"`
	BackoffBaseDelayMs uint32 `json:"backoff_base_delay_ms"`
	BackoffMaxDelayMs  uint32 `json:"backoff_max_delay_ms"`
}

func (tc TransportConfig) withDefaults() TransportConfig {
	if tc.ConnectTimeoutMs == 0 {
		tc.ConnectTimeoutMs = 3000
	}
	if tc.KeepaliveTimeoutS == 0 {
		tc.KeepaliveTimeoutS = 5
	}
	return tc
}

// DiscoveryClient resolves the permanent UUID of the catalog peer listening
// at a given address, and doubles as the generic json-coded RPC handle
// RaftTransport invokes raft send methods over.
type DiscoveryClient interface {
	GetPermanentUUID(ctx context.Context, tabletID string) (string, error)
	Invoke(ctx context.Context, method string, args, reply interface{}, opts ...grpc.CallOption) error
	Address() string
	Close() error
}

type discoveryClient struct {
	conn *grpc.ClientConn
}

// DialDiscoveryClient opens a connection to addr, in the manner of the
// teacher's client.NewClient, but over the json codec registered in
// codec.go rather than grpc's default proto codec.
func DialDiscoveryClient(addr string, tc TransportConfig) (DiscoveryClient, error) {
	tc = tc.withDefaults()

	bc := backoff.DefaultConfig
	if tc.BackoffBaseDelayMs > 0 {
		bc.BaseDelay = time.Duration(tc.BackoffBaseDelayMs) * time.Millisecond
	}
	if tc.BackoffMaxDelayMs > 0 {
		bc.MaxDelay = time.Duration(tc.BackoffMaxDelayMs) * time.Millisecond
	}

	dialOpts := []grpc.DialOption{
		grpc.WithDefaultCallOptions(
			grpc.CallContentSubtype(codecName),
			grpc.MaxCallSendMsgSize(math.MaxInt32),
			grpc.MaxCallRecvMsgSize(math.MaxInt32),
		),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                time.Duration(tc.KeepaliveTimeoutS) * time.Second,
			Timeout:             time.Duration(tc.KeepaliveTimeoutS) * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff:           bc,
			MinConnectTimeout: time.Duration(tc.ConnectTimeoutMs) * time.Millisecond,
		}),
	}

	conn, err := grpc.Dial(addr, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &discoveryClient{conn: conn}, nil
}

func (c *discoveryClient) GetPermanentUUID(ctx context.Context, tabletID string) (string, error) {
	req := &GetPermanentUUIDRequest{TabletID: tabletID}
	resp := &GetPermanentUUIDResponse{}
	if err := c.conn.Invoke(ctx, methodGetPermanentUUID, req, resp); err != nil {
		return "", err
	}
	return resp.PermanentUUID, nil
}

func (c *discoveryClient) Invoke(ctx context.Context, method string, args, reply interface{}, opts ...grpc.CallOption) error {
	return c.conn.Invoke(ctx, method, args, reply, opts...)
}

func (c *discoveryClient) Address() string { return c.conn.Target() }

func (c *discoveryClient) Close() error { return c.conn.Close() }
