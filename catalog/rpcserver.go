package catalog

import (
	"context"

	"github.com/coredb/syscatalog/errors"
	syscataloggrpc "github.com/coredb/syscatalog/rpc"
)

// RaftServer returns the rpc.RaftServer this System implements, for the
// process main to register against its grpc.Server alongside the
// discovery service.
func (c *System) RaftServer() syscataloggrpc.RaftServer { return (*raftServer)(c) }

type raftServer System

func (s *raftServer) SendMessages(ctx context.Context, req *syscataloggrpc.SendMessagesRequest) (*syscataloggrpc.SendMessagesResponse, error) {
	c := (*System)(s)
	c.mu.RLock()
	group := c.group
	c.mu.RUnlock()
	if group == nil {
		return nil, errors.New(errors.IllegalState, "consensus group not set up")
	}
	for _, m := range req.Messages {
		if err := group.Step(ctx, m); err != nil {
			return nil, errors.Wrap(errors.RuntimeError, err, "step raft message")
		}
	}
	return &syscataloggrpc.SendMessagesResponse{}, nil
}

// SendSnapshot is unimplemented: the catalog tablet's membership is fixed
// at CreateNew and every voter is expected to join before its first
// truncation, so cross-process snapshot installation is never exercised
// (see DESIGN.md).
func (s *raftServer) SendSnapshot(ctx context.Context, req *syscataloggrpc.SendSnapshotRequest) (*syscataloggrpc.SendSnapshotResponse, error) {
	return nil, errors.New(errors.RuntimeError, "snapshot transfer is not supported for the system catalog tablet")
}
