package rpc

import (
	"go.etcd.io/etcd/raft/v3/raftpb"
)

const (
	raftServiceName        = "syscatalog.Raft"
	methodSendRaftMessages = "/" + raftServiceName + "/SendMessages"
	methodSendRaftSnapshot = "/" + raftServiceName + "/SendSnapshot"
)

// SendMessagesRequest carries one batch of raft messages bound for a
// single group on a single peer.
type SendMessagesRequest struct {
	GroupID  uint64          `json:"group_id"`
	Messages []raftpb.Message `json:"messages"`
}

type SendMessagesResponse struct{}

// SendSnapshotRequest carries a whole snapshot in one RPC. Real multi-GB
// snapshots would need streaming; the catalog tablet's snapshot is a
// single small partition's worth of rows, so one message suffices (see
// DESIGN.md).
type SendSnapshotRequest struct {
	GroupID  uint64                  `json:"group_id"`
	To       uint64                  `json:"to"`
	Meta     raftpb.SnapshotMetadata `json:"meta"`
	Data     []byte                  `json:"data"`
}

type SendSnapshotResponse struct{}
