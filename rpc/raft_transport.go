package rpc

import (
	"context"
	"sync"

	"github.com/coredb/syscatalog/consensus"
	"github.com/cubefs/cubefs/blobstore/util/log"
	"go.etcd.io/etcd/raft/v3/raftpb"
)

// RaftTransport is the production consensus.Transport: it resolves a raft
// node id to an address via a peer table populated by the catalog's tablet
// wiring, and ships messages/snapshots over the same json-coded grpc
// surface as the discovery RPC. Grounded on the dial/cache pattern in
// messenger.go and on the teacher's raft/transport.go send path, minus the
// proto-generated stubs the pack does not carry for this message shape.
type RaftTransport struct {
	messenger Messenger

	mu    sync.RWMutex
	peers map[uint64]string // nodeID -> host:port
}

func NewRaftTransport(messenger Messenger) *RaftTransport {
	return &RaftTransport{messenger: messenger, peers: make(map[uint64]string)}
}

// UpdatePeers refreshes the node id to address table. Called by the
// catalog's tablet wiring whenever the group's membership is (re)computed.
func (t *RaftTransport) UpdatePeers(members []consensus.Member) {
	peers := make(map[uint64]string, len(members))
	for _, m := range members {
		peers[m.NodeID] = m.Host
	}
	t.mu.Lock()
	t.peers = peers
	t.mu.Unlock()
}

func (t *RaftTransport) addressOf(nodeID uint64) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	addr, ok := t.peers[nodeID]
	return addr, ok
}

func (t *RaftTransport) SendMessages(ctx context.Context, groupID uint64, messages []raftpb.Message) {
	byTarget := make(map[uint64][]raftpb.Message)
	for _, m := range messages {
		byTarget[m.To] = append(byTarget[m.To], m)
	}
	for to, batch := range byTarget {
		addr, ok := t.addressOf(to)
		if !ok {
			log.Warnf("raft transport: no known address for node %d, dropping %d messages", to, len(batch))
			continue
		}
		req := &SendMessagesRequest{GroupID: groupID, Messages: batch}
		resp := &SendMessagesResponse{}
		if err := t.invoke(ctx, addr, methodSendRaftMessages, req, resp); err != nil {
			log.Warnf("raft transport: send messages to %s failed: %s", addr, err)
		}
	}
}

func (t *RaftTransport) SendSnapshot(ctx context.Context, groupID uint64, to uint64, snap consensus.Snapshot, meta raftpb.SnapshotMetadata) {
	defer snap.Close()

	var data []byte
	for {
		b, err := snap.ReadBatch()
		if err != nil {
			break
		}
		data = append(data, b.Data()...)
		b.Close()
	}

	addr, ok := t.addressOf(to)
	if !ok {
		log.Warnf("raft transport: no known address for node %d, dropping snapshot", to)
		return
	}
	req := &SendSnapshotRequest{GroupID: groupID, To: to, Meta: meta, Data: data}
	resp := &SendSnapshotResponse{}
	if err := t.invoke(ctx, addr, methodSendRaftSnapshot, req, resp); err != nil {
		log.Warnf("raft transport: send snapshot to %s failed: %s", addr, err)
	}
}

func (t *RaftTransport) invoke(ctx context.Context, addr, method string, req, resp interface{}) error {
	dc, err := t.messenger.Get(ctx, addr)
	if err != nil {
		return err
	}
	return dc.Invoke(ctx, method, req, resp)
}
