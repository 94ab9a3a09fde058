// Package consensus wires the catalog tablet to a single etcd-raft group.
//
// Unlike the multi-shard raft wiring this package is adapted from, the
// system catalog only ever needs one replicated group: the catalog tablet
// itself. Group therefore owns its RawNode, WAL, and apply loop directly
// instead of dispatching through a shared multi-group handler.
package consensus

import (
	"context"
	"encoding/binary"
	"encoding/json"

	"go.etcd.io/etcd/raft/v3/raftpb"
)

// StateMachine is the collaborator the catalog's tablet peer implements.
// Apply is invoked with the batch of committed, decoded proposals between
// two conf-change entries (or at the end of a Ready), in log order.
type StateMachine interface {
	Apply(ctx context.Context, data []ProposalData, index uint64) (rets []interface{}, err error)
	LeaderChange(leaderID uint64) error
	ApplyMemberChange(m *Member, index uint64) error
	Snapshot() Snapshot
	ApplySnapshot(s Snapshot) error
}

// Storage is the raw key-value surface the WAL is kept in. NewKVStorage
// adapts a kvstore.Store to it.
type Storage interface {
	Get(key []byte) (ValGetter, error)
	Iter(prefix []byte) Iterator
	NewBatch() Batch
	Write(b Batch) error
	Put(key, value []byte) error
}

// Snapshot is a point-in-time, streamable view of the state machine.
// ReadBatch returns io.EOF once exhausted; the caller closes each batch.
type Snapshot interface {
	ReadBatch() (Batch, error)
	Term() uint64
	Index() uint64
	Close() error
}

// Transport is the narrow send-side surface the group needs from the
// surrounding RPC messenger. The wire format and network plumbing are
// out of this package's scope; Transport is the seam where the real
// messenger (rpc/) or a test double is injected.
type Transport interface {
	SendMessages(ctx context.Context, groupID uint64, messages []raftpb.Message)
	SendSnapshot(ctx context.Context, groupID uint64, to uint64, snap Snapshot, meta raftpb.SnapshotMetadata)
}

type ValGetter interface {
	Data() []byte
	Close()
}

type Iterator interface {
	SeekForPrev(prev []byte) error
	Next() bool
	Prev() bool
	Err() error
	ValidPrefix() bool
	Key() ValGetter
	Value() ValGetter
	Close()
}

type Batch interface {
	Put(key, value []byte)
	DeleteRange(start, end []byte)
	Data() []byte
	From(data []byte)
	Close()
}

// Member is a single voter or learner in the group's configuration. It is
// carried verbatim as the Context of a raftpb.ConfChange entry.
type Member struct {
	NodeID        uint64 `json:"node_id"`
	Host          string `json:"host"`
	Learner       bool   `json:"learner"`
	PermanentUUID string `json:"permanent_uuid"`
}

func (m *Member) Marshal() ([]byte, error)    { return json.Marshal(m) }
func (m *Member) Unmarshal(data []byte) error { return json.Unmarshal(data, m) }

// ProposalData is one logical write proposed to the group. notifyID
// correlates a committed, decoded entry back to the local goroutine that
// is blocked waiting on its result; it is only meaningful on the node that
// proposed it, but it rides along on every replica's log so that it can be
// re-derived after a restart or leadership change.
type ProposalData struct {
	Data []byte

	notifyID uint64
}

func (p *ProposalData) Marshal() ([]byte, error) {
	b := make([]byte, 8+len(p.Data))
	binary.BigEndian.PutUint64(b, p.notifyID)
	copy(b[8:], p.Data)
	return b, nil
}

func (p *ProposalData) Unmarshal(b []byte) error {
	if len(b) < 8 {
		return errShortProposal
	}
	p.notifyID = binary.BigEndian.Uint64(b)
	p.Data = append([]byte(nil), b[8:]...)
	return nil
}

// Stat is a snapshot of the group's raft status, exposed for diagnostics
// and tests.
type Stat struct {
	NodeID         uint64   `json:"node_id"`
	Term           uint64   `json:"term"`
	Vote           uint64   `json:"vote"`
	Commit         uint64   `json:"commit"`
	Leader         uint64   `json:"leader"`
	RaftState      string   `json:"raft_state"`
	AppliedIndex   uint64   `json:"applied_index"`
	RaftApplied    uint64   `json:"raft_applied"`
	LeadTransferee uint64   `json:"lead_transferee"`
	Peers          []uint64 `json:"peers"`
}

type proposalResult struct {
	reply interface{}
	err   error
}
