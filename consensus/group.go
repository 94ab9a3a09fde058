package consensus

import (
	"context"
	"sync"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/cubefs/cubefs/blobstore/util/errors"
	"go.etcd.io/etcd/raft/v3"
	"go.etcd.io/etcd/raft/v3/raftpb"
)

// StateKind is the set of consensus states the catalog's state-change
// handler distinguishes, per the tablet's ConsensusState(kind) collaborator
// contract.
type StateKind int

const (
	StateRunning StateKind = iota
	StateStopped
)

type Role int

const (
	RoleFollower Role = iota
	RoleCandidate
	RoleLeader
	RoleLearner
)

// StateChangeFunc is invoked whenever the group's consensus state changes
// (a leader is elected, a member is added, the group stops). tabletID and
// reason mirror the sys_catalog.cc-style `(tablet_id, reason)` notification
// pair the surrounding catalog logs and dispatches on.
type StateChangeFunc func(tabletID string, reason string)

// Config wires a single-group Group to its collaborators.
type Config struct {
	GroupID   uint64
	NodeID    uint64
	TabletID  string
	Members   []Member
	Storage   Storage
	StateMachine StateMachine
	Transport Transport
	TickInterval time.Duration

	OnStateChange StateChangeFunc
}

// Group drives one etcd-raft RawNode end to end: ticking, proposing,
// applying committed entries to the injected StateMachine, and notifying
// callers blocked on a proposal's result. The catalog's tablet peer is the
// only consumer; there is exactly one Group per catalog, so unlike the
// multi-group wiring this package descends from, there is no shared
// dispatch table keyed by group id.
type Group struct {
	cfg Config

	id     uint64
	nodeID uint64

	rawNodeMu struct {
		sync.Mutex
		rawNode *raft.RawNode
	}
	notifies sync.Map
	ids      *idGenerator
	storage  *storage
	sm       StateMachine
	tr       Transport

	stateMu struct {
		sync.RWMutex
		kind   StateKind
		leader uint64
	}

	runningCh chan struct{}
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewGroup constructs and starts a Group. The raft configuration (election
// and heartbeat ticks) matches etcd/raft's recommended defaults; the
// catalog does not need to tune them per spec.
func NewGroup(cfg Config) (*Group, error) {
	stg, err := newStorage(storageConfig{
		id:      cfg.GroupID,
		members: cfg.Members,
		raw:     cfg.Storage,
		sm:      cfg.StateMachine,
	})
	if err != nil {
		return nil, errors.Info(err, "consensus: init storage")
	}

	peers := make([]raft.Peer, 0, len(cfg.Members))
	for _, m := range cfg.Members {
		peers = append(peers, raft.Peer{ID: m.NodeID})
	}

	rn, err := raft.NewRawNode(&raft.Config{
		ID:                        cfg.NodeID,
		ElectionTick:              10,
		HeartbeatTick:             1,
		Storage:                   stg,
		MaxSizePerMsg:             1 << 20,
		MaxInflightMsgs:           256,
		MaxUncommittedEntriesSize: 1 << 24,
		PreVote:                   true,
	})
	if err != nil {
		return nil, errors.Info(err, "consensus: init raw node")
	}
	if len(peers) > 0 {
		if err := rn.Bootstrap(peers); err != nil && err != raft.ErrCompacted {
			return nil, errors.Info(err, "consensus: bootstrap raw node")
		}
	}

	g := &Group{
		cfg:       cfg,
		id:        cfg.GroupID,
		nodeID:    cfg.NodeID,
		ids:       newIDGenerator(cfg.NodeID, time.Now()),
		storage:   stg,
		sm:        cfg.StateMachine,
		tr:        cfg.Transport,
		runningCh: make(chan struct{}),
		stopCh:    make(chan struct{}),
	}
	g.rawNodeMu.rawNode = rn

	tick := cfg.TickInterval
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}

	close(g.runningCh)
	g.stateMu.kind = StateRunning

	go g.run(tick)

	return g, nil
}

func (g *Group) withRawNode(f func(rn *raft.RawNode)) {
	g.rawNodeMu.Lock()
	defer g.rawNodeMu.Unlock()
	f(g.rawNodeMu.rawNode)
}

// Propose submits data to the group and blocks until it has been applied
// to the state machine (or ctx is done).
func (g *Group) Propose(ctx context.Context, data []byte) (interface{}, error) {
	pd := &ProposalData{Data: data, notifyID: g.ids.Next()}
	marshaled, err := pd.Marshal()
	if err != nil {
		return nil, err
	}

	n := newNotify()
	g.notifies.Store(pd.notifyID, n)

	var proposeErr error
	g.withRawNode(func(rn *raft.RawNode) {
		proposeErr = rn.Propose(marshaled)
	})
	if proposeErr != nil {
		g.notifies.Delete(pd.notifyID)
		return nil, proposeErr
	}

	ret, err := n.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return ret.reply, ret.err
}

// MemberChange proposes a configuration change and blocks until it is
// applied.
func (g *Group) MemberChange(ctx context.Context, typ raftpb.ConfChangeType, m *Member) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}

	notifyID := g.ids.Next()
	n := newNotify()
	g.notifies.Store(notifyID, n)

	cc := raftpb.ConfChange{Type: typ, NodeID: m.NodeID, Context: data}

	var proposeErr error
	g.withRawNode(func(rn *raft.RawNode) {
		proposeErr = rn.ProposeConfChange(cc)
	})
	if proposeErr != nil {
		g.notifies.Delete(notifyID)
		return proposeErr
	}

	ret, err := n.Wait(ctx)
	if err != nil {
		return err
	}
	return ret.err
}

func (g *Group) LeaderTransfer(peerID uint64) {
	g.withRawNode(func(rn *raft.RawNode) { rn.TransferLeader(peerID) })
}

func (g *Group) Truncate(ctx context.Context, index uint64) error {
	return g.storage.Truncate(ctx, index)
}

// ConsensusState reports whether the group is still running, matching the
// collaborator contract's ConsensusState(kind).
func (g *Group) ConsensusState(kind StateKind) bool {
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()
	return g.stateMu.kind == kind
}

// WaitUntilConsensusRunning polls until the group reports StateRunning or
// the timeout elapses.
func (g *Group) WaitUntilConsensusRunning(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if g.ConsensusState(StateRunning) {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrGroupNotRunning
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (g *Group) Stat() Stat {
	var st Stat
	g.withRawNode(func(rn *raft.RawNode) {
		status := rn.Status()
		st = Stat{
			NodeID:       status.ID,
			Term:         status.Term,
			Vote:         status.Vote,
			Commit:       status.Commit,
			Leader:       status.Lead,
			RaftState:    status.RaftState.String(),
			AppliedIndex: g.storage.AppliedIndex(),
		}
	})
	return st
}

// Step feeds an inbound raft message received over the transport into the
// group.
func (g *Group) Step(ctx context.Context, msg raftpb.Message) error {
	var err error
	g.withRawNode(func(rn *raft.RawNode) { err = rn.Step(msg) })
	return err
}

func (g *Group) Close() error {
	g.stopOnce.Do(func() {
		g.stateMu.Lock()
		g.stateMu.kind = StateStopped
		g.stateMu.Unlock()
		close(g.stopCh)
		g.notifyStateChange("group closed")
	})
	return nil
}

func (g *Group) notifyStateChange(reason string) {
	if g.cfg.OnStateChange != nil {
		g.cfg.OnStateChange(g.cfg.TabletID, reason)
	}
}

// run is the group's single-threaded event loop: tick the raft clock,
// drain Ready(), persist, send, and apply.
func (g *Group) run(tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	ctx := context.Background()

	for {
		select {
		case <-g.stopCh:
			return
		case <-ticker.C:
			g.withRawNode(func(rn *raft.RawNode) { rn.Tick() })
		default:
		}

		var hasReady bool
		g.withRawNode(func(rn *raft.RawNode) { hasReady = rn.HasReady() })
		if !hasReady {
			time.Sleep(5 * time.Millisecond)
			continue
		}

		var rd raft.Ready
		g.withRawNode(func(rn *raft.RawNode) { rd = rn.Ready() })

		if rd.SoftState != nil {
			g.stateMu.Lock()
			prevLeader := g.stateMu.leader
			g.stateMu.leader = rd.SoftState.Lead
			g.stateMu.Unlock()
			if rd.SoftState.Lead != 0 && rd.SoftState.Lead != prevLeader {
				if err := g.sm.LeaderChange(rd.SoftState.Lead); err != nil {
					trace.SpanFromContextSafe(ctx).Warnf("leader change callback failed: %s", err)
				}
				g.notifyStateChange("leader elected")
			}
		}

		if err := g.storage.SaveHardStateAndEntries(rd.HardState, rd.Entries); err != nil {
			trace.SpanFromContextSafe(ctx).Errorf("save hard state and entries failed: %s", err)
			continue
		}

		if !raft.IsEmptySnap(rd.Snapshot) {
			if err := g.sm.ApplySnapshot(g.storage.GetSnapshot(string(rd.Snapshot.Data))); err != nil {
				trace.SpanFromContextSafe(ctx).Errorf("apply snapshot failed: %s", err)
			}
			g.storage.SetAppliedIndex(rd.Snapshot.Metadata.Index)
		}

		if len(rd.Messages) > 0 && g.tr != nil {
			g.tr.SendMessages(ctx, g.id, rd.Messages)
		}

		if err := g.applyCommittedEntries(ctx, rd.CommittedEntries); err != nil {
			trace.SpanFromContextSafe(ctx).Errorf("apply committed entries failed: %s", err)
		}

		g.withRawNode(func(rn *raft.RawNode) { rn.Advance(rd) })
	}
}

func (g *Group) applyCommittedEntries(ctx context.Context, entries []raftpb.Entry) error {
	pending := make([]ProposalData, 0, len(entries))
	latestIndex := uint64(0)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		rets, err := g.sm.Apply(ctx, pending, latestIndex)
		if err != nil {
			return errors.Info(err, "apply to state machine failed")
		}
		for i, ret := range rets {
			g.doNotify(pending[i].notifyID, proposalResult{reply: ret})
		}
		pending = pending[:0]
		return nil
	}

	for i := range entries {
		switch entries[i].Type {
		case raftpb.EntryConfChange:
			if err := flush(); err != nil {
				return err
			}
			if err := g.applyConfChange(entries[i]); err != nil {
				return errors.Info(err, "apply conf change failed")
			}
		case raftpb.EntryNormal:
			if len(entries[i].Data) == 0 {
				continue
			}
			pd := ProposalData{}
			if err := pd.Unmarshal(entries[i].Data); err != nil {
				return errors.Info(err, "unmarshal proposal failed")
			}
			pending = append(pending, pd)
		}
		latestIndex = entries[i].Index
	}

	if err := flush(); err != nil {
		return err
	}

	if latestIndex > 0 {
		g.storage.SetAppliedIndex(latestIndex)
	}
	return nil
}

func (g *Group) applyConfChange(entry raftpb.Entry) error {
	var cc raftpb.ConfChange
	if err := cc.Unmarshal(entry.Data); err != nil {
		return err
	}

	g.withRawNode(func(rn *raft.RawNode) { rn.ApplyConfChange(cc) })

	member := &Member{}
	if err := member.Unmarshal(cc.Context); err != nil {
		return err
	}
	if err := g.sm.ApplyMemberChange(member, entry.Index); err != nil {
		return err
	}
	g.storage.MemberChange(member)
	g.notifyStateChange("member change applied")
	return nil
}

func (g *Group) doNotify(notifyID uint64, ret proposalResult) {
	n, ok := g.notifies.LoadAndDelete(notifyID)
	if !ok {
		return
	}
	n.(notify).Notify(ret)
}
