package tablet

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/coredb/syscatalog/consensus"
	"github.com/cubefs/cubefs/blobstore/util/log"
	"golang.org/x/time/rate"
)

// ApplyExecutor is the dedicated, sequential apply pool of spec.md §5: a
// single worker goroutine committed proposals are handed to, so the raft
// group's own run loop (consensus.Group.run) never blocks on row-store
// I/O. catalog.System's applyPool satisfies this with exactly one
// goroutine, preserving raft log order.
type ApplyExecutor interface {
	Submit(task func())
}

// Peer is the catalog tablet peer of spec.md §4.4: it binds the tablet
// engine to a consensus group, implementing consensus.StateMachine so
// that committed proposals are applied into the row store in order, and
// runs the background log-truncation job described in SPEC_FULL.md §5.4
// (the Go analogue of the teacher's master/raft_impl.go truncJob).
type Peer struct {
	tabletID string
	engine   Engine
	group    *consensus.Group
	apply    ApplyExecutor

	appliedIndex  uint64
	lastTruncated uint64

	truncateLimiter *rate.Limiter
	truncateEvery   uint64
	stopCh          chan struct{}
}

// NewPeer constructs a peer bound to engine, applying committed proposals
// through apply rather than on the caller's own goroutine. The returned
// Peer must have its Group assigned via Bind before it is used as a
// consensus.StateMachine, because the consensus.Group constructor itself
// requires the StateMachine up front — the two are mutually referential
// by construction, not by object cycle: Bind is called exactly once,
// right after consensus.NewGroup.
func NewPeer(tabletID string, engine Engine, truncateEvery uint64, apply ApplyExecutor) *Peer {
	return &Peer{
		tabletID:        tabletID,
		engine:          engine,
		apply:           apply,
		truncateEvery:   truncateEvery,
		truncateLimiter: rate.NewLimiter(rate.Every(time.Minute), 1),
		stopCh:          make(chan struct{}),
	}
}

// Bind attaches the consensus group driving this peer and starts the
// background truncation loop.
func (p *Peer) Bind(group *consensus.Group) {
	p.group = group
	go p.truncateLoop()
}

func (p *Peer) ConsensusState(kind consensus.StateKind) bool {
	return p.group.ConsensusState(kind)
}

func (p *Peer) WaitUntilConsensusRunning(timeout time.Duration) error {
	return p.group.WaitUntilConsensusRunning(timeout)
}

// Propose submits ops as a single proposal and blocks until applied,
// returning the WriteResponse produced by Apply.
func (p *Peer) Propose(ctx context.Context, ops []RowOp) (WriteResponse, error) {
	batch := ProposalBatch{Ops: ops}
	data, err := batch.Marshal()
	if err != nil {
		return WriteResponse{}, err
	}

	reply, err := p.group.Propose(ctx, data)
	if err != nil {
		return WriteResponse{RPCErr: err}, err
	}
	resp, _ := reply.(WriteResponse)
	return resp, nil
}

// Apply implements consensus.StateMachine. The batch is decoded and
// applied to the row store on the peer's dedicated apply pool, not on the
// calling (raft run loop) goroutine, so a slow row-store write never
// stalls ticking or message sending; Apply itself still blocks until that
// work completes, since the caller needs rets to notify proposers. Results
// are returned in the same order they were submitted in.
func (p *Peer) Apply(ctx context.Context, data []consensus.ProposalData, index uint64) ([]interface{}, error) {
	rets := make([]interface{}, len(data))
	done := make(chan struct{})

	p.apply.Submit(func() {
		defer close(done)
		for i := range data {
			batch := ProposalBatch{}
			if err := batch.Unmarshal(data[i].Data); err != nil {
				rets[i] = WriteResponse{RPCErr: err}
				continue
			}

			var resp WriteResponse
			p.engine.Submit(ctx, batch.Ops, func(r WriteResponse) { resp = r })
			rets[i] = resp
		}
		atomic.StoreUint64(&p.appliedIndex, index)
	})

	<-done
	return rets, nil
}

func (p *Peer) LeaderChange(leaderID uint64) error { return nil }

func (p *Peer) ApplyMemberChange(m *consensus.Member, index uint64) error {
	atomic.StoreUint64(&p.appliedIndex, index)
	return nil
}

// Snapshot returns a full scan of the row store, batched one row at a
// time. Real production tablets would batch many rows per ReadBatch call;
// one row per call keeps this reference engine simple without changing
// the Snapshot contract any caller depends on.
func (p *Peer) Snapshot() consensus.Snapshot {
	tableIter, _ := p.engine.NewRowIterator(EntryTypeTable)
	tabletIter, _ := p.engine.NewRowIterator(EntryTypeTablet)
	return &rowSnapshot{
		appliedIndex: atomic.LoadUint64(&p.appliedIndex),
		iters:        []RowIterator{tableIter, tabletIter},
	}
}

// ApplySnapshot writes the rows carried in s into the local row store, one
// memBatch per row. Rows already in the store that s does not carry are
// not removed.
func (p *Peer) ApplySnapshot(s consensus.Snapshot) error {
	for {
		batch, err := s.ReadBatch()
		if err != nil {
			if err == io.EOF {
				atomic.StoreUint64(&p.appliedIndex, s.Index())
				return nil
			}
			return err
		}
		if batch == nil {
			continue
		}

		mb, ok := batch.(*memBatch)
		if !ok {
			continue
		}
		ops := make([]RowOp, 0, len(mb.pairs))
		for _, pair := range mb.pairs {
			if len(pair.Key) == 0 {
				continue
			}
			ops = append(ops, RowOp{
				Type:      OpInsert,
				EntryType: int8(pair.Key[0]),
				EntryID:   string(pair.Key[1:]),
				Metadata:  pair.Value,
			})
		}
		p.engine.Submit(context.Background(), ops, func(WriteResponse) {})
	}
}

func (p *Peer) AppliedIndex() uint64 { return atomic.LoadUint64(&p.appliedIndex) }

func (p *Peer) Close() error {
	close(p.stopCh)
	return p.engine.Close()
}

// truncateLoop periodically truncates the raft WAL up to the last applied
// index, rate-limited so a burst of applies cannot trigger more than one
// truncation per interval.
func (p *Peer) truncateLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.TryTruncate(context.Background())
		}
	}
}

// TryTruncate truncates the raft WAL up to the last applied index if at
// least truncateEvery entries have accumulated since the last truncation
// and the rate limiter allows it. It is exported so the maintenance
// manager can trigger an out-of-band truncation pass (spec.md §5.4)
// alongside the background ticker in truncateLoop, both sharing the same
// rate limiter and high-water mark.
func (p *Peer) TryTruncate(ctx context.Context) {
	applied := p.AppliedIndex()
	if applied == 0 || applied-atomic.LoadUint64(&p.lastTruncated) < p.truncateEvery {
		return
	}
	if !p.truncateLimiter.Allow() {
		return
	}
	if err := p.group.Truncate(ctx, applied); err != nil {
		log.Errorf("truncate raft log up to %d failed: %s", applied, err)
		return
	}
	atomic.StoreUint64(&p.lastTruncated, applied)
}

// Entry types of spec.md §3's leading key component: TABLE sorts before
// TABLET so a prefix scan on either yields a contiguous block.
const (
	EntryTypeTable  int8 = 0
	EntryTypeTablet int8 = 1
)
