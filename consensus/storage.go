package consensus

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/coredb/syscatalog/kvstore"
	"go.etcd.io/etcd/raft/v3/raftpb"
)

var (
	groupPrefix    = []byte("g")
	logIndexInfix  = []byte("i")
	hardStateInfix = []byte("h")
)

type storageConfig struct {
	id      uint64
	members []Member
	raw     Storage
	sm      StateMachine
}

func newStorage(cfg storageConfig) (*storage, error) {
	value, err := cfg.raw.Get(encodeHardStateKey(cfg.id))
	if err != nil && err != kvstore.ErrNotFound {
		return nil, err
	}

	hs := raftpb.HardState{}
	if value != nil {
		if err := hs.Unmarshal(value.Data()); err != nil {
			value.Close()
			return nil, err
		}
		value.Close()
	}

	s := &storage{
		id:           cfg.id,
		hardState:    hs,
		rawStg:       cfg.raw,
		stateMachine: cfg.sm,
	}
	members := make(map[uint64]Member, len(cfg.members))
	for i := range cfg.members {
		members[cfg.members[i].NodeID] = cfg.members[i]
	}
	s.membersMu.members = members
	s.updateConfState()

	return s, nil
}

// storage is the WAL for a single group, kept as a dedicated key range
// inside the shared raft kv store. It implements go.etcd.io/etcd/raft/v3's
// Storage interface plus the bookkeeping the group needs around applied
// index and pending local snapshots.
type storage struct {
	id           uint64
	firstIndex   uint64
	lastIndex    uint64
	appliedIndex uint64
	hardState    raftpb.HardState
	membersMu    struct {
		sync.RWMutex
		members map[uint64]Member
		cs      raftpb.ConfState
	}

	rawStg       Storage
	stateMachine StateMachine

	snapshotMu struct {
		sync.Mutex
		pending map[string]Snapshot
	}
}

func (s *storage) InitialState() (raftpb.HardState, raftpb.ConfState, error) {
	s.membersMu.RLock()
	defer s.membersMu.RUnlock()
	return s.hardState, s.membersMu.cs, nil
}

func (s *storage) Entries(lo, hi, maxSize uint64) ([]raftpb.Entry, error) {
	iter := s.rawStg.Iter(encodeIndexLogKey(s.id, lo))
	defer iter.Close()

	var ret []raftpb.Entry
	for iter.Next() {
		if iter.Err() != nil {
			return nil, iter.Err()
		}

		entry := raftpb.Entry{}
		if err := entry.Unmarshal(iter.Value().Data()); err != nil {
			return nil, err
		}
		if entry.Index >= hi {
			break
		}
		ret = append(ret, entry)

		if uint64(len(ret)) == maxSize {
			break
		}
	}

	return ret, nil
}

func (s *storage) Term(i uint64) (uint64, error) {
	value, err := s.rawStg.Get(encodeIndexLogKey(s.id, i))
	if err != nil {
		return 0, err
	}
	defer value.Close()

	entry := raftpb.Entry{}
	if err := entry.Unmarshal(value.Data()); err != nil {
		return 0, err
	}
	return entry.Term, nil
}

func (s *storage) LastIndex() (uint64, error) {
	if li := atomic.LoadUint64(&s.lastIndex); li > 0 {
		return li, nil
	}

	iter := s.rawStg.Iter(nil)
	defer iter.Close()

	if err := iter.SeekForPrev(encodeIndexLogKey(s.id, math.MaxUint64)); err != nil {
		return 0, err
	}
	if !iter.Next() {
		return 0, nil
	}
	if iter.Err() != nil {
		return 0, iter.Err()
	}

	entry := raftpb.Entry{}
	if err := entry.Unmarshal(iter.Value().Data()); err != nil {
		return 0, err
	}

	atomic.StoreUint64(&s.lastIndex, entry.Index)
	return entry.Index, nil
}

func (s *storage) FirstIndex() (uint64, error) {
	if fi := atomic.LoadUint64(&s.firstIndex); fi > 0 {
		return fi, nil
	}

	iter := s.rawStg.Iter(encodeIndexLogKey(s.id, 0))
	defer iter.Close()

	if !iter.Next() {
		return 0, nil
	}
	if iter.Err() != nil {
		return 0, iter.Err()
	}

	entry := raftpb.Entry{}
	if err := entry.Unmarshal(iter.Value().Data()); err != nil {
		return 0, err
	}

	atomic.StoreUint64(&s.firstIndex, entry.Index)
	return entry.Index, nil
}

// Snapshot returns the state machine's current snapshot, registering it
// locally so GetSnapshot can hand it to the transport when a learner or a
// lagging voter needs a full resync.
func (s *storage) Snapshot() (raftpb.Snapshot, error) {
	s.membersMu.RLock()
	cs := s.membersMu.cs
	s.membersMu.RUnlock()

	smSnap := s.stateMachine.Snapshot()
	success := false
	defer func() {
		if !success {
			smSnap.Close()
		}
	}()

	appliedIndex := s.AppliedIndex()
	if smSnap.Index() > appliedIndex {
		return raftpb.Snapshot{}, fmt.Errorf("consensus: snapshot index %d exceeds applied index %d", smSnap.Index(), appliedIndex)
	}

	term, err := s.Term(smSnap.Index())
	if err != nil {
		return raftpb.Snapshot{}, err
	}

	id := fmt.Sprintf("%d-%d-%d", s.id, appliedIndex, term)
	s.snapshotMu.Lock()
	if s.snapshotMu.pending == nil {
		s.snapshotMu.pending = make(map[string]Snapshot)
	}
	s.snapshotMu.pending[id] = smSnap
	s.snapshotMu.Unlock()
	success = true

	return raftpb.Snapshot{
		Data: []byte(id),
		Metadata: raftpb.SnapshotMetadata{
			ConfState: cs,
			Index:     appliedIndex,
			Term:      term,
		},
	}, nil
}

func (s *storage) AppliedIndex() uint64 { return atomic.LoadUint64(&s.appliedIndex) }

func (s *storage) SetAppliedIndex(index uint64) { atomic.StoreUint64(&s.appliedIndex, index) }

func (s *storage) SaveHardStateAndEntries(hs raftpb.HardState, entries []raftpb.Entry) error {
	batch := s.rawStg.NewBatch()

	value, err := hs.Marshal()
	if err != nil {
		return err
	}
	batch.Put(encodeHardStateKey(s.id), value)

	lastIndex := uint64(0)
	for i := range entries {
		value, err := entries[i].Marshal()
		if err != nil {
			return err
		}
		batch.Put(encodeIndexLogKey(s.id, entries[i].Index), value)
		lastIndex = entries[i].Index
	}
	if err := s.rawStg.Write(batch); err != nil {
		return err
	}

	if lastIndex > 0 {
		atomic.StoreUint64(&s.lastIndex, lastIndex)
	}
	s.hardState = hs
	return nil
}

// Truncate may be called concurrently with log replication; it only moves
// the first-index watermark forward, never removes entries past it.
func (s *storage) Truncate(ctx context.Context, index uint64) error {
	batch := s.rawStg.NewBatch()
	batch.DeleteRange(encodeIndexLogKey(s.id, 0), encodeIndexLogKey(s.id, index))
	if err := s.rawStg.Write(batch); err != nil {
		return err
	}

	for {
		firstIndex := atomic.LoadUint64(&s.firstIndex)
		if firstIndex > index {
			return nil
		}
		if atomic.CompareAndSwapUint64(&s.firstIndex, firstIndex, index) {
			return nil
		}
	}
}

func (s *storage) GetSnapshot(id string) Snapshot {
	s.snapshotMu.Lock()
	defer s.snapshotMu.Unlock()
	return s.snapshotMu.pending[id]
}

func (s *storage) DeleteSnapshot(id string) {
	s.snapshotMu.Lock()
	snap, ok := s.snapshotMu.pending[id]
	delete(s.snapshotMu.pending, id)
	s.snapshotMu.Unlock()
	if ok {
		snap.Close()
	}
}

func (s *storage) NewBatch() Batch { return s.rawStg.NewBatch() }

func (s *storage) MemberChange(m *Member) {
	s.membersMu.Lock()
	s.membersMu.members[m.NodeID] = *m
	s.membersMu.Unlock()
}

func (s *storage) updateConfState() {
	s.membersMu.Lock()
	defer s.membersMu.Unlock()

	s.membersMu.cs = raftpb.ConfState{}
	for _, m := range s.membersMu.members {
		if m.Learner {
			s.membersMu.cs.Learners = append(s.membersMu.cs.Learners, m.NodeID)
		} else {
			s.membersMu.cs.Voters = append(s.membersMu.cs.Voters, m.NodeID)
		}
	}
}

func encodeIndexLogKey(id, index uint64) []byte {
	b := make([]byte, 8+8+len(groupPrefix)+len(logIndexInfix))
	copy(b, groupPrefix)
	binary.BigEndian.PutUint64(b[len(groupPrefix):], id)
	copy(b[8+len(groupPrefix):], logIndexInfix)
	binary.BigEndian.PutUint64(b[8+len(groupPrefix)+len(logIndexInfix):], index)
	return b
}

func encodeHardStateKey(id uint64) []byte {
	b := make([]byte, 8+len(groupPrefix)+len(hardStateInfix))
	copy(b, groupPrefix)
	binary.BigEndian.PutUint64(b[len(groupPrefix):], id)
	copy(b[8+len(groupPrefix):], hardStateInfix)
	return b
}
