package consensus

import (
	"context"

	"github.com/coredb/syscatalog/kvstore"
)

// RaftWalCF is the column family the group's WAL and hard state live in,
// kept separate from the catalog's row column families so compaction and
// write-stall behavior of the two don't interact.
const RaftWalCF kvstore.CF = "raft-wal"

// NewKVStorage adapts a kvstore.Store into the Storage interface the WAL
// keeps its entries in.
func NewKVStorage(kv kvstore.Store) Storage {
	return &kvStorage{kv: kv}
}

type kvStorage struct {
	kv kvstore.Store
}

func (s *kvStorage) Get(key []byte) (ValGetter, error) {
	v, err := s.kv.Get(context.Background(), RaftWalCF, key, nil)
	if err != nil {
		return nil, err
	}
	return valGetter{v}, nil
}

func (s *kvStorage) Iter(prefix []byte) Iterator {
	return &kvIterator{lr: s.kv.List(context.Background(), RaftWalCF, prefix, nil, nil)}
}

func (s *kvStorage) NewBatch() Batch {
	return &kvBatch{cf: RaftWalCF, batch: s.kv.NewWriteBatch()}
}

func (s *kvStorage) Write(b Batch) error {
	return s.kv.Write(context.Background(), b.(*kvBatch).batch, nil)
}

func (s *kvStorage) Put(key, value []byte) error {
	return s.kv.SetRaw(context.Background(), RaftWalCF, key, value, nil)
}

type valGetter struct {
	v kvstore.ValueGetter
}

func (g valGetter) Data() []byte { return g.v.Value() }
func (g valGetter) Close()       { g.v.Close() }

// kvIterator adapts kvstore.ListReader's Read-and-advance shape to the
// Next()/Value() shape the WAL code iterates with.
type kvIterator struct {
	lr  kvstore.ListReader
	key kvstore.KeyGetter
	val kvstore.ValueGetter
	err error
}

func (i *kvIterator) SeekForPrev(prev []byte) error { return i.lr.SeekForPrev(prev) }

func (i *kvIterator) Next() bool {
	key, val, err := i.lr.ReadNext()
	if err != nil {
		i.err = err
		return false
	}
	if key == nil || val == nil {
		return false
	}
	i.key, i.val = key, val
	return true
}

func (i *kvIterator) Prev() bool {
	key, val, err := i.lr.ReadPrev()
	if err != nil {
		i.err = err
		return false
	}
	if key == nil || val == nil {
		return false
	}
	i.key, i.val = key, val
	return true
}

func (i *kvIterator) Err() error         { return i.err }
func (i *kvIterator) ValidPrefix() bool  { return i.key != nil }
func (i *kvIterator) Key() ValGetter     { return keyGetter{i.key} }
func (i *kvIterator) Value() ValGetter   { return valGetter{i.val} }
func (i *kvIterator) Close()             { i.lr.Close() }

type keyGetter struct {
	k kvstore.KeyGetter
}

func (g keyGetter) Data() []byte { return g.k.Key() }
func (g keyGetter) Close()       { g.k.Close() }

type kvBatch struct {
	cf    kvstore.CF
	batch kvstore.WriteBatch
}

func (b *kvBatch) Put(key, value []byte)        { b.batch.Put(b.cf, key, value) }
func (b *kvBatch) DeleteRange(start, end []byte) { b.batch.DeleteRange(b.cf, start, end) }
func (b *kvBatch) Data() []byte                  { return b.batch.Data() }
func (b *kvBatch) From(data []byte)              { b.batch.From(data) }
func (b *kvBatch) Close()                        { b.batch.Close() }
