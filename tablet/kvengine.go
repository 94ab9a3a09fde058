package tablet

import (
	"context"

	"github.com/coredb/syscatalog/kvstore"
	"github.com/cubefs/cubefs/blobstore/util/log"
)

// RowCF is the column family catalog rows live in, keyed
// entry_type||entry_id so that a prefix scan on entry_type alone yields
// every row of that type, per spec.md §3's key-ordering rationale.
const RowCF kvstore.CF = "catalog_rows"

// NewKVEngine builds an Engine directly over a kvstore.Store. Unlike the
// teacher's raft-replicated row store, the catalog's row store is not
// itself raft-replicated storage: it is applied *from* committed raft
// entries (see consensus.StateMachine), so Submit here is a plain local
// write, not a proposal.
func NewKVEngine(kv kvstore.Store) (Engine, error) {
	if !kv.CheckColumns(RowCF) {
		if err := kv.CreateColumn(RowCF); err != nil {
			return nil, err
		}
	}
	return &kvEngine{kv: kv}, nil
}

type kvEngine struct {
	kv kvstore.Store

	mem      MemTracker
	resident int64
}

// Bootstrap implements spec.md §6's tablet-engine bootstrap collaborator:
// the row store itself carries no log (replay happens in the raft WAL,
// consensus package), but on restart it scans the rows already on disk so
// mem can be charged for them up front rather than learning about them
// lazily as the catalog is read.
func (e *kvEngine) Bootstrap(ctx context.Context, tabletID string, clock Clock, mem MemTracker) (BootstrapInfo, error) {
	start := clock.Now()

	var resident int64
	for _, entryType := range []int8{EntryTypeTable, EntryTypeTablet} {
		iter, err := e.NewRowIterator(entryType)
		if err != nil {
			return BootstrapInfo{}, err
		}
		for iter.Next() {
			resident += int64(len(iter.Row().Metadata))
		}
		err = iter.Err()
		iter.Close()
		if err != nil {
			return BootstrapInfo{}, err
		}
	}

	if resident > 0 {
		mem.Consume(resident)
	}
	e.mem = mem
	e.resident = resident

	log.Infof("tablet %s bootstrap scanned %d resident bytes in %s", tabletID, resident, clock.Now().Sub(start))
	return BootstrapInfo{}, nil
}

func (e *kvEngine) NewRowIterator(entryType int8) (RowIterator, error) {
	prefix := []byte{byte(entryType)}
	lr := e.kv.List(context.Background(), RowCF, prefix, nil, nil)
	return &kvRowIterator{lr: lr, entryType: entryType}, nil
}

// Submit applies ops as a single local write batch. It is invoked from
// the consensus apply loop once a proposal has committed, so done is
// called before Submit returns: there is no cross-goroutine handoff left
// for the caller to synchronize on, unlike the RPC-backed submission the
// collaborator interface in spec.md §6 describes in the abstract.
func (e *kvEngine) Submit(ctx context.Context, ops []RowOp, done func(WriteResponse)) {
	batch := e.kv.NewWriteBatch()
	perRow := make([]RowError, 0)

	for i, op := range ops {
		key := rowKey(op.EntryType, op.EntryID)
		switch op.Type {
		case OpInsert, OpUpdate:
			if len(op.EntryID) == 0 {
				perRow = append(perRow, RowError{Index: i, Err: errEmptyEntryID})
				continue
			}
			batch.Put(RowCF, key, op.Metadata)
		case OpDelete:
			batch.Delete(RowCF, key)
		}
	}

	resp := WriteResponse{PerRowErrors: perRow}
	if err := e.kv.Write(ctx, batch, nil); err != nil {
		resp.RPCErr = err
	}
	done(resp)
}

func (e *kvEngine) Close() error {
	if e.mem != nil && e.resident > 0 {
		e.mem.Release(e.resident)
	}
	e.kv.Close()
	return nil
}

func rowKey(entryType int8, entryID string) []byte {
	key := make([]byte, 1+len(entryID))
	key[0] = byte(entryType)
	copy(key[1:], entryID)
	return key
}

type kvRowIterator struct {
	lr        kvstore.ListReader
	entryType int8
	cur       Row
	err       error
}

func (i *kvRowIterator) Next() bool {
	key, val, err := i.lr.ReadNext()
	if err != nil {
		i.err = err
		return false
	}
	if key == nil || val == nil {
		return false
	}
	raw := key.Key()
	if len(raw) == 0 || int8(raw[0]) != i.entryType {
		return false
	}

	i.cur = Row{
		EntryType: int8(raw[0]),
		EntryID:   string(raw[1:]),
		Metadata:  val.Value(),
	}
	return true
}

func (i *kvRowIterator) Row() Row  { return i.cur }
func (i *kvRowIterator) Err() error { return i.err }
func (i *kvRowIterator) Close()     { i.lr.Close() }
