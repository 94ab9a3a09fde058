package tablet

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/coredb/syscatalog/kvstore"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fakeMemTracker struct {
	consumed int64
	released int64
}

func (m *fakeMemTracker) Consume(bytes int64) { m.consumed += bytes }
func (m *fakeMemTracker) Release(bytes int64) { m.released += bytes }

func newTestEngine(t *testing.T) Engine {
	dir, err := os.MkdirTemp("", "syscatalog-tablet-test-")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	kv, err := kvstore.NewKVStore(context.Background(), dir, kvstore.RocksdbLsmKVType, &kvstore.Option{CreateIfMissing: true})
	require.NoError(t, err)

	eng, err := NewKVEngine(kv)
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestKVEngine_SubmitAndIterate(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	var resp WriteResponse
	eng.Submit(ctx, []RowOp{
		{Type: OpInsert, EntryType: EntryTypeTable, EntryID: "t1", Metadata: []byte(`{"name":"t1"}`)},
		{Type: OpInsert, EntryType: EntryTypeTable, EntryID: "t2", Metadata: []byte(`{"name":"t2"}`)},
	}, func(r WriteResponse) { resp = r })
	require.NoError(t, resp.RPCErr)
	require.Empty(t, resp.PerRowErrors)

	iter, err := eng.NewRowIterator(EntryTypeTable)
	require.NoError(t, err)
	defer iter.Close()

	var ids []string
	for iter.Next() {
		ids = append(ids, iter.Row().EntryID)
	}
	require.NoError(t, iter.Err())
	require.Equal(t, []string{"t1", "t2"}, ids)
}

func TestKVEngine_DeleteAfterInsert(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	var resp WriteResponse
	eng.Submit(ctx, []RowOp{
		{Type: OpInsert, EntryType: EntryTypeTable, EntryID: "t1", Metadata: []byte("v")},
		{Type: OpDelete, EntryType: EntryTypeTable, EntryID: "t1"},
	}, func(r WriteResponse) { resp = r })
	require.NoError(t, resp.RPCErr)

	iter, err := eng.NewRowIterator(EntryTypeTable)
	require.NoError(t, err)
	defer iter.Close()
	require.False(t, iter.Next())
}

func TestKVEngine_BootstrapChargesResidentRows(t *testing.T) {
	dir, err := os.MkdirTemp("", "syscatalog-tablet-test-")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	kv, err := kvstore.NewKVStore(context.Background(), dir, kvstore.RocksdbLsmKVType, &kvstore.Option{CreateIfMissing: true})
	require.NoError(t, err)
	eng, err := NewKVEngine(kv)
	require.NoError(t, err)

	ctx := context.Background()
	var resp WriteResponse
	eng.Submit(ctx, []RowOp{
		{Type: OpInsert, EntryType: EntryTypeTable, EntryID: "t1", Metadata: []byte("0123456789")},
	}, func(r WriteResponse) { resp = r })
	require.NoError(t, resp.RPCErr)

	mem := &fakeMemTracker{}
	_, err = eng.Bootstrap(ctx, "tablet-1", fixedClock{now: time.Now()}, mem)
	require.NoError(t, err)
	require.EqualValues(t, 10, mem.consumed)

	require.NoError(t, eng.Close())
	require.EqualValues(t, 10, mem.released)
}

func TestKVEngine_RejectsEmptyEntryID(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	var resp WriteResponse
	eng.Submit(ctx, []RowOp{
		{Type: OpInsert, EntryType: EntryTypeTable, EntryID: "", Metadata: []byte("v")},
	}, func(r WriteResponse) { resp = r })
	require.Len(t, resp.PerRowErrors, 1)
	require.Equal(t, 0, resp.PerRowErrors[0].Index)
}
