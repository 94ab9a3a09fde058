package catalog

import (
	"testing"

	"github.com/coredb/syscatalog/tablet"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeTableRow_RoundTrip(t *testing.T) {
	meta := TableMetadata{TableID: "t1", Name: "orders", State: TableStateRunning}
	op, err := encodeTableRow(tablet.OpInsert, meta)
	require.NoError(t, err)
	require.Equal(t, tablet.EntryTypeTable, op.EntryType)
	require.Equal(t, "t1", op.EntryID)

	decoded, err := decodeTableRow(tablet.Row{EntryType: op.EntryType, EntryID: op.EntryID, Metadata: op.Metadata})
	require.NoError(t, err)
	require.Equal(t, meta, decoded)
}

func TestEncodeTableDelete_NoMetadata(t *testing.T) {
	op := encodeTableDelete("t1")
	require.Equal(t, tablet.OpDelete, op.Type)
	require.Nil(t, op.Metadata)
}

func TestDecodeTabletRow_MigratesDeprecatedPartition(t *testing.T) {
	old := TabletMetadata{
		TabletID:           "s1",
		TableID:            "t1",
		DeprecatedStartKey: []byte("a"),
		DeprecatedEndKey:   []byte("z"),
	}
	row, err := encodeTabletRow(tablet.OpInsert, old)
	require.NoError(t, err)

	decoded, err := decodeTabletRow(tablet.Row{EntryType: row.EntryType, EntryID: row.EntryID, Metadata: row.Metadata})
	require.NoError(t, err)
	require.NotNil(t, decoded.Partition)
	require.Equal(t, []byte("a"), decoded.Partition.StartKey)
	require.Equal(t, []byte("z"), decoded.Partition.EndKey)
	require.Nil(t, decoded.DeprecatedStartKey)
	require.Nil(t, decoded.DeprecatedEndKey)
}

func TestDecodeTableRow_CorruptMetadata(t *testing.T) {
	_, err := decodeTableRow(tablet.Row{EntryType: tablet.EntryTypeTable, EntryID: "t1", Metadata: []byte("not json")})
	require.Error(t, err)
}
