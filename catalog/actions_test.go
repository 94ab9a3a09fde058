package catalog

import (
	"testing"

	"github.com/coredb/syscatalog/tablet"
	"github.com/stretchr/testify/require"
)

func TestBuildRowOps_ContractualOrdering(t *testing.T) {
	actions := Actions{
		TableToAdd:      &TableMetadata{TableID: "t-add"},
		TableToUpdate:   &TableMetadata{TableID: "t-upd"},
		TableToDelete:   "t-del",
		TabletsToAdd:    []TabletMetadata{{TabletID: "s-add"}},
		TabletsToUpdate: []TabletMetadata{{TabletID: "s-upd"}},
		TabletsToDelete: []string{"s-del"},
	}

	ops, err := buildRowOps(actions)
	require.NoError(t, err)
	require.Len(t, ops, 6)

	want := []struct {
		entryType int8
		entryID   string
		opType    tablet.OpType
	}{
		{tablet.EntryTypeTable, "t-add", tablet.OpInsert},
		{tablet.EntryTypeTable, "t-upd", tablet.OpUpdate},
		{tablet.EntryTypeTable, "t-del", tablet.OpDelete},
		{tablet.EntryTypeTablet, "s-add", tablet.OpInsert},
		{tablet.EntryTypeTablet, "s-upd", tablet.OpUpdate},
		{tablet.EntryTypeTablet, "s-del", tablet.OpDelete},
	}
	for i, w := range want {
		require.Equal(t, w.entryType, ops[i].EntryType, "op %d entry type", i)
		require.Equal(t, w.entryID, ops[i].EntryID, "op %d entry id", i)
		require.Equal(t, w.opType, ops[i].Type, "op %d op type", i)
	}
}

func TestBuildRowOps_EmptyActionsYieldsNoOps(t *testing.T) {
	ops, err := buildRowOps(Actions{})
	require.NoError(t, err)
	require.Empty(t, ops)
}

func TestActions_IsEmpty(t *testing.T) {
	require.True(t, Actions{}.isEmpty())
	require.False(t, Actions{TableToDelete: "x"}.isEmpty())
}
