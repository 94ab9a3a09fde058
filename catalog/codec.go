package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/coredb/syscatalog/errors"
	"github.com/coredb/syscatalog/tablet"
)

// encodeTableRow builds the tablet.RowOp for inserting/updating a table,
// per spec.md §4.1 "Encode insert/update of a table".
func encodeTableRow(op tablet.OpType, meta TableMetadata) (tablet.RowOp, error) {
	row := tablet.RowOp{Type: op, EntryType: tablet.EntryTypeTable, EntryID: meta.TableID}
	if op != tablet.OpDelete {
		data, err := json.Marshal(meta)
		if err != nil {
			return tablet.RowOp{}, errors.Wrap(errors.Corruption, err, "marshal table metadata "+meta.TableID)
		}
		row.Metadata = data
	}
	return row, nil
}

func encodeTableDelete(tableID string) tablet.RowOp {
	return tablet.RowOp{Type: tablet.OpDelete, EntryType: tablet.EntryTypeTable, EntryID: tableID}
}

// encodeTabletRow builds the tablet.RowOp for inserting/updating a tablet.
func encodeTabletRow(op tablet.OpType, meta TabletMetadata) (tablet.RowOp, error) {
	row := tablet.RowOp{Type: op, EntryType: tablet.EntryTypeTablet, EntryID: meta.TabletID}
	if op != tablet.OpDelete {
		data, err := json.Marshal(meta)
		if err != nil {
			return tablet.RowOp{}, errors.Wrap(errors.Corruption, err, "marshal tablet metadata "+meta.TabletID)
		}
		row.Metadata = data
	}
	return row, nil
}

func encodeTabletDelete(tabletID string) tablet.RowOp {
	return tablet.RowOp{Type: tablet.OpDelete, EntryType: tablet.EntryTypeTablet, EntryID: tabletID}
}

// decodeTableRow implements spec.md §4.1 "Decode table row".
func decodeTableRow(row tablet.Row) (TableMetadata, error) {
	var meta TableMetadata
	if err := json.Unmarshal(row.Metadata, &meta); err != nil {
		return TableMetadata{}, errors.Wrap(errors.Corruption,
			err, fmt.Sprintf("decode table row %s", row.EntryID))
	}
	return meta, nil
}

// decodeTabletRow implements spec.md §4.1 "Decode tablet row", including the
// deprecated start/end key migration.
func decodeTabletRow(row tablet.Row) (TabletMetadata, error) {
	var meta TabletMetadata
	if err := json.Unmarshal(row.Metadata, &meta); err != nil {
		return TabletMetadata{}, errors.Wrap(errors.Corruption,
			err, fmt.Sprintf("decode tablet row %s", row.EntryID))
	}
	meta.migrateDeprecatedPartition()
	return meta, nil
}
