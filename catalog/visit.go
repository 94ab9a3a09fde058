package catalog

import (
	"github.com/coredb/syscatalog/errors"
	"github.com/coredb/syscatalog/tablet"
)

// TableVisitor is invoked once per table row by VisitTables.
type TableVisitor func(meta TableMetadata) error

// TabletVisitor is invoked once per tablet row by VisitTablets.
type TabletVisitor func(meta TabletMetadata) error

// VisitTables implements spec.md §4.7 for TABLE rows: a prefix scan over
// entry_type=TABLE, decoding and invoking visitor for each row in key
// order, stopping immediately on the first visitor error.
func (c *System) VisitTables(visitor TableVisitor) error {
	c.mu.RLock()
	peer := c.peer
	c.mu.RUnlock()
	if peer == nil {
		return errors.New(errors.IllegalState, "catalog tablet not set up")
	}

	iter, err := c.engine.NewRowIterator(tablet.EntryTypeTable)
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.Next() {
		meta, err := decodeTableRow(iter.Row())
		if err != nil {
			return err
		}
		if err := visitor(meta); err != nil {
			return err
		}
	}
	return iter.Err()
}

// VisitTablets implements spec.md §4.7 for TABLET rows, including the
// deprecated-partition migration of §4.1.
func (c *System) VisitTablets(visitor TabletVisitor) error {
	c.mu.RLock()
	peer := c.peer
	c.mu.RUnlock()
	if peer == nil {
		return errors.New(errors.IllegalState, "catalog tablet not set up")
	}

	iter, err := c.engine.NewRowIterator(tablet.EntryTypeTablet)
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.Next() {
		meta, err := decodeTabletRow(iter.Row())
		if err != nil {
			return err
		}
		if err := visitor(meta); err != nil {
			return err
		}
	}
	return iter.Err()
}
