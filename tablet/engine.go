// Package tablet is the "underlying tablet engine" collaborator of
// spec.md §6: row storage and iterators behind the catalog tablet (the
// write-ahead log lives in the consensus package), consumed by catalog/
// through the narrow Engine
// interface. It is grounded on the teacher's master/store split between a
// row-oriented kvStore and a raft-dedicated raftStore, and on
// master/raft_impl.go's Snapshot()/ApplySnapshot() wiring for the
// background log-truncation job.
package tablet

import (
	"context"
	"time"
)

// Clock and MemTracker mirror the catalog package's collaborators
// (spec.md §6): tablet accepts them structurally rather than importing
// catalog, so Bootstrap can time the replay scan and account its resident
// footprint against the surrounding master's memory budget, the way
// sys_catalog.cc's tablet bootstrap function takes (metadata, clock,
// mem_tracker, ...) directly.
type Clock interface {
	Now() time.Time
}

type MemTracker interface {
	Consume(bytes int64)
	Release(bytes int64)
}

// OpType is the kind of mutation a single RowOp applies.
type OpType int

const (
	OpInsert OpType = iota
	OpUpdate
	OpDelete
)

// RowOp is one encoded row mutation, as produced by catalog/codec.go and
// consumed by Engine.Submit. EntryType/EntryID form the fixed composite
// key of spec.md §3; Metadata is nil for OpDelete.
type RowOp struct {
	Type      OpType
	EntryType int8
	EntryID   string
	Metadata  []byte
}

// Row is a single decoded catalog row, handed to a visitor in catalog/visit.go.
type Row struct {
	EntryType int8
	EntryID   string
	Metadata  []byte
}

// RowIterator scans rows of one entry_type in key order. Values returned
// by Row() are only valid until the next call to Next or Close.
type RowIterator interface {
	Next() bool
	Row() Row
	Err() error
	Close()
}

// RowError is one row's individual failure inside a Submit batch. The
// catalog's SyncWrite logs these and reports a single aggregate
// corruption error without rolling back the successes, per spec.md §4.5.
type RowError struct {
	Index int
	Err   error
}

// WriteResponse is delivered to a Submit completion callback.
type WriteResponse struct {
	// RPCErr, if non-nil, means the submission as a whole failed (it could
	// not be proposed, e.g. not leader; its payload could not be decoded;
	// or the local batch write failed) and no row was applied.
	RPCErr error
	// PerRowErrors are failures of individual rows within an otherwise
	// successfully replicated batch.
	PerRowErrors []RowError
}

// BootstrapInfo carries whatever state the bootstrap replay produced that
// the consensus engine needs to resume (last log index/term, etc).
// kvEngine.Bootstrap returns it zero-valued, and the catalog's tablet
// wiring does not read it.
type BootstrapInfo struct {
	LastLogIndex uint64
	LastLogTerm  uint64
}

// Engine is the narrow surface the catalog's tablet wiring consumes:
// bootstrap replay, a row iterator factory, and write submission against
// the row store.
type Engine interface {
	// Bootstrap replays any local log against the row store and reports
	// where the consensus engine should resume from. clock and mem are the
	// spec's bootstrap collaborators: clock times the replay scan, mem is
	// charged for whatever the scan finds already resident.
	Bootstrap(ctx context.Context, tabletID string, clock Clock, mem MemTracker) (BootstrapInfo, error)

	// NewRowIterator opens an iterator restricted to rows of the given
	// entry_type, in key order.
	NewRowIterator(entryType int8) (RowIterator, error)

	// Submit applies ops as a single local write and invokes done with the
	// outcome before returning: callers (Peer.Apply) read state the
	// callback set immediately after Submit returns, with no completion
	// barrier of their own, so an implementation that deferred done to
	// another goroutine would race its own caller.
	Submit(ctx context.Context, ops []RowOp, done func(WriteResponse))

	Close() error
}
