package catalog

import (
	"context"

	"github.com/coredb/syscatalog/errors"
	"github.com/coredb/syscatalog/metrics"
	"github.com/coredb/syscatalog/tablet"
	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/prometheus/client_golang/prometheus"
)

func newWriteTimer() *prometheus.Timer {
	return prometheus.NewTimer(metrics.WriteLatency)
}

// Write implements spec.md §4.5: build the ordered row-operation batch for
// actions and submit it via SyncWrite.
func (c *System) Write(ctx context.Context, actions Actions) error {
	ops, err := buildRowOps(actions)
	if err != nil {
		return err
	}
	return c.SyncWrite(ctx, ops)
}

// buildRowOps encodes actions into tablet.RowOps in the contractual order:
// table add, table update, table delete, tablet adds, tablet updates,
// tablet deletes (spec.md §4.5 step 1, §5 ordering guarantee).
func buildRowOps(actions Actions) ([]tablet.RowOp, error) {
	var ops []tablet.RowOp

	if actions.TableToAdd != nil {
		op, err := encodeTableRow(tablet.OpInsert, *actions.TableToAdd)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if actions.TableToUpdate != nil {
		op, err := encodeTableRow(tablet.OpUpdate, *actions.TableToUpdate)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if actions.TableToDelete != "" {
		ops = append(ops, encodeTableDelete(actions.TableToDelete))
	}
	for _, t := range actions.TabletsToAdd {
		op, err := encodeTabletRow(tablet.OpInsert, t)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	for _, t := range actions.TabletsToUpdate {
		op, err := encodeTabletRow(tablet.OpUpdate, t)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	for _, id := range actions.TabletsToDelete {
		ops = append(ops, encodeTabletDelete(id))
	}
	return ops, nil
}

// SyncWrite implements spec.md §4.5's SyncWrite contract: fault injection,
// blocking submission through consensus (the single-shot latch is the
// consensus.Group.Propose call itself), and the non-rollback per-row-error
// reporting semantics.
func (c *System) SyncWrite(ctx context.Context, ops []tablet.RowOp) error {
	span := trace.SpanFromContextSafe(ctx)
	timer := newWriteTimer()
	defer timer.ObserveDuration()

	if err := maybeInjectFailure(); err != nil {
		metrics.InjectedFailures.Inc()
		return err
	}

	if err := c.writeLimiter.AcquireWrite(); err != nil {
		return errors.Wrap(errors.RuntimeError, err, "write concurrency limit")
	}
	defer c.writeLimiter.ReleaseWrite()

	c.mu.RLock()
	peer := c.peer
	c.mu.RUnlock()
	if peer == nil {
		return errors.New(errors.IllegalState, "catalog tablet not set up")
	}

	resp, err := peer.Propose(ctx, ops)
	if err != nil {
		return err
	}
	if resp.RPCErr != nil {
		return resp.RPCErr
	}
	if len(resp.PerRowErrors) > 0 {
		for _, re := range resp.PerRowErrors {
			span.Errorf("row %d failed to write: %s", re.Index, re.Err)
		}
		return errors.New(errors.Corruption, "One or more rows failed to write")
	}

	metrics.AppliedIndex.Set(float64(peer.AppliedIndex()))
	return nil
}
