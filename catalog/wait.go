package catalog

import (
	"context"
	"time"

	"github.com/coredb/syscatalog/consensus"
	"github.com/coredb/syscatalog/errors"
	"github.com/cubefs/cubefs/blobstore/common/trace"
)

// WaitUntilRunning implements spec.md §4.8: polls the tablet peer's
// "consensus running" condition with a one-second budget per poll,
// retrying timed-out polls indefinitely and logging cumulative wait time.
// No overall deadline is imposed; the caller bounds it via ctx.
func (c *System) WaitUntilRunning(ctx context.Context) error {
	span := trace.SpanFromContextSafe(ctx)

	c.mu.RLock()
	peer := c.peer
	c.mu.RUnlock()
	if peer == nil {
		return errors.New(errors.IllegalState, "catalog tablet not set up")
	}

	var waited time.Duration
	for {
		err := peer.WaitUntilConsensusRunning(time.Second)
		if err == nil {
			return nil
		}
		if err != consensus.ErrGroupNotRunning {
			return err
		}

		waited += time.Second
		span.Infof("waiting for consensus to start running (%s elapsed)", waited)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}
