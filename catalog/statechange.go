package catalog

import (
	"context"

	"github.com/coredb/syscatalog/consensus"
	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/cubefs/cubefs/blobstore/util/log"
)

// onStateChange implements spec.md §4.6: invoked by the consensus engine
// whenever the catalog tablet's consensus state changes.
func (c *System) onStateChange(tabletID string, reason string) {
	span, ctx := trace.StartSpanFromContext(context.Background(), "catalog.onStateChange")

	if tabletID != TabletID {
		log.Fatalf("state change notification for unknown tablet %s (expected %s)", tabletID, TabletID)
		return
	}

	c.mu.RLock()
	group := c.group
	c.mu.RUnlock()
	if group == nil || !group.ConsensusState(consensus.StateRunning) {
		span.Warnf("%s received notification of tablet state change but tablet no longer running. "+
			"Tablet ID: %s. Reason: %s", c.logPrefix(), tabletID, reason)
		return
	}

	stat := group.Stat()
	if stat.Leader != stat.NodeID {
		return
	}

	if c.cfg.ElectedLeader == nil {
		return
	}
	if err := c.cfg.ElectedLeader(); err != nil {
		if c.isShuttingDown() {
			span.Warnf("elected-leader callback failed during shutdown: %s", err)
			return
		}
		log.Fatalf("elected-leader callback failed: %s", err)
	}
}
