package catalog

import (
	"context"
	"hash/fnv"
	"net"
	"strconv"

	"github.com/coredb/syscatalog/consensus"
	"github.com/coredb/syscatalog/errors"
	"github.com/coredb/syscatalog/fs"
	"github.com/coredb/syscatalog/tablet"
	"github.com/cubefs/cubefs/blobstore/common/trace"
)

// setupTablet implements spec.md §4.4: stand up the catalog tablet peer,
// replay its local log, initialize it, start consensus, and register
// maintenance operations. Grounded on sys_catalog.cc SetupTablet and the
// teacher's master/raft_impl.go wiring of appliers into a raft group.
func (c *System) setupTablet(ctx context.Context, cmeta *fs.ConsensusMetadata) error {
	span := trace.SpanFromContextSafe(ctx)

	// Step 1: local peer identity is already resolved in c.localUUID /
	// c.cfg.LocalAddr by New.

	// Step 2-3: construct the tablet peer and run the engine's bootstrap
	// scan. The peer has no bootstrapping state; nothing is marked before
	// or during the scan.
	peer := tablet.NewPeer(TabletID, c.engine, c.cfg.TruncateEvery, c.applyPool)
	if _, err := c.engine.Bootstrap(ctx, TabletID, c.clock, c.memTracker); err != nil {
		return errors.Wrap(errors.RuntimeError, err, "bootstrap tablet engine")
	}

	members := make([]consensus.Member, 0, len(cmeta.Peers))
	for _, p := range cmeta.Peers {
		members = append(members, consensus.Member{
			NodeID:        nodeIDFromUUID(p.PermanentUUID),
			Host:          net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
			PermanentUUID: p.PermanentUUID,
			Learner:       !p.Voter,
		})
	}

	group, err := consensus.NewGroup(consensus.Config{
		GroupID:       1,
		NodeID:        nodeIDFromUUID(c.localUUID),
		TabletID:      TabletID,
		Members:       members,
		Storage:       consensus.NewKVStorage(c.kv),
		StateMachine:  peer,
		Transport:     c.cfg.Transport,
		TickInterval:  c.cfg.TickInterval,
		OnStateChange: c.onStateChange,
	})
	if err != nil {
		return errors.Wrap(errors.RuntimeError, err, "start consensus group")
	}
	peer.Bind(group)

	if pu, ok := c.cfg.Transport.(interface {
		UpdatePeers(members []consensus.Member)
	}); ok {
		pu.UpdatePeers(members)
	}

	// Step 5: register maintenance ops. catalog-truncate runs the same
	// WAL-truncation pass as the peer's background ticker (tablet.Peer's
	// truncateLoop), so an externally triggered maintenance cycle can
	// reclaim log space without waiting for the next tick.
	c.maint.RegisterOp("catalog-truncate", func() {
		peer.TryTruncate(context.Background())
	})

	c.mu.Lock()
	c.peer = peer
	c.group = group
	c.mu.Unlock()

	span.Infof("catalog tablet %s set up with %d members", TabletID, len(members))
	return nil
}

// nodeIDFromUUID derives a raft node id from a permanent UUID. Raft node
// ids must be stable, non-zero uint64s; hashing the UUID string avoids
// needing an extra sequential-id allocator the pack does not provide one
// for (see DESIGN.md).
func nodeIDFromUUID(uuid string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(uuid))
	id := h.Sum64()
	if id == 0 {
		id = 1
	}
	return id
}
