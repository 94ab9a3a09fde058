package catalog

import (
	"context"

	"github.com/coredb/syscatalog/errors"
	"github.com/coredb/syscatalog/fs"
	"github.com/coredb/syscatalog/quorum"
	"github.com/cubefs/cubefs/blobstore/common/trace"
)

// CreateNew implements sys_catalog.cc CreateNew / spec.md §4.3: first-time
// initialization of the catalog tablet on this master.
func (c *System) CreateNew(ctx context.Context) error {
	span, ctx := trace.StartSpanFromContext(ctx, "catalog.CreateNew")

	partitions := buildPartitionSchema()
	if len(partitions) != 1 {
		return errors.Newf(errors.RuntimeError, "expected exactly one partition, got %d", len(partitions))
	}

	md := &fs.TabletMetadata{
		TabletID:        TabletID,
		SchemaVersion:   canonicalSchemaVersion,
		PartitionSchema: canonicalPartitionSchema,
		LifecycleState:  fs.LifecycleReady,
	}
	if err := c.metaStore.CreateTabletMetadata(ctx, md); err != nil {
		return errors.Wrap(errors.RuntimeError, err, "persist new tablet metadata")
	}

	var peers []fs.Peer
	if c.isDistributed() {
		d := quorum.NewDiscoverer(c.messenger, TabletID)
		addrs := make([]quorum.Address, len(c.cfg.MasterAddresses))
		copy(addrs, c.cfg.MasterAddresses)
		resolved, err := quorum.BuildInitialConfig(ctx, d, addrs)
		if err != nil {
			return errors.Wrap(errors.RuntimeError, err, "failed to create new distributed raft config")
		}
		peers = resolved
	} else {
		peers = quorum.LocalConfig(c.localUUID)
	}

	cmeta := &fs.ConsensusMetadata{
		TabletID:  TabletID,
		PeerUUID:  c.localUUID,
		Term:      0,
		OpIDIndex: fs.UnadoptedOpIDIndex,
		Local:     !c.isDistributed(),
		Peers:     peers,
	}
	if err := c.metaStore.CreateConsensusMetadata(ctx, cmeta); err != nil {
		return errors.Wrap(errors.RuntimeError, err, "unable to persist consensus metadata for tablet "+TabletID)
	}

	span.Infof("%s created new catalog tablet with %d peers, distributed=%v", c.logPrefix(), len(peers), c.isDistributed())
	return c.setupTablet(ctx, cmeta)
}

// Load implements sys_catalog.cc Load / spec.md §4.3: restart path,
// verifying the on-disk schema and (in distributed mode) the persisted
// quorum against this master's configured peers.
func (c *System) Load(ctx context.Context) error {
	span, ctx := trace.StartSpanFromContext(ctx, "catalog.Load")

	md, err := c.metaStore.LoadTabletMetadata(ctx, TabletID)
	if err != nil {
		return err
	}
	if md.SchemaVersion != canonicalSchemaVersion || md.PartitionSchema != canonicalPartitionSchema {
		return newCorruptionError("unexpected schema on tablet %s (version %d)", TabletID, md.SchemaVersion)
	}

	cmeta, err := c.metaStore.LoadConsensusMetadata(ctx, TabletID, c.localUUID)
	if err != nil {
		return errors.Wrap(errors.RuntimeError, err, "unable to load consensus metadata for tablet "+TabletID)
	}

	if c.isDistributed() {
		span.Infof("%s verifying existing consensus state", c.logPrefix())
		if err := quorum.VerifyPeers(cmeta.Peers); err != nil {
			return err
		}
		if err := quorum.VerifyAddressesMatch(c.cfg.MasterAddresses, cmeta.Peers); err != nil {
			return err
		}
	}

	return c.setupTablet(ctx, cmeta)
}
