// Package fs implements the "Filesystem/metadata store" collaborator of
// spec.md §6: persistence for the catalog tablet's own tablet metadata and
// consensus metadata, keyed by tablet ID. It is grounded on the
// apply-index/member persistence pattern in the teacher's
// master/base/raftnode.go (loadApplyIdx/persistMembers over a dedicated
// local column family), generalized to the two JSON blobs the catalog
// needs to round-trip bit-exactly per spec.md §6.
package fs

import (
	"context"
	"encoding/json"

	"github.com/coredb/syscatalog/errors"
	"github.com/coredb/syscatalog/kvstore"
)

// LocalCF holds this master's local, non-replicated metadata records:
// tablet metadata and consensus metadata. The raft group's WAL and hard
// state are kept in consensus.RaftWalCF, not here.
const LocalCF kvstore.CF = "local_cf"

var (
	tabletMetadataPrefix    = []byte("tm/")
	consensusMetadataPrefix = []byte("cm/")
)

// TabletMetadata is the on-disk record for the catalog tablet: its schema,
// partition schema, and lifecycle state. Round-trips bit-exactly per
// spec.md §6.
type TabletMetadata struct {
	TabletID        string `json:"tablet_id"`
	SchemaVersion   int    `json:"schema_version"`
	PartitionSchema string `json:"partition_schema"`
	LifecycleState  string `json:"lifecycle_state"`
}

const (
	LifecycleReady     = "READY"
	LifecycleDeleted   = "DELETED"
	LifecycleBootstrap = "BOOTSTRAPPING"
)

// ConsensusMetadata is the on-disk record of the committed quorum and term
// for a tablet, keyed by (tablet ID, this master's UUID).
type ConsensusMetadata struct {
	TabletID  string   `json:"tablet_id"`
	PeerUUID  string   `json:"peer_uuid"`
	Term      uint64   `json:"term"`
	OpIDIndex int64    `json:"opid_index"`
	Local     bool     `json:"local"`
	Peers     []Peer   `json:"peers"`
}

// Peer is one member of a persisted quorum/configuration record.
type Peer struct {
	PermanentUUID string `json:"permanent_uuid"`
	Host          string `json:"host"`
	Port          int    `json:"port"`
	Voter         bool   `json:"voter"`
}

// UnadoptedOpIDIndex is the sentinel OpIDIndex value for a configuration
// that has not yet been committed through consensus.
const UnadoptedOpIDIndex = -1

// MetadataStore is the narrow persistence surface spec.md §6 names:
// load/create for tablet metadata and consensus metadata, with a
// structured not-found status distinguishable from other failures.
type MetadataStore interface {
	LoadTabletMetadata(ctx context.Context, tabletID string) (*TabletMetadata, error)
	CreateTabletMetadata(ctx context.Context, md *TabletMetadata) error

	LoadConsensusMetadata(ctx context.Context, tabletID, peerUUID string) (*ConsensusMetadata, error)
	CreateConsensusMetadata(ctx context.Context, md *ConsensusMetadata) error
}

func NewMetadataStore(kv kvstore.Store) MetadataStore {
	return &metadataStore{kv: kv}
}

type metadataStore struct {
	kv kvstore.Store
}

func (s *metadataStore) LoadTabletMetadata(ctx context.Context, tabletID string) (*TabletMetadata, error) {
	val, err := s.kv.GetRaw(ctx, LocalCF, tabletMetadataKey(tabletID), nil)
	if err == kvstore.ErrNotFound {
		return nil, errors.Newf(errors.NotFound, "tablet metadata for %s not found", tabletID)
	}
	if err != nil {
		return nil, err
	}

	md := &TabletMetadata{}
	if err := json.Unmarshal(val, md); err != nil {
		return nil, errors.Wrap(errors.Corruption, err, "unmarshal tablet metadata")
	}
	return md, nil
}

func (s *metadataStore) CreateTabletMetadata(ctx context.Context, md *TabletMetadata) error {
	val, err := json.Marshal(md)
	if err != nil {
		return err
	}
	return s.kv.SetRaw(ctx, LocalCF, tabletMetadataKey(md.TabletID), val, nil)
}

func (s *metadataStore) LoadConsensusMetadata(ctx context.Context, tabletID, peerUUID string) (*ConsensusMetadata, error) {
	val, err := s.kv.GetRaw(ctx, LocalCF, consensusMetadataKey(tabletID, peerUUID), nil)
	if err == kvstore.ErrNotFound {
		return nil, errors.Newf(errors.NotFound, "consensus metadata for %s/%s not found", tabletID, peerUUID)
	}
	if err != nil {
		return nil, err
	}

	md := &ConsensusMetadata{}
	if err := json.Unmarshal(val, md); err != nil {
		return nil, errors.Wrap(errors.Corruption, err, "unmarshal consensus metadata")
	}
	return md, nil
}

func (s *metadataStore) CreateConsensusMetadata(ctx context.Context, md *ConsensusMetadata) error {
	val, err := json.Marshal(md)
	if err != nil {
		return err
	}
	return s.kv.SetRaw(ctx, LocalCF, consensusMetadataKey(md.TabletID, md.PeerUUID), val, nil)
}

func tabletMetadataKey(tabletID string) []byte {
	return append(append([]byte{}, tabletMetadataPrefix...), tabletID...)
}

func consensusMetadataKey(tabletID, peerUUID string) []byte {
	key := append(append([]byte{}, consensusMetadataPrefix...), tabletID...)
	key = append(key, '/')
	return append(key, peerUUID...)
}
