package catalog

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/coredb/syscatalog/consensus"
	"github.com/coredb/syscatalog/fs"
	"github.com/coredb/syscatalog/kvstore"
	"github.com/coredb/syscatalog/quorum"
	"github.com/coredb/syscatalog/rpc"
	"github.com/coredb/syscatalog/tablet"
	"github.com/coredb/syscatalog/util/limiter"
)

// Config wires System to its collaborators and startup options, the Go
// equivalent of the master's MasterOptions/FsManager pair sys_catalog.cc
// threads through CreateNew/Load.
type Config struct {
	// LocalUUID is this master's permanent UUID, derived from the
	// filesystem UUID (spec.md §3 "Local Peer Identity").
	LocalUUID string
	// LocalAddr is this master's primary RPC address.
	LocalAddr quorum.Address
	// MasterAddresses is the configured peer list (spec.md §6). Empty
	// means non-distributed (local, single-node) mode.
	MasterAddresses []quorum.Address

	Messenger     rpc.Messenger
	Transport     consensus.Transport
	Clock         Clock
	MemTracker    MemTracker
	Maintenance   MaintenanceManager
	ElectedLeader ElectedLeaderCallback

	TickInterval  time.Duration
	TruncateEvery uint64

	// WriteConcurrency caps the number of SyncWrite calls in flight at
	// once, 0 means unlimited.
	WriteConcurrency uint32
}

// System is the catalog of spec.md §1: the assembled, consensus-hosted
// catalog tablet plus the synchronous write/visit surface the surrounding
// master drives it through.
type System struct {
	cfg        Config
	clock      Clock
	maint      MaintenanceManager
	memTracker MemTracker
	messenger  rpc.Messenger

	metaStore fs.MetadataStore
	kv        kvstore.Store
	engine    tablet.Engine

	applyPool    *applyPool
	writeLimiter limiter.Limiter

	localUUID string

	mu    sync.RWMutex
	peer  *tablet.Peer
	group *consensus.Group

	shuttingDown int32
}

// New constructs a System and its apply pool, independent of CreateNew/Load
// (SPEC_FULL.md §5.2). The returned System is not yet hosting the catalog
// tablet; call CreateNew or Load before Write/VisitTables/WaitUntilRunning.
func New(cfg Config, kv kvstore.Store, engine tablet.Engine) *System {
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	maint := cfg.Maintenance
	if maint == nil {
		maint = noopMaintenanceManager{}
	}
	memTracker := cfg.MemTracker
	if memTracker == nil {
		memTracker = noopMemTracker{}
	}

	return &System{
		cfg:          cfg,
		clock:        clock,
		maint:        maint,
		memTracker:   memTracker,
		messenger:    cfg.Messenger,
		metaStore:    fs.NewMetadataStore(kv),
		kv:           kv,
		engine:       engine,
		applyPool:    newApplyPool(),
		writeLimiter: limiter.NewLimiter(limiter.LimitConfig{WriteConcurrency: int(cfg.WriteConcurrency)}),
		localUUID:    cfg.LocalUUID,
	}
}

func (c *System) isDistributed() bool {
	return len(c.cfg.MasterAddresses) > 0
}

func (c *System) isShuttingDown() bool {
	return atomic.LoadInt32(&c.shuttingDown) != 0
}
