package catalog

import (
	"fmt"
	"time"
)

// logPrefix mirrors sys_catalog.cc's LogPrefix(): it names the tablet and
// peer a line came from. It is prepended to the CreateNew, Load and
// onStateChange trace lines; other catalog log lines carry no prefix.
func (c *System) logPrefix() string {
	return fmt.Sprintf("T %s P %s:", TabletID, c.localUUID)
}

// Clock is the opaque clock collaborator of spec.md §6. The core never
// reads wall-clock time itself outside of what this interface exposes.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// MemTracker is the opaque memory-tracking collaborator of spec.md §6,
// threaded through tablet bootstrap/Init so a real tablet engine can
// account for the catalog's memory footprint against a shared budget.
// The core only ever passes it through; it never inspects usage itself.
type MemTracker interface {
	Consume(bytes int64)
	Release(bytes int64)
}

type noopMemTracker struct{}

func (noopMemTracker) Consume(int64) {}
func (noopMemTracker) Release(int64) {}

// MaintenanceManager is the opaque collaborator SetupTablet registers
// background maintenance operations with (SPEC_FULL.md §5.3,
// sys_catalog.cc SetupTablet's RegisterMaintenanceOps). Kept narrow
// because a real maintenance-manager implementation is out of scope.
type MaintenanceManager interface {
	RegisterOp(name string, run func())
}

type noopMaintenanceManager struct{}

func (noopMaintenanceManager) RegisterOp(string, func()) {}

// ElectedLeaderCallback is invoked exactly when this master becomes the
// catalog tablet's leader (spec.md §4.6, GLOSSARY).
type ElectedLeaderCallback func() error
