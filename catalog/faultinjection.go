package catalog

import (
	"math/rand"
	"sync/atomic"

	"github.com/coredb/syscatalog/errors"
)

// failDuringWrite is the process-wide sys_catalog_fail_during_write knob
// (spec.md §6, §9 "Global fault-injection flag"): read on every SyncWrite,
// mutable only from tests, never embedded in any object's state. The pack
// has no gflags equivalent, so this is plain atomic.Value holding a
// float64 — see DESIGN.md.
var failDuringWrite atomic.Value

func init() {
	failDuringWrite.Store(float64(0))
}

// SetFailDuringWrite sets the SyncWrite fault-injection probability in
// [0, 1]. Exported so cmd/syscatalogd can wire it to a startup flag, and
// so tests can exercise the fault-injection path directly.
func SetFailDuringWrite(probability float64) {
	failDuringWrite.Store(probability)
}

func failDuringWriteProbability() float64 {
	return failDuringWrite.Load().(float64)
}

const injectedFailureMessage = "INJECTED FAILURE"

// maybeInjectFailure implements spec.md §4.5's fault hook: with the
// configured probability, fail immediately with a runtime error.
func maybeInjectFailure() error {
	p := failDuringWriteProbability()
	if p <= 0 {
		return nil
	}
	if p >= 1 || rand.Float64() < p {
		return errors.New(errors.RuntimeError, injectedFailureMessage)
	}
	return nil
}
