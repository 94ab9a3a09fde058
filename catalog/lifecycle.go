package catalog

import (
	"sync/atomic"

	"github.com/cubefs/cubefs/blobstore/util/log"
)

// Shutdown implements spec.md §4's lifecycle component: orderly teardown
// of the tablet peer/consensus group and the apply pool. Safe to call even
// if CreateNew/Load never completed.
func (c *System) Shutdown() {
	atomic.StoreInt32(&c.shuttingDown, 1)

	c.mu.Lock()
	group := c.group
	peer := c.peer
	c.group = nil
	c.peer = nil
	c.mu.Unlock()

	if group != nil {
		if err := group.Close(); err != nil {
			log.Errorf("close consensus group: %s", err)
		}
	}
	if peer != nil {
		if err := peer.Close(); err != nil {
			log.Errorf("close tablet peer: %s", err)
		}
	}

	c.applyPool.Shutdown()
}
