// Package quorum builds and verifies the Raft peer configuration of the
// system catalog tablet, the Go counterpart of sys_catalog.cc's
// CreateDistributedConfig and the master-address verification step of Load.
package quorum

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/coredb/syscatalog/fs"
	"github.com/coredb/syscatalog/rpc"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Discoverer resolves the permanent UUID a remote catalog peer identifies
// itself by, mirroring consensus::SetPermanentUuidForRemotePeer.
type Discoverer interface {
	Resolve(ctx context.Context, host string, port int) (string, error)
}

type rpcDiscoverer struct {
	messenger rpc.Messenger
	tabletID  string
	group     singleflight.Group
}

// NewDiscoverer builds a Discoverer that dials peers through messenger.
// Concurrent resolutions of the same address are collapsed with a
// singleflight.Group so CreateDistributedConfig's fan-out over N peers never
// opens more than one connection per address, no matter how many goroutines
// ask for it at once.
func NewDiscoverer(messenger rpc.Messenger, tabletID string) Discoverer {
	return &rpcDiscoverer{messenger: messenger, tabletID: tabletID}
}

func (d *rpcDiscoverer) Resolve(ctx context.Context, host string, port int) (string, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	v, err, _ := d.group.Do(addr, func() (interface{}, error) {
		client, err := d.messenger.Get(ctx, addr)
		if err != nil {
			return "", fmt.Errorf("dial %s: %w", addr, err)
		}
		uuid, err := client.GetPermanentUUID(ctx, d.tabletID)
		if err != nil {
			return "", fmt.Errorf("resolve permanent uuid of %s: %w", addr, err)
		}
		return uuid, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ResolveAll resolves every unresolved peer in peers concurrently, per
// CreateDistributedConfig's "Now resolve UUIDs" loop. Peers that already
// carry a PermanentUUID are left untouched.
func ResolveAll(ctx context.Context, d Discoverer, peers []fs.Peer) ([]fs.Peer, error) {
	resolved := make([]fs.Peer, len(peers))
	copy(resolved, peers)

	g, gctx := errgroup.WithContext(ctx)
	for i := range resolved {
		if resolved[i].PermanentUUID != "" {
			continue
		}
		i := i
		g.Go(func() error {
			uuid, err := d.Resolve(gctx, resolved[i].Host, resolved[i].Port)
			if err != nil {
				return err
			}
			resolved[i].PermanentUUID = uuid
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}
