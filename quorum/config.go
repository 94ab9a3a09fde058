package quorum

import (
	"context"
	"net"
	"strconv"

	"github.com/coredb/syscatalog/fs"
)

// Address is one configured master address, parsed from the process's
// --master_addresses-equivalent config option before UUIDs are known.
type Address struct {
	Host string
	Port int
}

// BuildInitialConfig is the Go counterpart of
// SysCatalogTable::CreateDistributedConfig: given the statically configured
// set of peer addresses, it resolves each one's permanent UUID over the
// network and returns the fully resolved peer list a new consensus metadata
// file can be created with.
func BuildInitialConfig(ctx context.Context, d Discoverer, addrs []Address) ([]fs.Peer, error) {
	peers := make([]fs.Peer, len(addrs))
	for i, a := range addrs {
		peers[i] = fs.Peer{Host: a.Host, Port: a.Port, Voter: true}
	}

	resolved, err := ResolveAll(ctx, d, peers)
	if err != nil {
		return nil, err
	}
	if err := VerifyPeers(resolved); err != nil {
		return nil, err
	}
	return resolved, nil
}

// LocalConfig builds the single-peer, non-distributed configuration used
// when the process is not running with peer master_addresses configured
// at all (spec.md §4.3's CreateNew local-mode branch).
func LocalConfig(localUUID string) []fs.Peer {
	return []fs.Peer{{PermanentUUID: localUUID, Voter: true}}
}

// VerifyPeers implements spec.md §4.2's structural verification of a
// resolved peer list: every peer must have a resolved permanent UUID, no
// UUID or address may repeat, and at least one peer must be a voter. Both
// CreateDistributedConfig (via BuildInitialConfig) and Load run it against
// the peer set they end up with.
func VerifyPeers(peers []fs.Peer) error {
	seenUUIDs := make(map[string]struct{}, len(peers))
	seenAddrs := make(map[string]struct{}, len(peers))
	voters := 0
	for _, p := range peers {
		if p.PermanentUUID == "" {
			return newInvalidConfigError("peer %s:%d has no resolved permanent_uuid", p.Host, p.Port)
		}
		if _, dup := seenUUIDs[p.PermanentUUID]; dup {
			return newInvalidConfigError("duplicate permanent_uuid %s in configuration", p.PermanentUUID)
		}
		seenUUIDs[p.PermanentUUID] = struct{}{}

		addr := net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
		if _, dup := seenAddrs[addr]; dup {
			return newInvalidConfigError("duplicate address %s in configuration", addr)
		}
		seenAddrs[addr] = struct{}{}

		if p.Voter {
			voters++
		}
	}
	if voters == 0 {
		return newInvalidConfigError("configuration has no voters")
	}
	return nil
}
