package quorum

import (
	"net"
	"sort"
	"strconv"

	"github.com/coredb/syscatalog/fs"
)

// VerifyAddressesMatch implements sys_catalog.cc Load's verification that
// the statically configured master_addresses still match the peer set
// persisted on disk: their symmetric difference must be empty. A process
// restarted with a different --master_addresses than the one the on-disk
// consensus metadata was created with is refusing to silently diverge the
// cluster's idea of its own membership.
func VerifyAddressesMatch(configured []Address, onDisk []fs.Peer) error {
	fromOpts := make(map[string]struct{}, len(configured))
	for _, a := range configured {
		fromOpts[net.JoinHostPort(a.Host, strconv.Itoa(a.Port))] = struct{}{}
	}

	fromDisk := make(map[string]struct{}, len(onDisk))
	for _, p := range onDisk {
		fromDisk[net.JoinHostPort(p.Host, strconv.Itoa(p.Port))] = struct{}{}
	}

	var symmDiff []string
	for addr := range fromOpts {
		if _, ok := fromDisk[addr]; !ok {
			symmDiff = append(symmDiff, addr)
		}
	}
	for addr := range fromDisk {
		if _, ok := fromOpts[addr]; !ok {
			symmDiff = append(symmDiff, addr)
		}
	}

	if len(symmDiff) > 0 {
		sort.Strings(symmDiff)
		return newAddressMismatchError(symmDiff)
	}
	return nil
}

func newAddressMismatchError(symmDiff []string) error {
	msg := "on-disk and configured master lists are different:"
	for _, addr := range symmDiff {
		msg += " " + addr
	}
	return newInvalidConfigError(msg)
}
