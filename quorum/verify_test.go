package quorum

import (
	"testing"

	"github.com/coredb/syscatalog/fs"
	"github.com/stretchr/testify/require"
)

func TestVerifyAddressesMatch_Identical(t *testing.T) {
	configured := []Address{{Host: "a", Port: 1}, {Host: "b", Port: 2}}
	onDisk := []fs.Peer{{Host: "a", Port: 1}, {Host: "b", Port: 2}}
	require.NoError(t, VerifyAddressesMatch(configured, onDisk))
}

func TestVerifyAddressesMatch_Mismatch(t *testing.T) {
	configured := []Address{{Host: "a", Port: 1}, {Host: "c", Port: 3}}
	onDisk := []fs.Peer{{Host: "a", Port: 1}, {Host: "b", Port: 2}}
	err := VerifyAddressesMatch(configured, onDisk)
	require.Error(t, err)
}

func TestVerifyPeers_RejectsUnresolved(t *testing.T) {
	err := VerifyPeers([]fs.Peer{{Host: "a", Port: 1, Voter: true}})
	require.Error(t, err)
}

func TestVerifyPeers_RejectsDuplicateUUID(t *testing.T) {
	peers := []fs.Peer{
		{PermanentUUID: "u1", Host: "a", Port: 1, Voter: true},
		{PermanentUUID: "u1", Host: "b", Port: 2, Voter: true},
	}
	require.Error(t, VerifyPeers(peers))
}

func TestVerifyPeers_RejectsDuplicateAddress(t *testing.T) {
	peers := []fs.Peer{
		{PermanentUUID: "u1", Host: "a", Port: 1, Voter: true},
		{PermanentUUID: "u2", Host: "a", Port: 1, Voter: true},
	}
	require.Error(t, VerifyPeers(peers))
}

func TestVerifyPeers_RejectsNoVoters(t *testing.T) {
	peers := []fs.Peer{{PermanentUUID: "u1", Host: "a", Port: 1, Voter: false}}
	require.Error(t, VerifyPeers(peers))
}

func TestLocalConfig_SingleVoter(t *testing.T) {
	peers := LocalConfig("local-uuid")
	require.Len(t, peers, 1)
	require.True(t, peers[0].Voter)
	require.Equal(t, "local-uuid", peers[0].PermanentUUID)
}
