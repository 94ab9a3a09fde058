package consensus

import "errors"

var (
	errShortProposal    = errors.New("consensus: truncated proposal entry")
	ErrGroupNotRunning  = errors.New("consensus: group is not running")
	ErrSnapshotNotFound = errors.New("consensus: snapshot not found")
	ErrNotLeader        = errors.New("consensus: node is not the group leader")
)
