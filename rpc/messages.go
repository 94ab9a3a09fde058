package rpc

// GetPermanentUUIDRequest asks a catalog peer listening at an address for
// its durable identity, the UUID a Raft configuration names it by (spec.md
// §3, §4.3's CreateDistributedConfig discovery step; Load does no
// discovery).
type GetPermanentUUIDRequest struct {
	// TabletID scopes the lookup: a process may host more than one tablet
	// in a multi-tablet deployment even though this module only ever
	// stands up one.
	TabletID string `json:"tablet_id"`
}

type GetPermanentUUIDResponse struct {
	PermanentUUID string `json:"permanent_uuid"`
}

const (
	discoveryServiceName   = "syscatalog.Discovery"
	methodGetPermanentUUID = "/" + discoveryServiceName + "/GetPermanentUUID"
)
