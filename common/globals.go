package common

// Sync status of a persisted record. OFFLINE and ONLINE_FAILURE rows are
// still waiting for a successful portal fetch; ONLINE is terminal and a
// record never transitions backward from it.
const (
	StatusOffline       = "OFFLINE"
	StatusOnlineFailure = "ONLINE_FAILURE"
	StatusOnline        = "ONLINE"
)
