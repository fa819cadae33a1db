package models

import "time"

// LivenessRecord is the per-user presence document written by client
// heartbeats. LastSeen is assigned by the server on every write; ClientTime
// is the client's wall clock in milliseconds and is advisory only.
// LastHeartbeat == 0 marks an explicit offline write and overrides Online.
type LivenessRecord struct {
	UserID        int64     `json:"user_id"`
	Online        bool      `json:"online"`
	LastSeen      time.Time `json:"last_seen"`
	ClientTime    int64     `json:"client_time"`
	LastHeartbeat int64     `json:"last_heartbeat"`
}
