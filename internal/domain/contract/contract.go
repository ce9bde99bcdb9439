package contract

import (
	"database/sql"
	"time"
)

// Contract represents a patient-doctor consultation channel the agent
// is attached to. Its identity comes from the Medsenger core; the agent
// only tracks whether the contract is still active.
type Contract struct {
	ID        int64
	Active    bool
	CreatedAt time.Time
}

// Enrollment is a contract's subscription to one protocol, anchored to
// a start date. An enrollment with no start date is inert: no dates can
// be computed for it and no notifications fire. At most one enrollment
// exists per (contract, protocol) pair.
type Enrollment struct {
	ContractID int64
	ProtocolID int64
	Start      sql.NullTime
}

// Anchor returns the start date and whether it is configured.
func (e *Enrollment) Anchor() (time.Time, bool) {
	return e.Start.Time, e.Start.Valid
}
