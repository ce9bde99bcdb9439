package event

import (
	"database/sql"
	"time"

	"github.com/roctbb/protocol-medsenger-bot/internal/domain/protocol"
)

// Occurrence is the per-(contract, event) record created the moment a
// milestone becomes due. Its (ContractID, EventID) pair is the
// idempotency key that prevents duplicate notifications, and it stores
// both roles' confirmations afterwards. Corresponds to the
// 'event_results' table.
type Occurrence struct {
	ContractID int64
	EventID    int64

	DoctorConfirmation  sql.NullTime
	PatientConfirmation sql.NullTime

	// FilledAt timestamps record when a confirmation was actually
	// submitted, distinct from the effective confirmation date above.
	DoctorFilledAt  sql.NullTime
	PatientFilledAt sql.NullTime

	DoctorComment  sql.NullString
	PatientComment sql.NullString

	CreatedAt time.Time
}

func (o *Occurrence) Confirmation(r protocol.Role) sql.NullTime {
	if r == protocol.RoleDoctor {
		return o.DoctorConfirmation
	}
	return o.PatientConfirmation
}

func (o *Occurrence) Comment(r protocol.Role) sql.NullString {
	if r == protocol.RoleDoctor {
		return o.DoctorComment
	}
	return o.PatientComment
}
