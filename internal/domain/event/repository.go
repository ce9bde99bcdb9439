package event

import (
	"context"
	"database/sql"
	"time"

	"github.com/roctbb/protocol-medsenger-bot/internal/domain/protocol"
)

// Repository defines persistence operations for event occurrences.
type Repository interface {
	// Create inserts the occurrence row for a newly due milestone.
	// When another writer already created the row for the same
	// (contract, event) pair it fails with a duplicate sentinel error;
	// callers treat that as already-handled.
	Create(ctx context.Context, occ *Occurrence) error

	Get(ctx context.Context, contractID, eventID int64) (*Occurrence, error)
	ListByContract(ctx context.Context, contractID int64) ([]*Occurrence, error)

	// RecordConfirmation atomically sets the role's confirmation date,
	// filled-at timestamp and comment, creating the occurrence row
	// first when it does not exist yet. Only the given role's columns
	// are touched, so concurrent doctor and patient writes never lose
	// each other.
	RecordConfirmation(ctx context.Context, contractID, eventID int64, role protocol.Role, confirmation time.Time, comment sql.NullString) error
}
