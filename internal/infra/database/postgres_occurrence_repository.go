package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roctbb/protocol-medsenger-bot/internal/domain/event"
	"github.com/roctbb/protocol-medsenger-bot/internal/domain/protocol"
)

// Custom errors
var ErrOccurrenceNotFound = fmt.Errorf("event occurrence not found")
var ErrDuplicateOccurrence = fmt.Errorf("duplicate event occurrence (contract_id, event_id)")

const occurrenceColumns = `contract_id, event_id,
               doctor_confirmation, patient_confirmation,
               doctor_confirmation_filled, patient_confirmation_filled,
               doctor_comment, patient_comment, created_at`

type PostgresOccurrenceRepository struct {
	db *sql.DB
}

func NewPostgresOccurrenceRepository(db *sql.DB) *PostgresOccurrenceRepository {
	return &PostgresOccurrenceRepository{db: db}
}

// Create relies on the (contract_id, event_id) primary key: when the
// row already exists DO NOTHING makes the statement return no rows and
// the caller gets ErrDuplicateOccurrence. Exactly one of any number of
// concurrent creators wins.
func (r *PostgresOccurrenceRepository) Create(ctx context.Context, occ *event.Occurrence) error {
	query := `INSERT INTO event_results (contract_id, event_id)
               VALUES ($1, $2)
               ON CONFLICT (contract_id, event_id) DO NOTHING
               RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, occ.ContractID, occ.EventID).Scan(&occ.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrDuplicateOccurrence
		}
		return fmt.Errorf("error creating event occurrence: %w", err)
	}
	return nil
}

func scanOccurrence(row interface{ Scan(...any) error }) (*event.Occurrence, error) {
	o := &event.Occurrence{}
	err := row.Scan(
		&o.ContractID, &o.EventID,
		&o.DoctorConfirmation, &o.PatientConfirmation,
		&o.DoctorFilledAt, &o.PatientFilledAt,
		&o.DoctorComment, &o.PatientComment, &o.CreatedAt,
	)
	return o, err
}

func (r *PostgresOccurrenceRepository) Get(ctx context.Context, contractID, eventID int64) (*event.Occurrence, error) {
	query := `SELECT ` + occurrenceColumns + ` FROM event_results WHERE contract_id = $1 AND event_id = $2`
	o, err := scanOccurrence(r.db.QueryRowContext(ctx, query, contractID, eventID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOccurrenceNotFound
		}
		return nil, fmt.Errorf("error getting event occurrence: %w", err)
	}
	return o, nil
}

func (r *PostgresOccurrenceRepository) ListByContract(ctx context.Context, contractID int64) ([]*event.Occurrence, error) {
	query := `SELECT ` + occurrenceColumns + ` FROM event_results WHERE contract_id = $1 ORDER BY event_id`
	rows, err := r.db.QueryContext(ctx, query, contractID)
	if err != nil {
		return nil, fmt.Errorf("error listing event occurrences: %w", err)
	}
	defer rows.Close()

	occurrences := make([]*event.Occurrence, 0)
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning event occurrence row: %w", err)
		}
		occurrences = append(occurrences, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event occurrence rows: %w", err)
	}
	return occurrences, nil
}

// RecordConfirmation upserts in a single statement so the mutation is
// atomic and covers the manual-confirmation-before-dispatch case. The
// role picks which column triple is written; the other role's columns
// stay untouched.
func (r *PostgresOccurrenceRepository) RecordConfirmation(ctx context.Context, contractID, eventID int64, role protocol.Role, confirmation time.Time, comment sql.NullString) error {
	query := fmt.Sprintf(`INSERT INTO event_results (contract_id, event_id, %[1]s_confirmation, %[1]s_confirmation_filled, %[1]s_comment)
               VALUES ($1, $2, $3, NOW(), $4)
               ON CONFLICT (contract_id, event_id) DO UPDATE
               SET %[1]s_confirmation = EXCLUDED.%[1]s_confirmation,
                   %[1]s_confirmation_filled = NOW(),
                   %[1]s_comment = EXCLUDED.%[1]s_comment`, role)
	_, err := r.db.ExecContext(ctx, query, contractID, eventID, confirmation, comment)
	if err != nil {
		return fmt.Errorf("error recording %s confirmation: %w", role, err)
	}
	return nil
}
