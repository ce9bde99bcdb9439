package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roctbb/protocol-medsenger-bot/internal/domain/protocol"
)

// Custom errors
var ErrProtocolNotFound = fmt.Errorf("protocol not found")
var ErrEventNotFound = fmt.Errorf("event not found")

const eventColumns = `id, protocol_id, patient_title, patient_description, doctor_title, doctor_description,
               start_day, end_day, notification_day,
               notify_doctor, notify_patient,
               need_confirmation_doctor, need_confirmation_patient,
               need_comment_doctor, need_comment_patient, is_required`

type PostgresProtocolRepository struct {
	db *sql.DB
}

func NewPostgresProtocolRepository(db *sql.DB) *PostgresProtocolRepository {
	return &PostgresProtocolRepository{db: db}
}

func scanEvent(row interface{ Scan(...any) error }) (*protocol.Event, error) {
	e := &protocol.Event{}
	err := row.Scan(
		&e.ID, &e.ProtocolID, &e.PatientTitle, &e.PatientBody, &e.DoctorTitle, &e.DoctorBody,
		&e.StartDay, &e.EndDay, &e.NotificationDay,
		&e.NotifyDoctor, &e.NotifyPatient,
		&e.NeedConfirmationDoctor, &e.NeedConfirmationPatient,
		&e.NeedCommentDoctor, &e.NeedCommentPatient, &e.IsRequired,
	)
	return e, err
}

func (r *PostgresProtocolRepository) GetByID(ctx context.Context, id int64) (*protocol.Protocol, error) {
	query := `SELECT id, title, description FROM protocols WHERE id = $1`
	p := &protocol.Protocol{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Title, &p.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProtocolNotFound
		}
		return nil, fmt.Errorf("error getting protocol by ID: %w", err)
	}

	events, err := r.listEvents(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Events = events
	return p, nil
}

func (r *PostgresProtocolRepository) listEvents(ctx context.Context, protocolID int64) ([]*protocol.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE protocol_id = $1 ORDER BY start_day, id`
	rows, err := r.db.QueryContext(ctx, query, protocolID)
	if err != nil {
		return nil, fmt.Errorf("error listing protocol events: %w", err)
	}
	defer rows.Close()

	events := make([]*protocol.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

func (r *PostgresProtocolRepository) ListAll(ctx context.Context) ([]*protocol.Protocol, error) {
	query := `SELECT id, title, description FROM protocols ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing protocols: %w", err)
	}
	defer rows.Close()

	protocols := make([]*protocol.Protocol, 0)
	for rows.Next() {
		p := &protocol.Protocol{}
		if err := rows.Scan(&p.ID, &p.Title, &p.Description); err != nil {
			return nil, fmt.Errorf("error scanning protocol row: %w", err)
		}
		protocols = append(protocols, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating protocol rows: %w", err)
	}
	return protocols, nil
}

func (r *PostgresProtocolRepository) GetEvent(ctx context.Context, eventID int64) (*protocol.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.db.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("error getting event by ID: %w", err)
	}
	return e, nil
}
