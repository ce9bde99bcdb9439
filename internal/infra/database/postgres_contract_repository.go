package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roctbb/protocol-medsenger-bot/internal/domain/contract"
)

// Custom errors
var ErrContractNotFound = fmt.Errorf("contract not found")
var ErrEnrollmentNotFound = fmt.Errorf("enrollment not found")

type PostgresContractRepository struct {
	db *sql.DB
}

func NewPostgresContractRepository(db *sql.DB) *PostgresContractRepository {
	return &PostgresContractRepository{db: db}
}

func (r *PostgresContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	query := `INSERT INTO contracts (id, active)
               VALUES ($1, $2)
               RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.Active).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating contract: %w", err)
	}
	return nil
}

func (r *PostgresContractRepository) GetByID(ctx context.Context, id int64) (*contract.Contract, error) {
	query := `SELECT id, active, created_at FROM contracts WHERE id = $1`
	c := &contract.Contract{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Active, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("error getting contract by ID: %w", err)
	}
	return c, nil
}

func (r *PostgresContractRepository) Update(ctx context.Context, c *contract.Contract) error {
	query := `UPDATE contracts SET active = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, c.Active, c.ID)
	if err != nil {
		return fmt.Errorf("error updating contract: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking contract update result: %w", err)
	}
	if affected == 0 {
		return ErrContractNotFound
	}
	return nil
}

func scanContracts(rows *sql.Rows) ([]*contract.Contract, error) {
	contracts := make([]*contract.Contract, 0)
	for rows.Next() {
		c := &contract.Contract{}
		if err := rows.Scan(&c.ID, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning contract row: %w", err)
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contract rows: %w", err)
	}
	return contracts, nil
}

func (r *PostgresContractRepository) ListActive(ctx context.Context) ([]*contract.Contract, error) {
	query := `SELECT id, active, created_at FROM contracts WHERE active = TRUE ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing active contracts: %w", err)
	}
	defer rows.Close()
	return scanContracts(rows)
}

func (r *PostgresContractRepository) ListAll(ctx context.Context) ([]*contract.Contract, error) {
	query := `SELECT id, active, created_at FROM contracts ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing all contracts: %w", err)
	}
	defer rows.Close()
	return scanContracts(rows)
}

// --- Enrollment methods ---

func (r *PostgresContractRepository) UpsertEnrollment(ctx context.Context, e *contract.Enrollment) error {
	query := `INSERT INTO contract_protocols (contract_id, protocol_id, start_date)
               VALUES ($1, $2, $3)
               ON CONFLICT (contract_id, protocol_id) DO UPDATE SET start_date = EXCLUDED.start_date`
	_, err := r.db.ExecContext(ctx, query, e.ContractID, e.ProtocolID, e.Start)
	if err != nil {
		return fmt.Errorf("error upserting enrollment: %w", err)
	}
	return nil
}

func (r *PostgresContractRepository) DeleteEnrollment(ctx context.Context, contractID, protocolID int64) error {
	query := `DELETE FROM contract_protocols WHERE contract_id = $1 AND protocol_id = $2`
	_, err := r.db.ExecContext(ctx, query, contractID, protocolID)
	if err != nil {
		return fmt.Errorf("error deleting enrollment: %w", err)
	}
	return nil
}

func (r *PostgresContractRepository) GetEnrollment(ctx context.Context, contractID, protocolID int64) (*contract.Enrollment, error) {
	query := `SELECT contract_id, protocol_id, start_date
               FROM contract_protocols
               WHERE contract_id = $1 AND protocol_id = $2`
	e := &contract.Enrollment{}
	err := r.db.QueryRowContext(ctx, query, contractID, protocolID).Scan(&e.ContractID, &e.ProtocolID, &e.Start)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("error getting enrollment: %w", err)
	}
	return e, nil
}

func (r *PostgresContractRepository) ListEnrollments(ctx context.Context, contractID int64) ([]*contract.Enrollment, error) {
	query := `SELECT contract_id, protocol_id, start_date
               FROM contract_protocols
               WHERE contract_id = $1 ORDER BY protocol_id`
	rows, err := r.db.QueryContext(ctx, query, contractID)
	if err != nil {
		return nil, fmt.Errorf("error listing enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := make([]*contract.Enrollment, 0)
	for rows.Next() {
		e := &contract.Enrollment{}
		if err := rows.Scan(&e.ContractID, &e.ProtocolID, &e.Start); err != nil {
			return nil, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollment rows: %w", err)
	}
	return enrollments, nil
}
