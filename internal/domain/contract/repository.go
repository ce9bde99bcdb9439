package contract

import "context"

// Repository defines persistence operations for contracts and their
// protocol enrollments.
type Repository interface {
	Create(ctx context.Context, c *Contract) error
	GetByID(ctx context.Context, id int64) (*Contract, error)
	Update(ctx context.Context, c *Contract) error
	ListActive(ctx context.Context) ([]*Contract, error)
	ListAll(ctx context.Context) ([]*Contract, error)

	// UpsertEnrollment creates the (contract, protocol) subscription or
	// updates its start date when it already exists.
	UpsertEnrollment(ctx context.Context, e *Enrollment) error
	DeleteEnrollment(ctx context.Context, contractID, protocolID int64) error
	GetEnrollment(ctx context.Context, contractID, protocolID int64) (*Enrollment, error)
	ListEnrollments(ctx context.Context, contractID int64) ([]*Enrollment, error)
}
