package protocol

import "context"

// Repository defines read operations for protocols and their events.
// Protocol authoring happens outside this agent, so there are no write
// methods here.
type Repository interface {
	// GetByID returns a protocol with its events loaded.
	GetByID(ctx context.Context, id int64) (*Protocol, error)
	ListAll(ctx context.Context) ([]*Protocol, error)
	GetEvent(ctx context.Context, eventID int64) (*Event, error)
}
