package protocol

import (
	"database/sql"
)

// Protocol is a reusable treatment plan template composed of ordered
// milestone events. Corresponds to the 'protocols' table.
type Protocol struct {
	ID          int64
	Title       string
	Description sql.NullString
	Events      []*Event
}
