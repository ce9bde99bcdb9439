package event

import "github.com/roctbb/protocol-medsenger-bot/internal/domain/protocol"

// Tally counts classifier outcomes for one group of events.
type Tally struct {
	Total         int `json:"total"`
	Upcoming      int `json:"upcoming"`
	Awaiting      int `json:"awaiting"`
	Completed     int `json:"completed"`
	CompletedLate int `json:"completed_late"`
	Overdue       int `json:"overdue"`
	Skipped       int `json:"skipped"`
}

func (t *Tally) add(base Status) {
	t.Total++
	switch base {
	case StatusPending, StatusInProgress:
		t.Upcoming++
	case StatusAwaitingConfirmation:
		t.Awaiting++
	case StatusCompleted:
		t.Completed++
	case StatusCompletedLate:
		t.CompletedLate++
	case StatusOverdue:
		t.Overdue++
	case StatusSkipped:
		t.Skipped++
	}
}

// Stats aggregates per-event statuses over one enrollment's protocol.
// Mandatory and supplementary events are tallied separately.
type Stats struct {
	Total      int   `json:"total"`
	Required   Tally `json:"required"`
	Additional Tally `json:"additional"`
}

// EventStatus pairs an event with its classified status for folding
// into Stats.
type EventStatus struct {
	Event  *protocol.Event
	Status Status
}

// Summarize folds classifier output over all events of a protocol for
// one enrollment.
func Summarize(rows []EventStatus) Stats {
	var s Stats
	for _, row := range rows {
		s.Total++
		if row.Event.IsRequired {
			s.Required.add(row.Status.Base())
		} else {
			s.Additional.add(row.Status.Base())
		}
	}
	return s
}
