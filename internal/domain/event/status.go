package event

import (
	"strings"
	"time"

	"github.com/roctbb/protocol-medsenger-bot/internal/domain/protocol"
)

// Status is the lifecycle state of one (contract, event) pair, derived
// from wall-clock dates and recorded confirmations.
type Status string

const (
	// Pre-occurrence states: the milestone has not triggered yet.
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"

	// Post-occurrence states.
	StatusSkipped              Status = "skipped"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusOverdue              Status = "overdue"
	StatusCompleted            Status = "completed"
	StatusCompletedLate        Status = "completed_late"
)

// additionalSuffix marks post-occurrence states of supplementary
// (is_required = false) events, which are tallied apart from mandatory
// ones but follow identical date logic.
const additionalSuffix = "_additional"

func (s Status) Additional() Status {
	return s + additionalSuffix
}

func (s Status) IsAdditional() bool {
	return strings.HasSuffix(string(s), additionalSuffix)
}

// Base strips the supplementary suffix, if any.
func (s Status) Base() Status {
	return Status(strings.TrimSuffix(string(s), additionalSuffix))
}

// Classify maps one (contract, event) pair to its current status.
// sched may be nil when the enrollment has no anchor date; occ is nil
// until the milestone has triggered (or was confirmed manually, which
// creates the occurrence row too).
func Classify(today time.Time, ev *protocol.Event, sched *protocol.Schedule, occ *Occurrence) Status {
	if occ == nil {
		if sched == nil || today.Before(sched.Start) {
			return StatusPending
		}
		return StatusInProgress
	}

	var st Status
	switch {
	case !ev.RequiresConfirmation():
		st = StatusSkipped
	case confirmationsSatisfied(ev, occ):
		if onTime(sched, occ) {
			st = StatusCompleted
		} else {
			st = StatusCompletedLate
		}
	default:
		if sched != nil && sched.End != nil && today.Before(*sched.End) {
			st = StatusAwaitingConfirmation
		} else {
			st = StatusOverdue
		}
	}

	if !ev.IsRequired {
		st = st.Additional()
	}
	return st
}

// confirmationsSatisfied reports whether every role that must confirm
// has a recorded confirmation date.
func confirmationsSatisfied(ev *protocol.Event, occ *Occurrence) bool {
	for _, r := range protocol.Roles {
		if ev.NeedsConfirmation(r) && !occ.Confirmation(r).Valid {
			return false
		}
	}
	return true
}

// onTime reports whether every present confirmation date is strictly
// before the end date. A confirmation on the end date itself counts as
// late; without an end date everything is on time.
func onTime(sched *protocol.Schedule, occ *Occurrence) bool {
	if sched == nil || sched.End == nil {
		return true
	}
	for _, r := range protocol.Roles {
		if c := occ.Confirmation(r); c.Valid && !c.Time.Before(*sched.End) {
			return false
		}
	}
	return true
}
