package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roctbb/protocol-medsenger-bot/internal/domain/contract"
	"github.com/roctbb/protocol-medsenger-bot/internal/domain/event"
	"github.com/roctbb/protocol-medsenger-bot/internal/domain/protocol"
	idb "github.com/roctbb/protocol-medsenger-bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for confirmation handling
var ErrInvalidDate = fmt.Errorf("confirmation date must be a valid YYYY-MM-DD date")
var ErrEventNotSubscribed = fmt.Errorf("event does not belong to a protocol this contract is subscribed to")

const confirmationDateLayout = "2006-01-02"

// ConfirmationService validates and persists doctor/patient
// confirmations for one event instance.
type ConfirmationService struct {
	contractRepo   contract.Repository
	protocolRepo   protocol.Repository
	occurrenceRepo event.Repository
	logger         *logrus.Logger
	now            func() time.Time
}

func NewConfirmationService(
	cr contract.Repository,
	pr protocol.Repository,
	or event.Repository,
	logger *logrus.Logger,
) *ConfirmationService {
	return &ConfirmationService{
		contractRepo:   cr,
		protocolRepo:   pr,
		occurrenceRepo: or,
		logger:         logger,
		now:            time.Now,
	}
}

// resolve checks the preconditions shared by every confirmation
// operation: the contract exists, the event exists, and the contract is
// still subscribed to the event's protocol (the protocol may have been
// cancelled by the doctor since the notification went out).
func (s *ConfirmationService) resolve(ctx context.Context, contractID, eventID int64) (*protocol.Event, error) {
	if _, err := s.contractRepo.GetByID(ctx, contractID); err != nil {
		return nil, err
	}

	ev, err := s.protocolRepo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if _, err := s.contractRepo.GetEnrollment(ctx, contractID, ev.ProtocolID); err != nil {
		if errors.Is(err, idb.ErrEnrollmentNotFound) {
			return nil, ErrEventNotSubscribed
		}
		return nil, err
	}
	return ev, nil
}

// Record persists a submitted confirmation. The date must parse as
// YYYY-MM-DD; on a validation error nothing is mutated and the caller
// surfaces a fix-and-resubmit response. The occurrence row is created
// on the fly when the milestone was confirmed before it ever triggered.
func (s *ConfirmationService) Record(ctx context.Context, role protocol.Role, contractID, eventID int64, date, comment string) error {
	_, err := s.resolve(ctx, contractID, eventID)
	if err != nil {
		return err
	}

	confirmation, err := time.Parse(confirmationDateLayout, date)
	if err != nil {
		return ErrInvalidDate
	}

	var nullComment sql.NullString
	if comment != "" {
		nullComment = sql.NullString{String: comment, Valid: true}
	}

	if err := s.occurrenceRepo.RecordConfirmation(ctx, contractID, eventID, role, confirmation, nullComment); err != nil {
		return fmt.Errorf("failed to record %s confirmation for contract %d, event %d: %w", role, contractID, eventID, err)
	}
	s.logger.Infof("Recorded %s confirmation for contract %d, event %d (date %s)", role, contractID, eventID, date)
	return nil
}

// Acknowledge implements the tap-to-acknowledge flow: when the role
// needs no comment, merely visiting the event records today's date as
// the confirmation. It returns false without mutating anything when a
// comment form is required, so the host can render it instead.
func (s *ConfirmationService) Acknowledge(ctx context.Context, role protocol.Role, contractID, eventID int64) (bool, error) {
	ev, err := s.resolve(ctx, contractID, eventID)
	if err != nil {
		return false, err
	}

	if ev.NeedsComment(role) {
		return false, nil
	}

	today := dateOnly(s.now())
	if err := s.occurrenceRepo.RecordConfirmation(ctx, contractID, eventID, role, today, sql.NullString{}); err != nil {
		return false, fmt.Errorf("failed to acknowledge event %d for contract %d: %w", eventID, contractID, err)
	}
	s.logger.Infof("Auto-acknowledged event %d for contract %d (%s)", eventID, contractID, role)
	return true, nil
}

// EventForm returns the data the host needs to render the confirmation
// form for an event that requires a comment.
func (s *ConfirmationService) EventForm(ctx context.Context, role protocol.Role, contractID, eventID int64) (*EventFormView, error) {
	ev, err := s.resolve(ctx, contractID, eventID)
	if err != nil {
		return nil, err
	}
	return &EventFormView{
		EventID:     ev.ID,
		Title:       ev.Title(role),
		Body:        ev.Body(role),
		NeedComment: ev.NeedsComment(role),
	}, nil
}

// EventFormView is the payload backing the confirmation form.
type EventFormView struct {
	EventID     int64  `json:"event_id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	NeedComment bool   `json:"need_comment"`
}
