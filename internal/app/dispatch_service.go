package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roctbb/protocol-medsenger-bot/internal/domain/contract"
	"github.com/roctbb/protocol-medsenger-bot/internal/domain/event"
	"github.com/roctbb/protocol-medsenger-bot/internal/domain/medsenger"
	"github.com/roctbb/protocol-medsenger-bot/internal/domain/protocol"
	idb "github.com/roctbb/protocol-medsenger-bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// Dispatcher runs one due-detection and notification cycle. The
// scheduler owns the cadence; this interface owns the work.
type Dispatcher interface {
	RunCycle(ctx context.Context) error
}

// DispatchService walks every active contract's enrollments each cycle,
// creates the occurrence row for milestones whose notification date is
// today, and sends the per-role messages. The occurrence row is
// committed before dispatch, so a transport failure can never cause a
// duplicate notification on the next cycle (at-most-once delivery).
type DispatchService struct {
	contractRepo   contract.Repository
	protocolRepo   protocol.Repository
	occurrenceRepo event.Repository
	client         medsenger.Client
	logger         *logrus.Logger
	sendTimeout    time.Duration
	now            func() time.Time
}

func NewDispatchService(
	cr contract.Repository,
	pr protocol.Repository,
	or event.Repository,
	mc medsenger.Client,
	logger *logrus.Logger,
	sendTimeout time.Duration,
) *DispatchService {
	return &DispatchService{
		contractRepo:   cr,
		protocolRepo:   pr,
		occurrenceRepo: or,
		client:         mc,
		logger:         logger,
		sendTimeout:    sendTimeout,
		now:            time.Now,
	}
}

// RunCycle evaluates every (active contract, enrollment, event) triple.
// Per-item failures are logged and skipped so one broken enrollment
// never blocks the rest of the cycle.
func (s *DispatchService) RunCycle(ctx context.Context) error {
	today := dateOnly(s.now())

	contracts, err := s.contractRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active contracts: %w", err)
	}
	s.logger.Debugf("Dispatch cycle for %s: %d active contracts", today.Format("2006-01-02"), len(contracts))

	for _, c := range contracts {
		enrollments, err := s.contractRepo.ListEnrollments(ctx, c.ID)
		if err != nil {
			s.logger.Errorf("Failed to list enrollments for contract %d: %v", c.ID, err)
			continue
		}

		for _, enr := range enrollments {
			anchor, ok := enr.Anchor()
			if !ok {
				continue // inert until a start date is configured
			}

			proto, err := s.protocolRepo.GetByID(ctx, enr.ProtocolID)
			if err != nil {
				s.logger.Errorf("Failed to load protocol %d for contract %d: %v", enr.ProtocolID, c.ID, err)
				continue
			}

			for _, ev := range proto.Events {
				sched := protocol.NewSchedule(anchor, ev)
				if sched.Notification == nil || !sched.Notification.Equal(today) {
					continue
				}
				s.trigger(ctx, c.ID, ev, sched)
			}
		}
	}
	return nil
}

// trigger creates the dedup row and, on first creation, notifies the
// flagged roles.
func (s *DispatchService) trigger(ctx context.Context, contractID int64, ev *protocol.Event, sched protocol.Schedule) {
	occ := &event.Occurrence{ContractID: contractID, EventID: ev.ID}
	if err := s.occurrenceRepo.Create(ctx, occ); err != nil {
		if errors.Is(err, idb.ErrDuplicateOccurrence) {
			// Someone already handled this milestone (an earlier cycle
			// or a concurrent writer); nothing to do.
			return
		}
		s.logger.Errorf("Failed to create occurrence for contract %d, event %d: %v", contractID, ev.ID, err)
		return
	}
	s.logger.Infof("Event %d became due for contract %d", ev.ID, contractID)

	for _, role := range protocol.Roles {
		if !ev.Notifies(role) {
			continue
		}
		msg := buildEventMessage(ev, sched, role)

		sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
		err := s.client.SendMessage(sendCtx, contractID, msg)
		cancel()
		if err != nil {
			// Delivery failures are absorbed: the occurrence row already
			// exists, so this notification is not retried.
			s.logger.Errorf("Failed to notify %s on contract %d about event %d: %v", role, contractID, ev.ID, err)
			continue
		}
		s.logger.Infof("Notified %s on contract %d about event %d", role, contractID, ev.ID)
	}
}

// buildEventMessage renders the role-specific milestone message with
// the planned execution period and, when the role must confirm, a
// one-shot confirmation action.
func buildEventMessage(ev *protocol.Event, sched protocol.Schedule, role protocol.Role) *medsenger.Message {
	period := fmt.Sprintf("с <b>%s</b>", sched.Start.Format("02.01.2006"))
	if sched.End != nil {
		period += fmt.Sprintf(" по <b>%s</b>", sched.End.Format("02.01.2006"))
	}

	msg := &medsenger.Message{
		Text: fmt.Sprintf("<b>%s</b><br><br>%s<br><br><small>Планируемый срок выполнения - %s</small>",
			ev.Title(role), ev.Body(role), period),
		OnlyDoctor:  role == protocol.RoleDoctor,
		OnlyPatient: role == protocol.RolePatient,
	}

	if ev.NeedsConfirmation(role) {
		msg.ActionLink = fmt.Sprintf("%s/event/%d", role, ev.ID)
		msg.ActionName = "Подтвердить выполнение"
		msg.ActionOnetime = true
	}
	return msg
}

// dateOnly truncates a wall-clock instant to its calendar date in UTC,
// matching how DATE columns come back from the store.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
