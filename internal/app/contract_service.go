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

const displayDateLayout = "02.01.06"

// ContractService implements the lifecycle hooks exposed to the
// Medsenger core (activation, deactivation), enrollment configuration,
// and the read-only per-protocol status view.
type ContractService struct {
	contractRepo   contract.Repository
	protocolRepo   protocol.Repository
	occurrenceRepo event.Repository
	logger         *logrus.Logger
	now            func() time.Time
}

func NewContractService(
	cr contract.Repository,
	pr protocol.Repository,
	or event.Repository,
	logger *logrus.Logger,
) *ContractService {
	return &ContractService{
		contractRepo:   cr,
		protocolRepo:   pr,
		occurrenceRepo: or,
		logger:         logger,
		now:            time.Now,
	}
}

// InitContract activates a contract, creating it on first sight. The
// scheduler picks it up on its next cycle.
func (s *ContractService) InitContract(ctx context.Context, id int64) (*contract.Contract, error) {
	c, err := s.contractRepo.GetByID(ctx, id)
	if err == nil {
		if !c.Active {
			c.Active = true
			if err := s.contractRepo.Update(ctx, c); err != nil {
				return nil, fmt.Errorf("failed to reactivate contract %d: %w", id, err)
			}
		}
		s.logger.Infof("Reactivated contract %d", id)
		return c, nil
	}
	if !errors.Is(err, idb.ErrContractNotFound) {
		return nil, fmt.Errorf("failed to look up contract %d: %w", id, err)
	}

	c = &contract.Contract{ID: id, Active: true}
	if err := s.contractRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create contract %d: %w", id, err)
	}
	s.logger.Infof("Added contract %d", id)
	return c, nil
}

// RemoveContract deactivates a contract; subsequent scheduler cycles
// skip it immediately. Enrollments and occurrences are kept.
func (s *ContractService) RemoveContract(ctx context.Context, id int64) error {
	c, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !c.Active {
		return nil
	}
	c.Active = false
	if err := s.contractRepo.Update(ctx, c); err != nil {
		return fmt.Errorf("failed to deactivate contract %d: %w", id, err)
	}
	s.logger.Infof("Deactivated contract %d", id)
	return nil
}

// TrackedContractIDs backs the /status liveness report.
func (s *ContractService) TrackedContractIDs(ctx context.Context) ([]int64, error) {
	contracts, err := s.contractRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	ids := make([]int64, 0, len(contracts))
	for _, c := range contracts {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// Action is one entry of the doctor's action menu.
type Action struct {
	Name string `json:"name"`
	Link string `json:"link"`
	Type string `json:"type"`
}

// Actions lists one protocol-view link per subscribed protocol.
func (s *ContractService) Actions(ctx context.Context, contractID int64) ([]Action, error) {
	if _, err := s.contractRepo.GetByID(ctx, contractID); err != nil {
		return nil, err
	}

	enrollments, err := s.contractRepo.ListEnrollments(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments for contract %d: %w", contractID, err)
	}

	actions := make([]Action, 0, len(enrollments))
	for _, enr := range enrollments {
		proto, err := s.protocolRepo.GetByID(ctx, enr.ProtocolID)
		if err != nil {
			s.logger.Errorf("Failed to load protocol %d for actions of contract %d: %v", enr.ProtocolID, contractID, err)
			continue
		}
		actions = append(actions, Action{
			Name: fmt.Sprintf("Протокол «%s»", proto.Title),
			Link: fmt.Sprintf("/protocol/%d", proto.ID),
			Type: "doctor",
		})
	}
	return actions, nil
}

// SetEnrollment subscribes the contract to a protocol, optionally
// anchoring it to a start date (YYYY-MM-DD). An empty date leaves the
// enrollment inert.
func (s *ContractService) SetEnrollment(ctx context.Context, contractID, protocolID int64, startDate string) error {
	if _, err := s.contractRepo.GetByID(ctx, contractID); err != nil {
		return err
	}
	if _, err := s.protocolRepo.GetByID(ctx, protocolID); err != nil {
		return err
	}

	enr := &contract.Enrollment{ContractID: contractID, ProtocolID: protocolID}
	if startDate != "" {
		start, err := time.Parse(confirmationDateLayout, startDate)
		if err != nil {
			return ErrInvalidDate
		}
		enr.Start = sql.NullTime{Time: start, Valid: true}
	}

	if err := s.contractRepo.UpsertEnrollment(ctx, enr); err != nil {
		return fmt.Errorf("failed to save enrollment (%d, %d): %w", contractID, protocolID, err)
	}
	s.logger.Infof("Contract %d enrolled into protocol %d (start %q)", contractID, protocolID, startDate)
	return nil
}

// RemoveEnrollment unsubscribes the contract from a protocol.
func (s *ContractService) RemoveEnrollment(ctx context.Context, contractID, protocolID int64) error {
	if err := s.contractRepo.DeleteEnrollment(ctx, contractID, protocolID); err != nil {
		return fmt.Errorf("failed to remove enrollment (%d, %d): %w", contractID, protocolID, err)
	}
	s.logger.Infof("Contract %d unsubscribed from protocol %d", contractID, protocolID)
	return nil
}

// EnrollmentView is one row of the settings payload.
type EnrollmentView struct {
	ProtocolID int64  `json:"protocol_id"`
	Title      string `json:"title"`
	Subscribed bool   `json:"subscribed"`
	StartDate  string `json:"start_date,omitempty"`
}

// Settings lists every protocol with the contract's subscription state,
// backing the host's configuration form.
func (s *ContractService) Settings(ctx context.Context, contractID int64) ([]EnrollmentView, error) {
	if _, err := s.contractRepo.GetByID(ctx, contractID); err != nil {
		return nil, err
	}

	protocols, err := s.protocolRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list protocols: %w", err)
	}
	enrollments, err := s.contractRepo.ListEnrollments(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments for contract %d: %w", contractID, err)
	}

	byProtocol := make(map[int64]*contract.Enrollment, len(enrollments))
	for _, enr := range enrollments {
		byProtocol[enr.ProtocolID] = enr
	}

	views := make([]EnrollmentView, 0, len(protocols))
	for _, p := range protocols {
		v := EnrollmentView{ProtocolID: p.ID, Title: p.Title}
		if enr, ok := byProtocol[p.ID]; ok {
			v.Subscribed = true
			if anchor, set := enr.Anchor(); set {
				v.StartDate = anchor.Format(confirmationDateLayout)
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// EventStatusRow is one event of the per-protocol status table.
type EventStatusRow struct {
	EventID             int64        `json:"event_id"`
	Title               string       `json:"title"`
	Period              string       `json:"period"`
	NotificationDate    string       `json:"notification_date,omitempty"`
	IsRequired          bool         `json:"is_required"`
	Status              event.Status `json:"status"`
	DoctorConfirmation  string       `json:"doctor_confirmation,omitempty"`
	PatientConfirmation string       `json:"patient_confirmation,omitempty"`
	DoctorComment       string       `json:"doctor_comment,omitempty"`
	PatientComment      string       `json:"patient_comment,omitempty"`
}

// ProtocolStatusView is the full per-enrollment progress report.
type ProtocolStatusView struct {
	ProtocolID int64            `json:"protocol_id"`
	Title      string           `json:"title"`
	Events     []EventStatusRow `json:"events"`
	Stats      event.Stats      `json:"stats"`
}

// ProtocolStatus classifies every event of one enrollment and folds the
// results into aggregate statistics.
func (s *ContractService) ProtocolStatus(ctx context.Context, contractID, protocolID int64) (*ProtocolStatusView, error) {
	if _, err := s.contractRepo.GetByID(ctx, contractID); err != nil {
		return nil, err
	}
	proto, err := s.protocolRepo.GetByID(ctx, protocolID)
	if err != nil {
		return nil, err
	}
	enr, err := s.contractRepo.GetEnrollment(ctx, contractID, protocolID)
	if err != nil {
		return nil, err
	}

	occurrences, err := s.occurrenceRepo.ListByContract(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences for contract %d: %w", contractID, err)
	}
	byEvent := make(map[int64]*event.Occurrence, len(occurrences))
	for _, occ := range occurrences {
		byEvent[occ.EventID] = occ
	}

	today := dateOnly(s.now())
	anchor, anchored := enr.Anchor()

	view := &ProtocolStatusView{ProtocolID: proto.ID, Title: proto.Title}
	statuses := make([]event.EventStatus, 0, len(proto.Events))

	for _, ev := range proto.Events {
		var sched *protocol.Schedule
		if anchored {
			derived := protocol.NewSchedule(anchor, ev)
			sched = &derived
		}
		occ := byEvent[ev.ID]
		st := event.Classify(today, ev, sched, occ)
		statuses = append(statuses, event.EventStatus{Event: ev, Status: st})

		row := EventStatusRow{
			EventID:    ev.ID,
			Title:      ev.Title(protocol.RoleDoctor),
			IsRequired: ev.IsRequired,
			Status:     st,
		}
		if sched != nil {
			row.Period = sched.Start.Format(displayDateLayout)
			if sched.End != nil {
				row.Period += " - " + sched.End.Format(displayDateLayout)
			}
			if sched.Notification != nil {
				row.NotificationDate = sched.Notification.Format(displayDateLayout)
			}
		}
		if occ != nil {
			row.DoctorConfirmation = formatNullDate(occ.DoctorConfirmation)
			row.PatientConfirmation = formatNullDate(occ.PatientConfirmation)
			row.DoctorComment = occ.DoctorComment.String
			row.PatientComment = occ.PatientComment.String
		}
		view.Events = append(view.Events, row)
	}

	view.Stats = event.Summarize(statuses)
	return view, nil
}

func formatNullDate(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format(displayDateLayout)
}
