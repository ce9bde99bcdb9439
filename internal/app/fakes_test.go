package app

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/roctbb/protocol-medsenger-bot/internal/domain/contract"
	"github.com/roctbb/protocol-medsenger-bot/internal/domain/event"
	"github.com/roctbb/protocol-medsenger-bot/internal/domain/medsenger"
	"github.com/roctbb/protocol-medsenger-bot/internal/domain/protocol"
	idb "github.com/roctbb/protocol-medsenger-bot/internal/infra/database"
)

type pairKey struct {
	contractID int64
	otherID    int64
}

// --- contract.Repository fake ---

type fakeContractRepo struct {
	contracts   map[int64]*contract.Contract
	enrollments map[pairKey]*contract.Enrollment
}

func newFakeContractRepo() *fakeContractRepo {
	return &fakeContractRepo{
		contracts:   make(map[int64]*contract.Contract),
		enrollments: make(map[pairKey]*contract.Enrollment),
	}
}

func (f *fakeContractRepo) Create(_ context.Context, c *contract.Contract) error {
	f.contracts[c.ID] = c
	return nil
}

func (f *fakeContractRepo) GetByID(_ context.Context, id int64) (*contract.Contract, error) {
	c, ok := f.contracts[id]
	if !ok {
		return nil, idb.ErrContractNotFound
	}
	return c, nil
}

func (f *fakeContractRepo) Update(_ context.Context, c *contract.Contract) error {
	if _, ok := f.contracts[c.ID]; !ok {
		return idb.ErrContractNotFound
	}
	f.contracts[c.ID] = c
	return nil
}

func (f *fakeContractRepo) ListActive(_ context.Context) ([]*contract.Contract, error) {
	out := make([]*contract.Contract, 0)
	for _, c := range f.contracts {
		if c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContractRepo) ListAll(_ context.Context) ([]*contract.Contract, error) {
	out := make([]*contract.Contract, 0)
	for _, c := range f.contracts {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeContractRepo) UpsertEnrollment(_ context.Context, e *contract.Enrollment) error {
	f.enrollments[pairKey{e.ContractID, e.ProtocolID}] = e
	return nil
}

func (f *fakeContractRepo) DeleteEnrollment(_ context.Context, contractID, protocolID int64) error {
	delete(f.enrollments, pairKey{contractID, protocolID})
	return nil
}

func (f *fakeContractRepo) GetEnrollment(_ context.Context, contractID, protocolID int64) (*contract.Enrollment, error) {
	e, ok := f.enrollments[pairKey{contractID, protocolID}]
	if !ok {
		return nil, idb.ErrEnrollmentNotFound
	}
	return e, nil
}

func (f *fakeContractRepo) ListEnrollments(_ context.Context, contractID int64) ([]*contract.Enrollment, error) {
	out := make([]*contract.Enrollment, 0)
	for _, e := range f.enrollments {
		if e.ContractID == contractID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- protocol.Repository fake ---

type fakeProtocolRepo struct {
	protocols map[int64]*protocol.Protocol
}

func newFakeProtocolRepo() *fakeProtocolRepo {
	return &fakeProtocolRepo{protocols: make(map[int64]*protocol.Protocol)}
}

func (f *fakeProtocolRepo) GetByID(_ context.Context, id int64) (*protocol.Protocol, error) {
	p, ok := f.protocols[id]
	if !ok {
		return nil, idb.ErrProtocolNotFound
	}
	return p, nil
}

func (f *fakeProtocolRepo) ListAll(_ context.Context) ([]*protocol.Protocol, error) {
	out := make([]*protocol.Protocol, 0)
	for _, p := range f.protocols {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProtocolRepo) GetEvent(_ context.Context, eventID int64) (*protocol.Event, error) {
	for _, p := range f.protocols {
		for _, e := range p.Events {
			if e.ID == eventID {
				return e, nil
			}
		}
	}
	return nil, idb.ErrEventNotFound
}

// --- event.Repository fake ---

type fakeOccurrenceRepo struct {
	rows map[pairKey]*event.Occurrence
	now  func() time.Time
}

func newFakeOccurrenceRepo() *fakeOccurrenceRepo {
	return &fakeOccurrenceRepo{
		rows: make(map[pairKey]*event.Occurrence),
		now:  time.Now,
	}
}

func (f *fakeOccurrenceRepo) Create(_ context.Context, occ *event.Occurrence) error {
	key := pairKey{occ.ContractID, occ.EventID}
	if _, ok := f.rows[key]; ok {
		return idb.ErrDuplicateOccurrence
	}
	occ.CreatedAt = f.now()
	f.rows[key] = occ
	return nil
}

func (f *fakeOccurrenceRepo) Get(_ context.Context, contractID, eventID int64) (*event.Occurrence, error) {
	occ, ok := f.rows[pairKey{contractID, eventID}]
	if !ok {
		return nil, idb.ErrOccurrenceNotFound
	}
	return occ, nil
}

func (f *fakeOccurrenceRepo) ListByContract(_ context.Context, contractID int64) ([]*event.Occurrence, error) {
	out := make([]*event.Occurrence, 0)
	for _, occ := range f.rows {
		if occ.ContractID == contractID {
			out = append(out, occ)
		}
	}
	return out, nil
}

func (f *fakeOccurrenceRepo) RecordConfirmation(_ context.Context, contractID, eventID int64, role protocol.Role, confirmation time.Time, comment sql.NullString) error {
	key := pairKey{contractID, eventID}
	occ, ok := f.rows[key]
	if !ok {
		occ = &event.Occurrence{ContractID: contractID, EventID: eventID, CreatedAt: f.now()}
		f.rows[key] = occ
	}
	filled := sql.NullTime{Time: f.now(), Valid: true}
	if role == protocol.RoleDoctor {
		occ.DoctorConfirmation = sql.NullTime{Time: confirmation, Valid: true}
		occ.DoctorFilledAt = filled
		occ.DoctorComment = comment
	} else {
		occ.PatientConfirmation = sql.NullTime{Time: confirmation, Valid: true}
		occ.PatientFilledAt = filled
		occ.PatientComment = comment
	}
	return nil
}

// --- medsenger.Client fake ---

type sentMessage struct {
	contractID int64
	msg        *medsenger.Message
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sentMessage
	failure error
}

func (f *fakeNotifier) SendMessage(_ context.Context, contractID int64, msg *medsenger.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failure != nil {
		return f.failure
	}
	f.sent = append(f.sent, sentMessage{contractID: contractID, msg: msg})
	return nil
}
