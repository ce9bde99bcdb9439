package app

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roctbb/protocol-medsenger-bot/internal/domain/contract"
	"github.com/roctbb/protocol-medsenger-bot/internal/domain/event"
	"github.com/roctbb/protocol-medsenger-bot/internal/domain/protocol"
	idb "github.com/roctbb/protocol-medsenger-bot/internal/infra/database"
)

type contractFixture struct {
	service     *ContractService
	contracts   *fakeContractRepo
	protocols   *fakeProtocolRepo
	occurrences *fakeOccurrenceRepo
}

func newContractFixture(t *testing.T, events ...*protocol.Event) *contractFixture {
	t.Helper()

	contracts := newFakeContractRepo()
	protocols := newFakeProtocolRepo()
	protocols.protocols[10] = &protocol.Protocol{ID: 10, Title: "Послеоперационное наблюдение", Events: events}
	occurrences := newFakeOccurrenceRepo()

	service := NewContractService(contracts, protocols, occurrences, testLogger())
	service.now = func() time.Time { return utcDate(2024, time.January, 3) }

	return &contractFixture{service: service, contracts: contracts, protocols: protocols, occurrences: occurrences}
}

func (f *contractFixture) enroll(contractID int64, anchor time.Time) {
	f.contracts.contracts[contractID] = &contract.Contract{ID: contractID, Active: true}
	f.contracts.enrollments[pairKey{contractID, 10}] = &contract.Enrollment{
		ContractID: contractID,
		ProtocolID: 10,
		Start:      sql.NullTime{Time: anchor, Valid: true},
	}
}

func TestInitContractCreatesAndReactivates(t *testing.T) {
	f := newContractFixture(t)

	c, err := f.service.InitContract(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, c.Active)

	c.Active = false
	require.NoError(t, f.contracts.Update(context.Background(), c))

	c, err = f.service.InitContract(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, c.Active, "re-init must reactivate a deactivated contract")
	assert.Len(t, f.contracts.contracts, 1)
}

func TestRemoveContractDeactivates(t *testing.T) {
	f := newContractFixture(t)
	f.contracts.contracts[1] = &contract.Contract{ID: 1, Active: true}

	require.NoError(t, f.service.RemoveContract(context.Background(), 1))
	assert.False(t, f.contracts.contracts[1].Active)

	// Removing twice is fine, removing the unknown is not.
	require.NoError(t, f.service.RemoveContract(context.Background(), 1))
	assert.ErrorIs(t, f.service.RemoveContract(context.Background(), 99), idb.ErrContractNotFound)
}

func TestTrackedContractIDs(t *testing.T) {
	f := newContractFixture(t)
	f.contracts.contracts[1] = &contract.Contract{ID: 1, Active: true}
	f.contracts.contracts[2] = &contract.Contract{ID: 2, Active: false}

	ids, err := f.service.TrackedContractIDs(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, ids)
}

func TestActionsListSubscribedProtocols(t *testing.T) {
	f := newContractFixture(t, patientEvent(1))
	f.enroll(1, utcDate(2024, time.January, 1))

	actions, err := f.service.Actions(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "Протокол «Послеоперационное наблюдение»", actions[0].Name)
	assert.Equal(t, "/protocol/10", actions[0].Link)
	assert.Equal(t, "doctor", actions[0].Type)
}

func TestSetEnrollment(t *testing.T) {
	f := newContractFixture(t, patientEvent(1))
	f.contracts.contracts[1] = &contract.Contract{ID: 1, Active: true}

	require.NoError(t, f.service.SetEnrollment(context.Background(), 1, 10, "2024-01-01"))
	enr, err := f.contracts.GetEnrollment(context.Background(), 1, 10)
	require.NoError(t, err)
	anchor, ok := enr.Anchor()
	require.True(t, ok)
	assert.Equal(t, utcDate(2024, time.January, 1), anchor)

	// An empty date keeps the enrollment inert.
	require.NoError(t, f.service.SetEnrollment(context.Background(), 1, 10, ""))
	enr, err = f.contracts.GetEnrollment(context.Background(), 1, 10)
	require.NoError(t, err)
	_, ok = enr.Anchor()
	assert.False(t, ok)

	assert.ErrorIs(t, f.service.SetEnrollment(context.Background(), 1, 10, "01.01.2024"), ErrInvalidDate)
	assert.ErrorIs(t, f.service.SetEnrollment(context.Background(), 1, 99, "2024-01-01"), idb.ErrProtocolNotFound)
	assert.ErrorIs(t, f.service.SetEnrollment(context.Background(), 99, 10, "2024-01-01"), idb.ErrContractNotFound)
}

func TestSettingsView(t *testing.T) {
	f := newContractFixture(t, patientEvent(1))
	f.enroll(1, utcDate(2024, time.January, 1))
	f.protocols.protocols[11] = &protocol.Protocol{ID: 11, Title: "Реабилитация"}

	views, err := f.service.Settings(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byProtocol := map[int64]EnrollmentView{}
	for _, v := range views {
		byProtocol[v.ProtocolID] = v
	}
	assert.True(t, byProtocol[10].Subscribed)
	assert.Equal(t, "2024-01-01", byProtocol[10].StartDate)
	assert.False(t, byProtocol[11].Subscribed)
	assert.Empty(t, byProtocol[11].StartDate)
}

func TestProtocolStatusView(t *testing.T) {
	confirmable := patientEvent(1)
	informational := patientEvent(2)
	informational.PatientTitle = "Памятка по уходу"
	informational.NeedConfirmationPatient = false
	informational.IsRequired = false
	future := patientEvent(3)
	future.StartDay = 10
	future.EndDay = sql.NullInt64{Int64: 14, Valid: true}
	future.NotificationDay = sql.NullInt64{Int64: 10, Valid: true}

	f := newContractFixture(t, confirmable, informational, future)
	f.enroll(1, utcDate(2024, time.January, 1))

	// Both day-0 events triggered; the patient confirmed the first one.
	for _, eventID := range []int64{1, 2} {
		require.NoError(t, f.occurrences.Create(context.Background(), &event.Occurrence{ContractID: 1, EventID: eventID}))
	}
	require.NoError(t, f.occurrences.RecordConfirmation(
		context.Background(), 1, 1, protocol.RolePatient,
		utcDate(2024, time.January, 2), sql.NullString{String: "был на приёме", Valid: true}))

	view, err := f.service.ProtocolStatus(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "Послеоперационное наблюдение", view.Title)
	require.Len(t, view.Events, 3)

	byEvent := map[int64]EventStatusRow{}
	for _, row := range view.Events {
		byEvent[row.EventID] = row
	}
	assert.Equal(t, event.StatusCompleted, byEvent[1].Status)
	assert.Equal(t, "01.01.24 - 08.01.24", byEvent[1].Period)
	assert.Equal(t, "02.01.24", byEvent[1].PatientConfirmation)
	assert.Equal(t, "был на приёме", byEvent[1].PatientComment)
	assert.Equal(t, event.StatusSkipped.Additional(), byEvent[2].Status)
	assert.Equal(t, event.StatusPending, byEvent[3].Status)

	assert.Equal(t, 3, view.Stats.Total)
	assert.Equal(t, 2, view.Stats.Required.Total)
	assert.Equal(t, 1, view.Stats.Required.Completed)
	assert.Equal(t, 1, view.Stats.Required.Upcoming)
	assert.Equal(t, 1, view.Stats.Additional.Skipped)
}

func TestProtocolStatusWithoutAnchor(t *testing.T) {
	f := newContractFixture(t, patientEvent(1))
	f.contracts.contracts[1] = &contract.Contract{ID: 1, Active: true}
	f.contracts.enrollments[pairKey{1, 10}] = &contract.Enrollment{ContractID: 1, ProtocolID: 10}

	view, err := f.service.ProtocolStatus(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, view.Events, 1)
	assert.Equal(t, event.StatusPending, view.Events[0].Status)
	assert.Empty(t, view.Events[0].Period)
}

func TestProtocolStatusRequiresEnrollment(t *testing.T) {
	f := newContractFixture(t, patientEvent(1))
	f.contracts.contracts[1] = &contract.Contract{ID: 1, Active: true}

	_, err := f.service.ProtocolStatus(context.Background(), 1, 10)
	assert.ErrorIs(t, err, idb.ErrEnrollmentNotFound)
}
