package protocol

import (
	"database/sql"
)

// Event is one milestone definition within a protocol: day offsets
// relative to the enrollment anchor plus notification and confirmation
// flags per role. Corresponds to the 'events' table.
type Event struct {
	ID         int64
	ProtocolID int64

	PatientTitle string
	PatientBody  sql.NullString
	DoctorTitle  sql.NullString
	DoctorBody   sql.NullString

	StartDay        int
	EndDay          sql.NullInt64
	NotificationDay sql.NullInt64

	NotifyDoctor  bool
	NotifyPatient bool

	NeedConfirmationDoctor  bool
	NeedConfirmationPatient bool

	NeedCommentDoctor  bool
	NeedCommentPatient bool

	// IsRequired distinguishes mandatory milestones from supplementary
	// ones; the two groups are tallied separately in statistics.
	IsRequired bool
}

func (e *Event) Notifies(r Role) bool {
	if r == RoleDoctor {
		return e.NotifyDoctor
	}
	return e.NotifyPatient
}

func (e *Event) NeedsConfirmation(r Role) bool {
	if r == RoleDoctor {
		return e.NeedConfirmationDoctor
	}
	return e.NeedConfirmationPatient
}

func (e *Event) NeedsComment(r Role) bool {
	if r == RoleDoctor {
		return e.NeedCommentDoctor
	}
	return e.NeedCommentPatient
}

// RequiresConfirmation reports whether any role must confirm this event.
// Events without it are purely informational.
func (e *Event) RequiresConfirmation() bool {
	return e.NeedConfirmationDoctor || e.NeedConfirmationPatient
}

// Title returns the role-specific title. The doctor variant falls back
// to the patient's title when the doctor-specific field is unset.
func (e *Event) Title(r Role) string {
	if r == RoleDoctor && e.DoctorTitle.Valid && e.DoctorTitle.String != "" {
		return e.DoctorTitle.String
	}
	return e.PatientTitle
}

// Body returns the role-specific description with the same fallback
// chain as Title.
func (e *Event) Body(r Role) string {
	if r == RoleDoctor && e.DoctorBody.Valid && e.DoctorBody.String != "" {
		return e.DoctorBody.String
	}
	if e.PatientBody.Valid {
		return e.PatientBody.String
	}
	return ""
}
