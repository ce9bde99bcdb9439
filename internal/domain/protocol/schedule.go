package protocol

import "time"

// Schedule holds the concrete calendar dates derived for one event of
// one enrollment. End and Notification are nil when the corresponding
// offset is unset; Notification is also nil when the event notifies
// nobody.
type Schedule struct {
	Start        time.Time
	End          *time.Time
	Notification *time.Time
}

// NewSchedule derives the event's calendar dates from the enrollment
// anchor. All arithmetic is calendar-day addition with no timezone
// adjustment; the function is total for any valid offsets.
func NewSchedule(anchor time.Time, e *Event) Schedule {
	s := Schedule{Start: anchor.AddDate(0, 0, e.StartDay)}

	if e.EndDay.Valid {
		end := anchor.AddDate(0, 0, int(e.EndDay.Int64))
		s.End = &end
	}

	if e.NotificationDay.Valid && (e.NotifyDoctor || e.NotifyPatient) {
		notif := anchor.AddDate(0, 0, int(e.NotificationDay.Int64))
		s.Notification = &notif
	}

	return s
}
