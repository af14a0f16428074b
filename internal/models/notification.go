package models

import "time"

// NotificationTask is a guardian message awaiting delivery. The pending
// phase of the lifecycle lives on the student record (NotificationPending is
// the badge while an absence is still unresolved); a task materializes at
// window close already queued and exists until delivered or cancelled.
// `(student, date)` is unique.
type NotificationTask struct {
	ID            string             `json:"id"`
	StudentID     string             `json:"student_id"`
	StudentName   string             `json:"student_name"`
	GuardianPhone string             `json:"guardian_phone"`
	Message       string             `json:"message"`
	Date          string             `json:"date"` // YYYY-MM-DD
	State         NotificationStatus `json:"state"`
	Attempts      int                `json:"attempts"`
	LastError     string             `json:"last_error,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// ConnectivityState is the binary network state driving queue behaviour.
type ConnectivityState string

const (
	ConnectivityOnline  ConnectivityState = "ONLINE"
	ConnectivityOffline ConnectivityState = "OFFLINE"
)
