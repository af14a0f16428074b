package models

// NotificationStatus is the delivery state shown against an absent student.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationQueued  NotificationStatus = "queued"
	NotificationSent    NotificationStatus = "sent"
)

// Student represents a learner registered in the school. Matricula is the
// externally issued badge/biometric key and is unique system-wide.
type Student struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Matricula          string             `json:"matricula"`
	GuardianPhone      string             `json:"guardian_phone"`
	PhotoBase64        *string            `json:"photo_base64,omitempty"`
	ClassroomID        string             `json:"classroom_id"`
	GuardianUserIDs    []string           `json:"guardian_user_ids,omitempty"`
	Present            bool               `json:"present"`
	ArrivalTime        *string            `json:"arrival_time,omitempty"` // HH:MM
	NotificationStatus NotificationStatus `json:"notification_status,omitempty"`
}

// StudentAttendance pairs a student with the aggregator's derived percentage.
type StudentAttendance struct {
	Student
	AttendancePercent float64 `json:"attendance_percent"`
}
