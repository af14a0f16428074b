package models

import "time"

// FrequencyKind classifies a captured attendance event.
type FrequencyKind string

const (
	FrequencyEntrada FrequencyKind = "entrada"
	FrequencySaida   FrequencyKind = "saida"
	FrequencyAtraso  FrequencyKind = "atraso"
	FrequencyEvadido FrequencyKind = "evadido"
)

// Valid returns true when the kind is a supported value.
func (k FrequencyKind) Valid() bool {
	switch k {
	case FrequencyEntrada, FrequencySaida, FrequencyAtraso, FrequencyEvadido:
		return true
	default:
		return false
	}
}

// MarksPresent reports whether the event puts the student inside the school.
func (k FrequencyKind) MarksPresent() bool {
	return k == FrequencyEntrada || k == FrequencyAtraso
}

// CountsAsAttendance reports whether the event makes its day an attended day.
func (k FrequencyKind) CountsAsAttendance() bool {
	return k == FrequencyEntrada || k == FrequencyAtraso
}

const (
	// DateLayout is the wire format for event dates.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format for event times of day.
	TimeLayout = "15:04"
)

// FrequencyLog is an immutable attendance event. Logs are append-only; none
// is ever mutated or deleted.
type FrequencyLog struct {
	ID        string        `db:"id" json:"id"`
	StudentID string        `db:"student_id" json:"student_id"`
	Kind      FrequencyKind `db:"kind" json:"kind"`
	Date      string        `db:"date" json:"date"` // YYYY-MM-DD
	Time      string        `db:"time" json:"time"` // HH:MM
	Seq       uint64        `db:"seq" json:"-"`     // insertion order, tie breaker
}

// DedupKey identifies duplicate hardware deliveries of the same event.
func (l FrequencyLog) DedupKey() string {
	return l.StudentID + "|" + string(l.Kind) + "|" + l.Date + "|" + l.Time
}

// MoreRecentThan reports whether l precedes other in the presentation order,
// which is (date, time) descending with later insertions first on ties.
func (l FrequencyLog) MoreRecentThan(other FrequencyLog) bool {
	if l.Date != other.Date {
		return l.Date > other.Date
	}
	if l.Time != other.Time {
		return l.Time > other.Time
	}
	return l.Seq > other.Seq
}

// PresenceChange is the domain event emitted when a recorded log flips the
// student's present flag.
type PresenceChange struct {
	StudentID string
	Before    bool
	After     bool
	At        time.Time
}
