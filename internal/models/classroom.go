package models

// ClassRoom groups students under a grade label. Presence counts are never
// stored on the record; they are derived from the student set at query time.
type ClassRoom struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Grade string `json:"grade"`
}

// ClassroomSummary is a classroom with its derived aggregates.
type ClassroomSummary struct {
	ClassRoom
	TotalStudents int `json:"total_students"`
	PresentCount  int `json:"present_count"`
	AbsentCount   int `json:"absent_count"`
}
