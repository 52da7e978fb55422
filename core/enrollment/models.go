package enrollment

import (
	"time"
)

// Status is an Enrollment's lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDropped   Status = "dropped"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusDropped:
		return true
	}
	return false
}

// Enrollment records a student's participation in one course offering. The
// (StudentID, CourseID, Term) triple is unique; retakes of the same course in
// later terms produce separate records.
type Enrollment struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	CourseID   string    `json:"course_id"`
	Term       string    `json:"term"`
	Status     Status    `json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC
}
