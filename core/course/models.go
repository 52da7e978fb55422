package course

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// AssignmentType is a closed variant set.
type AssignmentType string

const (
	TypeEssay AssignmentType = "essay"
	TypeQuiz  AssignmentType = "quiz"
)

type (
	Course struct {
		ID           string    `json:"id"`
		SubjectID    string    `json:"subject_id"`
		InstructorID string    `json:"instructor_id"`
		Name         string    `json:"name"`
		StartDate    time.Time `json:"start_date"` // UTC
		EndDate      time.Time `json:"end_date"`   // UTC
		// Terms is append-only; the last element is the current offering.
		Terms     core.TermSequence `json:"terms"`
		Modules   []Module          `json:"modules"`
		CreatedAt time.Time         `json:"created_at"` // UTC
		UpdatedAt time.Time         `json:"updated_at"` // UTC
	}

	Module struct {
		ID      string   `json:"id"`
		Title   string   `json:"title"`
		Visible bool     `json:"visible"`
		Lessons []Lesson `json:"lessons"`
	}

	Lesson struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Content string `json:"content"`
		Visible bool   `json:"visible"`
	}

	Question struct {
		ID            string   `json:"id"`
		Text          string   `json:"text"`
		Options       []string `json:"options"`
		CorrectOption int      `json:"correct_option"` // index into Options
		Points        float64  `json:"points"`
	}

	Assignment struct {
		ID       string         `json:"id"`
		CourseID string         `json:"course_id"`
		Title    string         `json:"title"`
		Type     AssignmentType `json:"type"`
		Prompt   string         `json:"prompt,omitempty"`    // essay
		Questions []Question    `json:"questions,omitempty"` // quiz
		DueDate  time.Time      `json:"due_date"` // UTC
		// Terms is kept append-synchronized with the parent Course's terms via
		// AdvanceAssignmentTerm; history is never rewritten.
		Terms     core.TermSequence `json:"terms"`
		CreatedAt time.Time         `json:"created_at"` // UTC
		UpdatedAt time.Time         `json:"updated_at"` // UTC
	}
)

// CurrentTerm returns the course's active term.
func (c Course) CurrentTerm() (string, error) { return c.Terms.Current() }

// IsOpenAt reports whether t falls within the course's current date window.
func (c Course) IsOpenAt(t time.Time) bool {
	return !t.Before(c.StartDate) && !t.After(c.EndDate)
}

// CurrentTerm returns the assignment's active term.
func (a Assignment) CurrentTerm() (string, error) { return a.Terms.Current() }

func (a Assignment) IsQuiz() bool  { return a.Type == TypeQuiz }
func (a Assignment) IsEssay() bool { return a.Type == TypeEssay }

// TotalPoints sums the possible points of a quiz.
func (a Assignment) TotalPoints() float64 {
	var total float64
	for _, q := range a.Questions {
		total += q.Points
	}
	return total
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	SubjectID string    `json:"subject_id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Term      string    `json:"term" validate:"required"` // initial offering label
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

func (nc *NewCourse) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Term = core.CleanString(nc.Term)
	return core.Validate.Struct(nc)
}

// NewQuestion is one quiz question in a NewAssignment.
type NewQuestion struct {
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectOption int      `json:"correct_option" validate:"gte=0"`
	Points        float64  `json:"points" validate:"gt=0"`
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	CourseID  string         `json:"course_id" validate:"required"`
	Title     string         `json:"title" validate:"required"`
	Type      AssignmentType `json:"type" validate:"required,oneof=essay quiz"`
	Prompt    string         `json:"prompt"`
	Questions []NewQuestion  `json:"questions" validate:"dive"`
	DueDate   time.Time      `json:"due_date" validate:"required"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Prompt = core.CleanString(na.Prompt)
	return core.Validate.Struct(na)
}

// AdvanceTerm carries the inputs of a course term advancement.
type AdvanceTerm struct {
	Term      string    `json:"term" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

func (at *AdvanceTerm) Validate() error {
	at.Term = core.CleanString(at.Term)
	return core.Validate.Struct(at)
}
