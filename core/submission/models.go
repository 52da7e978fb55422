package submission

import (
	"math"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

// Grade score bounds.
const (
	MinScore = 0
	MaxScore = 10
)

// AppealStatus is an Appeal's lifecycle state: open (initial) -> resolved (terminal).
type AppealStatus string

const (
	AppealOpen     AppealStatus = "open"
	AppealResolved AppealStatus = "resolved"
)

type (
	Answer struct {
		QuestionID     string `json:"question_id"`
		SelectedOption int    `json:"selected_option"`
	}

	Grade struct {
		Score    null.Float64 `json:"score"` // in [0,10] when set
		GradedAt null.Time    `json:"graded_at"`
		GraderID null.String  `json:"grader_id"`
	}

	Comment struct {
		ID        string    `json:"id"`
		AuthorID  string    `json:"author_id"`
		Text      string    `json:"text"`
		CreatedAt time.Time `json:"created_at"` // UTC
	}

	Appeal struct {
		ID         string       `json:"id"`
		Term       string       `json:"term,omitempty"` // stamped from the submission; may be absent on historical data
		Status     AppealStatus `json:"status"`
		Comments   []Comment    `json:"comments"`
		CreatedAt  time.Time    `json:"created_at"` // UTC
		ResolvedAt null.Time    `json:"resolved_at"`
	}

	// Submission is the aggregate root; Appeals are owned by it and only
	// mutated through FindAppeal/AppendAppeal within a single-document update.
	Submission struct {
		ID           string    `json:"id"`
		AssignmentID string    `json:"assignment_id"`
		StudentID    string    `json:"student_id"`
		Term         string    `json:"term"`
		Content      string    `json:"content,omitempty"` // essay
		Answers      []Answer  `json:"answers,omitempty"` // quiz
		Grade        Grade     `json:"grade"`
		Appeals      []Appeal  `json:"appeals,omitempty"`
		SubmittedAt  time.Time `json:"submitted_at"` // UTC
		UpdatedAt    time.Time `json:"updated_at"`   // UTC
	}
)

func (g Grade) IsSet() bool { return g.Score.Valid }

func (ap Appeal) IsResolved() bool { return ap.Status == AppealResolved }

// FindAppeal looks an owned Appeal up by id.
func (sub *Submission) FindAppeal(id string) (*Appeal, bool) {
	for i := range sub.Appeals {
		if sub.Appeals[i].ID == id {
			return &sub.Appeals[i], true
		}
	}
	return nil, false
}

// AppendAppeal adds an Appeal to the aggregate.
func (sub *Submission) AppendAppeal(ap Appeal) {
	sub.Appeals = append(sub.Appeals, ap)
}

// ValidScore reports whether s is a usable grade score.
func ValidScore(s float64) bool {
	return !math.IsNaN(s) && !math.IsInf(s, 0) && s >= MinScore && s <= MaxScore
}

// ScoreQuiz deterministically scores a set of quiz answers against the
// assignment's questions: points of correctly answered questions over total
// possible points, scaled to [0,10] and rounded to 2 decimal places.
func ScoreQuiz(asg course.Assignment, answers []Answer) float64 {
	total := asg.TotalPoints()
	if total == 0 {
		return 0
	}
	selected := make(map[string]int, len(answers))
	for _, ans := range answers {
		selected[ans.QuestionID] = ans.SelectedOption
	}
	var earned float64
	for _, q := range asg.Questions {
		if opt, ok := selected[q.ID]; ok && opt == q.CorrectOption {
			earned += q.Points
		}
	}
	return math.Round(earned/total*MaxScore*100) / 100
}

// NewSubmission contains information needed to submit work for an assignment.
type NewSubmission struct {
	AssignmentID string   `json:"assignment_id" validate:"required"`
	Content      string   `json:"content"`
	Answers      []Answer `json:"answers"`
}

func (ns *NewSubmission) Validate() error {
	ns.Content = core.CleanString(ns.Content)
	return core.Validate.Struct(ns)
}
