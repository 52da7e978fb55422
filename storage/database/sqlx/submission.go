package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/submission"
)

type submissionRepository struct {
	db *sqlx.DB
}

var _ submission.Repository = (*submissionRepository)(nil)

func NewSubmissionRepository(db *sqlx.DB) submission.Repository {
	return &submissionRepository{db: db}
}

type submissionRow struct {
	ID           string       `db:"id"`
	AssignmentID string       `db:"assignment_id"`
	StudentID    string       `db:"student_id"`
	Term         string       `db:"term"`
	Content      string       `db:"content"`
	Answers      jsonRaw      `db:"answers"`
	Score        null.Float64 `db:"score"`
	GradedAt     null.Time    `db:"graded_at"`
	GraderID     null.String  `db:"grader_id"`
	Appeals      jsonRaw      `db:"appeals"`
	SubmittedAt  time.Time    `db:"submitted_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r submissionRow) unrow() submission.Submission {
	sub := submission.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		StudentID:    r.StudentID,
		Term:         r.Term,
		Content:      r.Content,
		Grade: submission.Grade{
			Score:    r.Score,
			GradedAt: r.GradedAt,
			GraderID: r.GraderID,
		},
		SubmittedAt: r.SubmittedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	unmarshalJSON(r.Answers, &sub.Answers)
	unmarshalJSON(r.Appeals, &sub.Appeals)
	return sub
}

// CreateSubmission relies on the submission_student_assignment_term_key
// unique index to reject duplicate work for the same term.
func (repo *submissionRepository) CreateSubmission(sub submission.Submission) (submission.Submission, error) {
	const q = `INSERT INTO submission
		(id, assignment_id, student_id, term, content, answers, score, graded_at, grader_id, appeals, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := repo.db.Exec(q,
		sub.ID, sub.AssignmentID, sub.StudentID, sub.Term, sub.Content, marshalJSON(sub.Answers),
		sub.Grade.Score, sub.Grade.GradedAt, sub.Grade.GraderID, marshalJSON(sub.Appeals),
		sub.SubmittedAt, sub.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "submission_student_assignment_term_key") {
			return submission.Submission{}, submission.ErrAlreadySubmitted
		}
		return submission.Submission{}, err
	}
	return sub, nil
}

func (repo *submissionRepository) GetSubmissionByID(id string) (submission.Submission, error) {
	var row submissionRow
	if err := repo.db.Get(&row, `SELECT * FROM submission WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, err
	}
	return row.unrow(), nil
}

func (repo *submissionRepository) GetSubmission(studentID, assignmentID, term string) (submission.Submission, error) {
	var row submissionRow
	const q = `SELECT * FROM submission WHERE student_id = $1 AND assignment_id = $2 AND term = $3`
	if err := repo.db.Get(&row, q, studentID, assignmentID, term); err != nil {
		if err == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, err
	}
	return row.unrow(), nil
}

func (repo *submissionRepository) QueryStudentSubmissions(studentID string, assignmentIDs []string) ([]submission.Submission, error) {
	if len(assignmentIDs) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In(
		`SELECT * FROM submission WHERE student_id = ? AND assignment_id IN (?) ORDER BY submitted_at DESC`,
		studentID, assignmentIDs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "expanding IN clause")
	}
	var rows []submissionRow
	if err := repo.db.Select(&rows, repo.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	subs := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.unrow())
	}
	return subs, nil
}

func (repo *submissionRepository) UpdateSubmissionWork(sub submission.Submission) (submission.Submission, error) {
	var row submissionRow
	const q = `UPDATE submission
		SET content = $2, answers = $3, score = $4, graded_at = $5, grader_id = $6, updated_at = $7
		WHERE id = $1 RETURNING *`
	err := repo.db.QueryRowx(q,
		sub.ID, sub.Content, marshalJSON(sub.Answers),
		sub.Grade.Score, sub.Grade.GradedAt, sub.Grade.GraderID, sub.UpdatedAt,
	).StructScan(&row)
	if err != nil {
		if err == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, err
	}
	return row.unrow(), nil
}

// SetSubmissionGrade is a single-statement atomic field update.
func (repo *submissionRepository) SetSubmissionGrade(id, term string, grade submission.Grade) (submission.Submission, error) {
	var row submissionRow
	const q = `UPDATE submission
		SET term = $2, score = $3, graded_at = $4, grader_id = $5, updated_at = COALESCE($4, updated_at)
		WHERE id = $1 RETURNING *`
	err := repo.db.QueryRowx(q, id, term, grade.Score, grade.GradedAt, grade.GraderID).StructScan(&row)
	if err != nil {
		if err == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, err
	}
	return row.unrow(), nil
}

// AppendSubmissionAppeal appends to the owned appeal collection with a single
// jsonb concatenation, keeping the aggregate update atomic.
func (repo *submissionRepository) AppendSubmissionAppeal(submissionID string, ap submission.Appeal) (submission.Submission, error) {
	var row submissionRow
	const q = `UPDATE submission SET appeals = appeals || $2::jsonb, updated_at = now()
		WHERE id = $1 RETURNING *`
	err := repo.db.QueryRowx(q, submissionID, marshalJSON([]submission.Appeal{ap})).StructScan(&row)
	if err != nil {
		if err == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, err
	}
	return row.unrow(), nil
}

// UpdateSubmissionAppeal rewrites one appeal inside the aggregate under a
// row lock so concurrent resolutions serialize on the document.
func (repo *submissionRepository) UpdateSubmissionAppeal(submissionID string, ap submission.Appeal) (submission.Submission, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	var row submissionRow
	if err = tx.Get(&row, `SELECT * FROM submission WHERE id = $1 FOR UPDATE`, submissionID); err != nil {
		if err == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, err
	}
	sub := row.unrow()
	existing, ok := sub.FindAppeal(ap.ID)
	if !ok {
		return submission.Submission{}, submission.ErrAppealNotFound
	}
	*existing = ap

	const q = `UPDATE submission SET appeals = $2, updated_at = now() WHERE id = $1`
	if _, err = tx.Exec(q, submissionID, marshalJSON(sub.Appeals)); err != nil {
		return submission.Submission{}, err
	}
	if err = tx.Commit(); err != nil {
		return submission.Submission{}, errors.Wrap(err, "committing tx")
	}
	return sub, nil
}

func (repo *submissionRepository) QuerySubmissionsWithOpenAppeals() ([]submission.Submission, error) {
	var rows []submissionRow
	const q = `SELECT * FROM submission WHERE appeals @> '[{"status": "open"}]'::jsonb`
	if err := repo.db.Select(&rows, q); err != nil {
		return nil, err
	}
	subs := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.unrow())
	}
	return subs, nil
}
