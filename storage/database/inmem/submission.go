package inmemdb

import (
	"github.com/trezcool/darasa/core/submission"
)

type submissionRepository struct {
	db *submissionTable
}

var _ submission.Repository = (*submissionRepository)(nil)

func NewSubmissionRepository(db *DB) submission.Repository {
	return &submissionRepository{db: db.submission}
}

// clone deep-copies the aggregate so callers never alias stored slices.
func clone(sub submission.Submission) submission.Submission {
	sub.Answers = append([]submission.Answer(nil), sub.Answers...)
	appeals := make([]submission.Appeal, len(sub.Appeals))
	for i, ap := range sub.Appeals {
		ap.Comments = append([]submission.Comment(nil), ap.Comments...)
		appeals[i] = ap
	}
	sub.Appeals = appeals
	return sub
}

// CreateSubmission enforces (student, assignment, term) uniqueness under the
// write lock.
func (repo *submissionRepository) CreateSubmission(sub submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, s := range repo.db.table {
		if s.StudentID == sub.StudentID && s.AssignmentID == sub.AssignmentID && s.Term == sub.Term {
			return submission.Submission{}, submission.ErrAlreadySubmitted
		}
	}
	sub = clone(sub)
	repo.db.table[sub.ID] = &sub
	return clone(sub), nil
}

func (repo *submissionRepository) GetSubmissionByID(id string) (submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.table[id]; ok {
		return clone(*sub), nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) GetSubmission(studentID, assignmentID, term string) (submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, sub := range repo.db.table {
		if sub.StudentID == studentID && sub.AssignmentID == assignmentID && sub.Term == term {
			return clone(*sub), nil
		}
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) QueryStudentSubmissions(studentID string, assignmentIDs []string) ([]submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	wanted := make(map[string]bool, len(assignmentIDs))
	for _, id := range assignmentIDs {
		wanted[id] = true
	}
	var subs []submission.Submission
	for _, sub := range repo.db.table {
		if sub.StudentID == studentID && wanted[sub.AssignmentID] {
			subs = append(subs, clone(*sub))
		}
	}
	return subs, nil
}

func (repo *submissionRepository) UpdateSubmissionWork(sub submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.table[sub.ID]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	stored.Content = sub.Content
	stored.Answers = append([]submission.Answer(nil), sub.Answers...)
	stored.Grade = sub.Grade
	stored.UpdatedAt = sub.UpdatedAt
	return clone(*stored), nil
}

func (repo *submissionRepository) SetSubmissionGrade(id, term string, grade submission.Grade) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.table[id]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	stored.Term = term
	stored.Grade = grade
	if grade.GradedAt.Valid {
		stored.UpdatedAt = grade.GradedAt.Time
	}
	return clone(*stored), nil
}

func (repo *submissionRepository) AppendSubmissionAppeal(submissionID string, ap submission.Appeal) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.table[submissionID]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	ap.Comments = append([]submission.Comment(nil), ap.Comments...)
	stored.AppendAppeal(ap)
	return clone(*stored), nil
}

func (repo *submissionRepository) UpdateSubmissionAppeal(submissionID string, ap submission.Appeal) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.table[submissionID]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	existing, ok := stored.FindAppeal(ap.ID)
	if !ok {
		return submission.Submission{}, submission.ErrAppealNotFound
	}
	ap.Comments = append([]submission.Comment(nil), ap.Comments...)
	*existing = ap
	return clone(*stored), nil
}

func (repo *submissionRepository) QuerySubmissionsWithOpenAppeals() ([]submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var subs []submission.Submission
	for _, sub := range repo.db.table {
		for _, ap := range sub.Appeals {
			if !ap.IsResolved() {
				subs = append(subs, clone(*sub))
				break
			}
		}
	}
	return subs, nil
}
