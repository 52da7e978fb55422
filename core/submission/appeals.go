package submission

import (
	"sort"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var errEmptyText = core.NewInvalidInputError("comment text is required")

// FileAppeal opens a grade dispute on a submission with one seed comment from
// the student. The appeal carries the submission's term stamp.
func (svc *Service) FileAppeal(actor user.User, submissionID, text string) (Appeal, error) {
	if err := user.Require(actor, user.RoleStudent); err != nil {
		return Appeal{}, err
	}
	text = core.CleanString(text)
	if text == "" {
		return Appeal{}, errEmptyText
	}
	sub, err := svc.repo.GetSubmissionByID(submissionID)
	if err != nil {
		return Appeal{}, err
	}
	if sub.StudentID != actor.ID {
		return Appeal{}, ErrNotOwner
	}

	now := core.NowFunc()
	ap := Appeal{
		ID:     uuid.New().String(),
		Term:   sub.Term,
		Status: AppealOpen,
		Comments: []Comment{{
			ID:        uuid.New().String(),
			AuthorID:  actor.ID,
			Text:      text,
			CreatedAt: now,
		}},
		CreatedAt: now,
	}
	if _, err = svc.repo.AppendSubmissionAppeal(sub.ID, ap); err != nil {
		return Appeal{}, err
	}

	asg, err := svc.courseRepo.GetAssignmentByID(sub.AssignmentID)
	if err == nil {
		svc.notifyInstructor(asg.CourseID, core.NotifyAppealFiled, map[string]interface{}{
			"submission_id": sub.ID,
			"appeal_id":     ap.ID,
			"student_id":    actor.ID,
		})
	}
	return ap, nil
}

// AddComment appends commentary to an appeal. Allowed on resolved appeals too;
// only the status is frozen, not the conversation.
func (svc *Service) AddComment(actor user.User, submissionID, appealID, text string) (Appeal, error) {
	text = core.CleanString(text)
	if text == "" {
		return Appeal{}, errEmptyText
	}
	sub, err := svc.repo.GetSubmissionByID(submissionID)
	if err != nil {
		return Appeal{}, err
	}
	if err := svc.requireParticipant(actor, sub); err != nil {
		return Appeal{}, err
	}
	ap, ok := sub.FindAppeal(appealID)
	if !ok {
		return Appeal{}, ErrAppealNotFound
	}

	ap.Comments = append(ap.Comments, Comment{
		ID:        uuid.New().String(),
		AuthorID:  actor.ID,
		Text:      text,
		CreatedAt: core.NowFunc(),
	})
	if _, err = svc.repo.UpdateSubmissionAppeal(sub.ID, *ap); err != nil {
		return Appeal{}, err
	}
	return *ap, nil
}

// ResolveAppeal closes an appeal exactly once, with a mandatory explanation.
// An optional new score revises the submission's grade, re-stamped to the
// resolving instructor.
func (svc *Service) ResolveAppeal(actor user.User, submissionID, appealID, commentText string, newScore *float64) (Appeal, error) {
	commentText = core.CleanString(commentText)
	if commentText == "" {
		return Appeal{}, errEmptyText
	}
	sub, err := svc.repo.GetSubmissionByID(submissionID)
	if err != nil {
		return Appeal{}, err
	}
	_, crs, err := svc.assignmentAndCourse(sub.AssignmentID)
	if err != nil {
		return Appeal{}, err
	}
	if err := svc.requireCourseOwner(actor, crs); err != nil {
		return Appeal{}, err
	}
	ap, ok := sub.FindAppeal(appealID)
	if !ok {
		return Appeal{}, ErrAppealNotFound
	}
	if ap.IsResolved() {
		return Appeal{}, ErrAlreadyResolved
	}
	if newScore != nil && !ValidScore(*newScore) {
		return Appeal{}, ErrInvalidScore
	}

	now := core.NowFunc()
	ap.Comments = append(ap.Comments, Comment{
		ID:        uuid.New().String(),
		AuthorID:  actor.ID,
		Text:      commentText,
		CreatedAt: now,
	})
	ap.Status = AppealResolved
	ap.ResolvedAt = null.TimeFrom(now)
	if _, err = svc.repo.UpdateSubmissionAppeal(sub.ID, *ap); err != nil {
		return Appeal{}, err
	}

	if newScore != nil {
		grade := Grade{
			Score:    null.Float64From(*newScore),
			GradedAt: null.TimeFrom(now),
			GraderID: null.StringFrom(actor.ID),
		}
		if _, err = svc.repo.SetSubmissionGrade(sub.ID, sub.Term, grade); err != nil {
			return Appeal{}, err
		}
	}

	svc.notifSvc.Notify(core.Notification{
		ToUserID: sub.StudentID,
		Type:     core.NotifyAppealResolved,
		Payload: map[string]interface{}{
			"submission_id": sub.ID,
			"appeal_id":     ap.ID,
		},
	})
	return *ap, nil
}

// OpenAppeal is one open dispute in an instructor's queue.
type OpenAppeal struct {
	SubmissionID string `json:"submission_id"`
	AssignmentID string `json:"assignment_id"`
	CourseID     string `json:"course_id"`
	StudentID    string `json:"student_id"`
	Appeal       Appeal `json:"appeal"`
	// CurrentTerm marks appeals stamped with the course's active term; those
	// sort first. Historical records missing either term are kept, unmarked.
	CurrentTerm bool `json:"current_term"`
}

// ListOpenAppeals returns the open appeals across all courses the instructor
// owns, current-term disputes first, then newest first.
func (svc *Service) ListOpenAppeals(actor user.User, instructorID string) ([]OpenAppeal, error) {
	if err := user.Require(actor, user.RoleInstructor, user.RoleAdmin); err != nil {
		return nil, err
	}
	if actor.IsInstructor() && !actor.IsAdmin() && actor.ID != instructorID {
		return nil, core.NewForbiddenError("instructors may only list their own appeal queue")
	}
	subs, err := svc.repo.QuerySubmissionsWithOpenAppeals()
	if err != nil {
		return nil, err
	}

	var out []OpenAppeal
	for _, sub := range subs {
		asg, crs, err := svc.assignmentAndCourse(sub.AssignmentID)
		if err != nil {
			continue // orphaned historical record
		}
		if crs.InstructorID != instructorID {
			continue
		}
		courseTerm, _ := crs.CurrentTerm()
		for _, ap := range sub.Appeals {
			if ap.IsResolved() {
				continue
			}
			out = append(out, OpenAppeal{
				SubmissionID: sub.ID,
				AssignmentID: asg.ID,
				CourseID:     crs.ID,
				StudentID:    sub.StudentID,
				Appeal:       ap,
				CurrentTerm:  ap.Term != "" && courseTerm != "" && ap.Term == courseTerm,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CurrentTerm != out[j].CurrentTerm {
			return out[i].CurrentTerm
		}
		return out[i].Appeal.CreatedAt.After(out[j].Appeal.CreatedAt)
	})
	return out, nil
}

// requireParticipant allows the submission's student, the course's instructor
// or an admin.
func (svc *Service) requireParticipant(actor user.User, sub Submission) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.IsStudent() {
		if sub.StudentID != actor.ID {
			return ErrNotOwner
		}
		return nil
	}
	if actor.IsInstructor() {
		_, crs, err := svc.assignmentAndCourse(sub.AssignmentID)
		if err != nil {
			return err
		}
		return svc.requireCourseOwner(actor, crs)
	}
	return core.NewForbiddenError("operation not permitted for this role")
}
