package submission

import (
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("submission not found")
	ErrAppealNotFound   = core.NewNotFoundError("appeal not found")
	ErrDeadlinePassed   = core.NewStateConflictError("the assignment due date has passed")
	ErrAlreadySubmitted = core.NewStateConflictError("a submission already exists for this assignment and term")
	ErrAlreadyResolved  = core.NewStateConflictError("this appeal has already been resolved")
	ErrInvalidScore     = core.NewInvalidInputError("score must be a number between 0 and 10")
	ErrNotEssayType     = core.NewInvalidInputError("only essay assignments can be graded without a submission")
	ErrMissingTermData  = core.NewStateConflictError("submission has no term and the assignment has no term history to backfill from")
	ErrMissingContent   = core.NewInvalidInputError("essay content is required")
	ErrMissingAnswers   = core.NewInvalidInputError("quiz answers are required")
	ErrNotOwner         = core.NewForbiddenError("submission belongs to another student")
)

type (
	Repository interface {
		// CreateSubmission must reject a duplicate (student, assignment, term)
		// with ErrAlreadySubmitted, enforced by the store itself.
		CreateSubmission(sub Submission) (Submission, error)
		GetSubmissionByID(id string) (Submission, error)
		GetSubmission(studentID, assignmentID, term string) (Submission, error)
		QueryStudentSubmissions(studentID string, assignmentIDs []string) ([]Submission, error)
		// UpdateSubmissionWork replaces content/answers and the grade in one write.
		UpdateSubmissionWork(sub Submission) (Submission, error)
		// SetSubmissionGrade atomically sets the grade (and term, when backfilled)
		// of a single submission.
		SetSubmissionGrade(id, term string, grade Grade) (Submission, error)
		// AppendSubmissionAppeal and UpdateSubmissionAppeal mutate the owned
		// appeal collection within the submission aggregate.
		AppendSubmissionAppeal(submissionID string, ap Appeal) (Submission, error)
		UpdateSubmissionAppeal(submissionID string, ap Appeal) (Submission, error)
		QuerySubmissionsWithOpenAppeals() ([]Submission, error)
	}

	Service struct {
		repo       Repository
		courseRepo course.Repository
		notifSvc   core.NotificationService
		log        core.Logger
	}
)

func NewService(repo Repository, courseRepo course.Repository, notifSvc core.NotificationService, log core.Logger) *Service {
	return &Service{repo: repo, courseRepo: courseRepo, notifSvc: notifSvc, log: log}
}

// Submit records a student's work for an assignment, stamped with the
// assignment's current term. The deadline is enforced at submission time.
func (svc *Service) Submit(actor user.User, ns NewSubmission) (Submission, error) {
	if err := user.Require(actor, user.RoleStudent); err != nil {
		return Submission{}, err
	}
	if err := ns.Validate(); err != nil {
		return Submission{}, err
	}
	asg, err := svc.courseRepo.GetAssignmentByID(ns.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if core.NowFunc().After(asg.DueDate) {
		return Submission{}, ErrDeadlinePassed
	}
	if err := checkWork(asg, ns.Content, ns.Answers); err != nil {
		return Submission{}, err
	}
	term, err := asg.CurrentTerm()
	if err != nil {
		return Submission{}, err
	}
	if _, err := svc.repo.GetSubmission(actor.ID, asg.ID, term); err == nil {
		return Submission{}, ErrAlreadySubmitted
	}

	now := core.NowFunc()
	sub := Submission{
		ID:           uuid.New().String(),
		AssignmentID: asg.ID,
		StudentID:    actor.ID,
		Term:         term,
		Content:      ns.Content,
		Answers:      ns.Answers,
		SubmittedAt:  now,
		UpdatedAt:    now,
	}
	sub, err = svc.repo.CreateSubmission(sub)
	if err != nil {
		return Submission{}, err
	}

	svc.notifyInstructor(asg.CourseID, core.NotifySubmissionReceived, map[string]interface{}{
		"submission_id": sub.ID,
		"assignment_id": asg.ID,
		"student_id":    actor.ID,
	})
	return sub, nil
}

// Resubmit replaces a submission's work before the deadline. The grade is
// always reset: resubmitted work requires re-grading.
func (svc *Service) Resubmit(actor user.User, submissionID, content string, answers []Answer) (Submission, error) {
	if err := user.Require(actor, user.RoleStudent); err != nil {
		return Submission{}, err
	}
	sub, err := svc.repo.GetSubmissionByID(submissionID)
	if err != nil {
		return Submission{}, err
	}
	if sub.StudentID != actor.ID {
		return Submission{}, ErrNotOwner
	}
	asg, err := svc.courseRepo.GetAssignmentByID(sub.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if core.NowFunc().After(asg.DueDate) {
		return Submission{}, ErrDeadlinePassed
	}
	content = core.CleanString(content)
	if err := checkWork(asg, content, answers); err != nil {
		return Submission{}, err
	}

	sub.Content = content
	sub.Answers = answers
	sub.Grade = Grade{} // a resubmission always requires re-grading
	sub.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateSubmissionWork(sub)
}

// GradeManually records an instructor-assigned score on a submission.
// Submissions without a term stamp (historical data) are backfilled from the
// assignment's current term.
func (svc *Service) GradeManually(actor user.User, submissionID string, score float64) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(submissionID)
	if err != nil {
		return Submission{}, err
	}
	asg, crs, err := svc.assignmentAndCourse(sub.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if err := svc.requireCourseOwner(actor, crs); err != nil {
		return Submission{}, err
	}
	if !ValidScore(score) {
		return Submission{}, ErrInvalidScore
	}
	term := sub.Term
	if term == "" {
		if term, err = asg.CurrentTerm(); err != nil {
			return Submission{}, ErrMissingTermData
		}
	}

	grade := Grade{
		Score:    null.Float64From(score),
		GradedAt: null.TimeFrom(core.NowFunc()),
		GraderID: null.StringFrom(actor.ID),
	}
	return svc.repo.SetSubmissionGrade(sub.ID, term, grade)
}

// GradeWithoutSubmission lets an instructor record a grade for a student who
// never submitted. Essay assignments only: a quiz score must come from answers.
// It never overwrites an existing submission.
func (svc *Service) GradeWithoutSubmission(actor user.User, assignmentID, studentID string, score float64, content string) (Submission, error) {
	asg, crs, err := svc.assignmentAndCourse(assignmentID)
	if err != nil {
		return Submission{}, err
	}
	if err := svc.requireCourseOwner(actor, crs); err != nil {
		return Submission{}, err
	}
	if !asg.IsEssay() {
		return Submission{}, ErrNotEssayType
	}
	if !ValidScore(score) {
		return Submission{}, ErrInvalidScore
	}
	term, err := asg.CurrentTerm()
	if err != nil {
		return Submission{}, err
	}
	if _, err := svc.repo.GetSubmission(studentID, asg.ID, term); err == nil {
		return Submission{}, ErrAlreadySubmitted
	}

	now := core.NowFunc()
	sub := Submission{
		ID:           uuid.New().String(),
		AssignmentID: asg.ID,
		StudentID:    studentID,
		Term:         term,
		Content:      core.CleanString(content),
		Grade: Grade{
			Score:    null.Float64From(score),
			GradedAt: null.TimeFrom(now),
			GraderID: null.StringFrom(actor.ID),
		},
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateSubmission(sub)
}

// CourseSubmissions splits a student's submissions for a course into the
// course's current term vs earlier terms.
type CourseSubmissions struct {
	Current []Submission `json:"current"`
	Past    []Submission `json:"past"`
}

// ListForCourse returns a student's submissions across a course's assignments.
// Overdue ungraded quiz submissions are reconciled (auto-scored) on the way
// out; grading is therefore only guaranteed up to date after a read.
func (svc *Service) ListForCourse(actor user.User, studentID, courseID string) (CourseSubmissions, error) {
	if actor.IsStudent() && actor.ID != studentID {
		return CourseSubmissions{}, core.NewForbiddenError("students may only list their own submissions")
	}
	if err := user.Require(actor, user.RoleStudent, user.RoleInstructor, user.RoleAdmin, user.RoleParent); err != nil {
		return CourseSubmissions{}, err
	}
	crs, err := svc.courseRepo.GetCourseByID(courseID)
	if err != nil {
		return CourseSubmissions{}, err
	}
	asgs, err := svc.courseRepo.QueryAssignmentsByCourseID(courseID)
	if err != nil {
		return CourseSubmissions{}, err
	}
	asgByID := make(map[string]course.Assignment, len(asgs))
	asgIDs := make([]string, 0, len(asgs))
	for _, asg := range asgs {
		asgByID[asg.ID] = asg
		asgIDs = append(asgIDs, asg.ID)
	}
	subs, err := svc.repo.QueryStudentSubmissions(studentID, asgIDs)
	if err != nil {
		return CourseSubmissions{}, err
	}

	currentTerm, _ := crs.CurrentTerm() // empty on missing history; everything lands in Past

	var out CourseSubmissions
	for _, sub := range subs {
		if asg, ok := asgByID[sub.AssignmentID]; ok {
			if sub, err = svc.reconcileIfStale(sub, asg, crs); err != nil {
				return CourseSubmissions{}, err
			}
		}
		if currentTerm != "" && sub.Term == currentTerm {
			out.Current = append(out.Current, sub)
		} else {
			out.Past = append(out.Past, sub)
		}
	}
	return out, nil
}

// reconcileIfStale auto-scores an ungraded quiz submission whose deadline has
// passed or whose term is no longer the assignment's latest. Idempotent: once
// a grade is set it never recomputes. This is a cache-fill on read, not a
// background job.
func (svc *Service) reconcileIfStale(sub Submission, asg course.Assignment, crs course.Course) (Submission, error) {
	if !asg.IsQuiz() || sub.Grade.IsSet() {
		return sub, nil
	}
	asgTerm, err := asg.CurrentTerm()
	if err != nil {
		return sub, nil // no term history; nothing to judge staleness against
	}
	overdue := core.NowFunc().After(asg.DueDate)
	supersededTerm := sub.Term != "" && sub.Term != asgTerm
	if !overdue && !supersededTerm {
		return sub, nil
	}

	grade := Grade{
		Score:    null.Float64From(ScoreQuiz(asg, sub.Answers)),
		GradedAt: null.TimeFrom(core.NowFunc()),
		GraderID: null.StringFrom(crs.InstructorID), // sentinel grader
	}
	term := sub.Term
	if term == "" {
		term = asgTerm
	}
	return svc.repo.SetSubmissionGrade(sub.ID, term, grade)
}

func (svc *Service) assignmentAndCourse(assignmentID string) (course.Assignment, course.Course, error) {
	asg, err := svc.courseRepo.GetAssignmentByID(assignmentID)
	if err != nil {
		return course.Assignment{}, course.Course{}, err
	}
	crs, err := svc.courseRepo.GetCourseByID(asg.CourseID)
	if err != nil {
		return course.Assignment{}, course.Course{}, err
	}
	return asg, crs, nil
}

func (svc *Service) requireCourseOwner(actor user.User, crs course.Course) error {
	if actor.IsAdmin() {
		return nil
	}
	if err := user.Require(actor, user.RoleInstructor); err != nil {
		return err
	}
	if crs.InstructorID != actor.ID {
		return course.ErrNotCourseOwner
	}
	return nil
}

// notifyInstructor fires a notification at the course owner. Failures are the
// notification service's problem; they never surface here.
func (svc *Service) notifyInstructor(courseID, typ string, payload map[string]interface{}) {
	crs, err := svc.courseRepo.GetCourseByID(courseID)
	if err != nil {
		svc.log.Warn("notify: course lookup failed", err)
		return
	}
	svc.notifSvc.Notify(core.Notification{ToUserID: crs.InstructorID, Type: typ, Payload: payload})
}

func checkWork(asg course.Assignment, content string, answers []Answer) error {
	if asg.IsQuiz() {
		if len(answers) == 0 {
			return ErrMissingAnswers
		}
		return nil
	}
	if content == "" {
		return ErrMissingContent
	}
	return nil
}
