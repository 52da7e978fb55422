package enrollment

import (
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("enrollment not found")
	ErrAlreadyEnrolled    = core.NewStateConflictError("already enrolled in this course for the current term")
	ErrCourseNotOpen      = core.NewStateConflictError("the course has not opened yet")
	ErrCourseClosed       = core.NewStateConflictError("the course has already closed")
	ErrSubjectNotApproved = core.NewStateConflictError("the course's subject is not approved")
	ErrInvalidStatus      = core.NewInvalidInputError("invalid enrollment status")
)

type (
	Repository interface {
		// CreateEnrollment must reject a duplicate (student, course, term) with
		// ErrAlreadyEnrolled. The store itself carries this uniqueness
		// invariant; the service's read-check alone cannot serialize
		// concurrent enrolls.
		CreateEnrollment(enr Enrollment) (Enrollment, error)
		GetEnrollment(studentID, courseID, term string) (Enrollment, error)
		GetEnrollmentByID(id string) (Enrollment, error)
		QueryStudentEnrollments(studentID string) ([]Enrollment, error)
		UpdateEnrollmentStatus(id string, status Status) (Enrollment, error)
	}

	Service struct {
		repo     Repository
		subjects subject.Repository
		courses  course.Repository
		subs     submission.Repository
	}
)

func NewService(repo Repository, subjects subject.Repository, courses course.Repository, subs submission.Repository) *Service {
	return &Service{repo: repo, subjects: subjects, courses: courses, subs: subs}
}

// Enroll admits a student into a course's current term after walking the
// subject's prerequisite chain. Read-only up to the final create; failures
// always name the blocking reason.
func (svc *Service) Enroll(actor user.User, courseID string) (Enrollment, error) {
	if err := user.Require(actor, user.RoleStudent); err != nil {
		return Enrollment{}, err
	}
	crs, err := svc.courses.GetCourseByID(courseID)
	if err != nil {
		return Enrollment{}, err
	}

	now := core.NowFunc()
	if now.Before(crs.StartDate) {
		return Enrollment{}, ErrCourseNotOpen
	}
	if now.After(crs.EndDate) {
		return Enrollment{}, ErrCourseClosed
	}

	term, err := crs.CurrentTerm()
	if err != nil {
		return Enrollment{}, err
	}
	if _, err := svc.repo.GetEnrollment(actor.ID, crs.ID, term); err == nil {
		return Enrollment{}, ErrAlreadyEnrolled
	}

	sub, err := svc.subjects.GetSubjectByID(crs.SubjectID)
	if err != nil {
		return Enrollment{}, err
	}
	if sub.Status != subject.StatusApproved {
		return Enrollment{}, ErrSubjectNotApproved
	}

	if err := svc.checkPrerequisites(actor.ID, sub); err != nil {
		return Enrollment{}, err
	}

	enr := Enrollment{
		ID:         uuid.New().String(),
		StudentID:  actor.ID,
		CourseID:   crs.ID,
		Term:       term,
		Status:     StatusActive,
		EnrolledAt: now,
	}
	return svc.repo.CreateEnrollment(enr)
}

// checkPrerequisites validates the subject's prerequisite chain for a student.
//
// Fast path: a student with any enrollment in any sibling course of the same
// subject is already progressing in this track and skips the chain entirely.
func (svc *Service) checkPrerequisites(studentID string, sub subject.Subject) error {
	enrs, err := svc.repo.QueryStudentEnrollments(studentID)
	if err != nil {
		return err
	}

	if ok, err := svc.enrolledInSubject(enrs, sub.ID); err != nil {
		return err
	} else if ok {
		return nil // sibling-course fast path
	}

	for _, prereqID := range sub.PrerequisiteIDs {
		prereq, err := svc.subjects.GetSubjectByID(prereqID)
		if err != nil {
			return err
		}
		if err := svc.checkPrerequisite(studentID, enrs, prereq); err != nil {
			return err
		}
	}
	return nil
}

// checkPrerequisite requires graded submissions for every assignment of the
// prerequisite subject offered in the term of the student's most recent
// enrollment in that subject.
func (svc *Service) checkPrerequisite(studentID string, enrs []Enrollment, prereq subject.Subject) error {
	courses, err := svc.courses.QueryCoursesBySubjectID(prereq.ID)
	if err != nil {
		return err
	}
	courseIDs := make(map[string]bool, len(courses))
	for _, crs := range courses {
		courseIDs[crs.ID] = true
	}

	var latest *Enrollment
	for i := range enrs {
		if !courseIDs[enrs[i].CourseID] {
			continue
		}
		if latest == nil || enrs[i].EnrolledAt.After(latest.EnrolledAt) {
			latest = &enrs[i]
		}
	}
	if latest == nil {
		return &core.PrerequisiteError{Reason: core.PrerequisiteNeverEnrolled, SubjectCode: prereq.Code}
	}
	term := latest.Term

	for _, crs := range courses {
		asgs, err := svc.courses.QueryAssignmentsByCourseID(crs.ID)
		if err != nil {
			return err
		}
		for _, asg := range asgs {
			if !asg.Terms.Contains(term) {
				continue // not offered that term; vacuously satisfied
			}
			work, err := svc.subs.GetSubmission(studentID, asg.ID, term)
			if err != nil || !work.Grade.IsSet() {
				return &core.PrerequisiteError{
					Reason:      core.PrerequisiteIncomplete,
					SubjectCode: prereq.Code,
					Term:        term,
				}
			}
		}
	}
	return nil
}

func (svc *Service) enrolledInSubject(enrs []Enrollment, subjectID string) (bool, error) {
	if len(enrs) == 0 {
		return false, nil
	}
	courses, err := svc.courses.QueryCoursesBySubjectID(subjectID)
	if err != nil {
		return false, err
	}
	for _, crs := range courses {
		for _, enr := range enrs {
			if enr.CourseID == crs.ID {
				return true, nil
			}
		}
	}
	return false, nil
}

// List returns a student's enrollments, newest first, optionally filtered by
// course. Students may only list their own.
func (svc *Service) List(actor user.User, studentID string, courseID ...string) ([]Enrollment, error) {
	if err := user.Require(actor, user.RoleStudent, user.RoleInstructor, user.RoleAdmin); err != nil {
		return nil, err
	}
	if actor.IsStudent() && actor.ID != studentID {
		return nil, core.NewForbiddenError("students may only list their own enrollments")
	}
	enrs, err := svc.repo.QueryStudentEnrollments(studentID)
	if err != nil {
		return nil, err
	}

	if len(courseID) > 0 && courseID[0] != "" {
		filtered := enrs[:0]
		for _, enr := range enrs {
			if enr.CourseID == courseID[0] {
				filtered = append(filtered, enr)
			}
		}
		enrs = filtered
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].EnrolledAt.After(enrs[j].EnrolledAt) })
	return enrs, nil
}

// SetStatus transitions an enrollment's lifecycle status. A student may drop
// their own enrollment; instructors and admins may set any status.
func (svc *Service) SetStatus(actor user.User, enrollmentID string, status Status) (Enrollment, error) {
	if !status.Valid() {
		return Enrollment{}, ErrInvalidStatus
	}
	enr, err := svc.repo.GetEnrollmentByID(enrollmentID)
	if err != nil {
		return Enrollment{}, err
	}
	if actor.IsStudent() {
		if enr.StudentID != actor.ID {
			return Enrollment{}, core.NewForbiddenError("students may only update their own enrollments")
		}
		if status != StatusDropped {
			return Enrollment{}, core.NewForbiddenError("students may only drop an enrollment")
		}
	} else if err := user.Require(actor, user.RoleInstructor, user.RoleAdmin); err != nil {
		return Enrollment{}, err
	}
	return svc.repo.UpdateEnrollmentStatus(enr.ID, status)
}
