package course

import (
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("course not found")
	ErrAssignmentNotFound = core.NewNotFoundError("assignment not found")
	ErrModuleNotFound     = core.NewNotFoundError("module not found")
	ErrLessonNotFound     = core.NewNotFoundError("lesson not found")
	ErrTermNotYetClosed   = core.NewStateConflictError("the current term has not ended yet")
	ErrDueDateOutOfWindow = core.NewInvalidInputError("due date must fall within the course's current date window")
	ErrNotCourseOwner     = core.NewForbiddenError("only the owning instructor or an admin may do this")
)

type (
	Repository interface {
		CreateCourse(crs Course) (Course, error)
		GetCourseByID(id string) (Course, error)
		QueryCoursesBySubjectID(subjectID string) ([]Course, error)
		// UpdateCourse replaces the whole course aggregate (terms, window, modules).
		UpdateCourse(crs Course) (Course, error)

		CreateAssignment(asg Assignment) (Assignment, error)
		GetAssignmentByID(id string) (Assignment, error)
		QueryAssignmentsByCourseID(courseID string) ([]Assignment, error)
		UpdateAssignment(asg Assignment) (Assignment, error)
	}

	Service struct {
		repo        Repository
		subjectRepo subject.Repository
	}
)

func NewService(repo Repository, subjectRepo subject.Repository) *Service {
	return &Service{repo: repo, subjectRepo: subjectRepo}
}

func (svc *Service) Create(actor user.User, nc NewCourse) (Course, error) {
	if err := user.Require(actor, user.RoleInstructor, user.RoleAdmin); err != nil {
		return Course{}, err
	}
	if err := nc.Validate(); err != nil {
		return Course{}, err
	}
	if _, err := svc.subjectRepo.GetSubjectByID(nc.SubjectID); err != nil {
		return Course{}, err
	}

	now := core.NowFunc()
	crs := Course{
		ID:           uuid.New().String(),
		SubjectID:    nc.SubjectID,
		InstructorID: actor.ID,
		Name:         nc.Name,
		StartDate:    nc.StartDate.UTC(),
		EndDate:      nc.EndDate.UTC(),
		Terms:        core.TermSequence{nc.Term},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateCourse(crs)
}

func (svc *Service) GetByID(id string) (Course, error) {
	return svc.repo.GetCourseByID(id)
}

func (svc *Service) GetAssignment(id string) (Assignment, error) {
	return svc.repo.GetAssignmentByID(id)
}

func (svc *Service) QueryAssignments(courseID string) ([]Assignment, error) {
	return svc.repo.QueryAssignmentsByCourseID(courseID)
}

// requireOwner allows the owning instructor or any admin.
func (svc *Service) requireOwner(actor user.User, crs Course) error {
	if actor.IsAdmin() {
		return nil
	}
	if err := user.Require(actor, user.RoleInstructor); err != nil {
		return err
	}
	if crs.InstructorID != actor.ID {
		return ErrNotCourseOwner
	}
	return nil
}

// AddAssignment attaches a new Assignment to a course, seeded with the
// course's current term. The due date must fall within the course window.
func (svc *Service) AddAssignment(actor user.User, na NewAssignment) (Assignment, error) {
	if err := na.Validate(); err != nil {
		return Assignment{}, err
	}
	crs, err := svc.repo.GetCourseByID(na.CourseID)
	if err != nil {
		return Assignment{}, err
	}
	if err := svc.requireOwner(actor, crs); err != nil {
		return Assignment{}, err
	}
	due := na.DueDate.UTC()
	if due.Before(crs.StartDate) || due.After(crs.EndDate) {
		return Assignment{}, ErrDueDateOutOfWindow
	}
	term, err := crs.CurrentTerm()
	if err != nil {
		return Assignment{}, err
	}

	now := core.NowFunc()
	asg := Assignment{
		ID:        uuid.New().String(),
		CourseID:  crs.ID,
		Title:     na.Title,
		Type:      na.Type,
		Prompt:    na.Prompt,
		DueDate:   due,
		Terms:     core.TermSequence{term},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, nq := range na.Questions {
		asg.Questions = append(asg.Questions, Question{
			ID:            uuid.New().String(),
			Text:          nq.Text,
			Options:       nq.Options,
			CorrectOption: nq.CorrectOption,
			Points:        nq.Points,
		})
	}
	return svc.repo.CreateAssignment(asg)
}

// AdvanceCourseTerm opens a new offering of the course: appends the new term
// and replaces the date window. Only legal once the current window has closed.
// Existing Assignments and Enrollments keep their original term stamps.
func (svc *Service) AdvanceCourseTerm(actor user.User, courseID string, at AdvanceTerm) (Course, error) {
	if err := at.Validate(); err != nil {
		return Course{}, err
	}
	crs, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return Course{}, err
	}
	if err := svc.requireOwner(actor, crs); err != nil {
		return Course{}, err
	}
	if !core.NowFunc().After(crs.EndDate) {
		return Course{}, ErrTermNotYetClosed
	}
	terms, err := crs.Terms.Appended(at.Term)
	if err != nil {
		return Course{}, err
	}

	crs.Terms = terms
	crs.StartDate = at.StartDate.UTC()
	crs.EndDate = at.EndDate.UTC()
	crs.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateCourse(crs)
}

// AdvanceAssignmentTerm re-opens an assignment for the course's current term
// with a new due date. Only legal once the previous due date has passed.
func (svc *Service) AdvanceAssignmentTerm(actor user.User, assignmentID string, newDueDate time.Time) (Assignment, error) {
	asg, err := svc.repo.GetAssignmentByID(assignmentID)
	if err != nil {
		return Assignment{}, err
	}
	crs, err := svc.repo.GetCourseByID(asg.CourseID)
	if err != nil {
		return Assignment{}, err
	}
	if err := svc.requireOwner(actor, crs); err != nil {
		return Assignment{}, err
	}
	if !core.NowFunc().After(asg.DueDate) {
		return Assignment{}, ErrTermNotYetClosed
	}
	due := newDueDate.UTC()
	if due.Before(crs.StartDate) || due.After(crs.EndDate) {
		return Assignment{}, ErrDueDateOutOfWindow
	}
	term, err := crs.CurrentTerm()
	if err != nil {
		return Assignment{}, err
	}

	if !asg.Terms.Contains(term) {
		terms, err := asg.Terms.Appended(term)
		if err != nil {
			return Assignment{}, err
		}
		asg.Terms = terms
	}
	asg.DueDate = due
	asg.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateAssignment(asg)
}

// AddModule appends a content module to the course tree.
func (svc *Service) AddModule(actor user.User, courseID, title string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return Course{}, err
	}
	if err := svc.requireOwner(actor, crs); err != nil {
		return Course{}, err
	}
	title = core.CleanString(title)
	if title == "" {
		return Course{}, core.NewInvalidInputError("module title is required")
	}

	crs.Modules = append(crs.Modules, Module{ID: uuid.New().String(), Title: title, Visible: true})
	crs.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateCourse(crs)
}

// AddLesson appends a lesson to an existing module.
func (svc *Service) AddLesson(actor user.User, courseID, moduleID, title, content string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return Course{}, err
	}
	if err := svc.requireOwner(actor, crs); err != nil {
		return Course{}, err
	}
	title = core.CleanString(title)
	if title == "" {
		return Course{}, core.NewInvalidInputError("lesson title is required")
	}

	for i := range crs.Modules {
		if crs.Modules[i].ID == moduleID {
			crs.Modules[i].Lessons = append(crs.Modules[i].Lessons, Lesson{
				ID:      uuid.New().String(),
				Title:   title,
				Content: content,
				Visible: true,
			})
			crs.UpdatedAt = core.NowFunc()
			return svc.repo.UpdateCourse(crs)
		}
	}
	return Course{}, ErrModuleNotFound
}

// SetModuleVisibility toggles a module's visibility to students.
func (svc *Service) SetModuleVisibility(actor user.User, courseID, moduleID string, visible bool) (Course, error) {
	crs, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return Course{}, err
	}
	if err := svc.requireOwner(actor, crs); err != nil {
		return Course{}, err
	}

	for i := range crs.Modules {
		if crs.Modules[i].ID == moduleID {
			crs.Modules[i].Visible = visible
			crs.UpdatedAt = core.NowFunc()
			return svc.repo.UpdateCourse(crs)
		}
	}
	return Course{}, ErrModuleNotFound
}

// SetLessonVisibility toggles a single lesson's visibility to students.
func (svc *Service) SetLessonVisibility(actor user.User, courseID, moduleID, lessonID string, visible bool) (Course, error) {
	crs, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return Course{}, err
	}
	if err := svc.requireOwner(actor, crs); err != nil {
		return Course{}, err
	}

	for i := range crs.Modules {
		if crs.Modules[i].ID != moduleID {
			continue
		}
		for j := range crs.Modules[i].Lessons {
			if crs.Modules[i].Lessons[j].ID == lessonID {
				crs.Modules[i].Lessons[j].Visible = visible
				crs.UpdatedAt = core.NowFunc()
				return svc.repo.UpdateCourse(crs)
			}
		}
		return Course{}, ErrLessonNotFound
	}
	return Course{}, ErrModuleNotFound
}
