package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
)

func CreateUser(t *testing.T, repo user.Repository, name string, roles []string) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr, err := repo.CreateUser(user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     name + "@test.test",
		IsActive:  true,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSubject(t *testing.T, repo subject.Repository, code string, status subject.Status, prereqIDs ...string) subject.Subject {
	t.Helper()

	now := time.Now().UTC()
	sub, err := repo.CreateSubject(subject.Subject{
		ID:              uuid.New().String(),
		Code:            code,
		Name:            "Subject " + code,
		PrerequisiteIDs: prereqIDs,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	subjectID, instructorID string,
	start, end time.Time,
	terms ...string,
) course.Course {
	t.Helper()

	now := time.Now().UTC()
	crs, err := repo.CreateCourse(course.Course{
		ID:           uuid.New().String(),
		SubjectID:    subjectID,
		InstructorID: instructorID,
		Name:         "Course " + uuid.New().String()[:8],
		StartDate:    start.UTC(),
		EndDate:      end.UTC(),
		Terms:        core.TermSequence(terms),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateEssay(t *testing.T, repo course.Repository, courseID string, due time.Time, terms ...string) course.Assignment {
	t.Helper()
	return createAssignment(t, repo, course.Assignment{
		CourseID: courseID,
		Title:    "Essay",
		Type:     course.TypeEssay,
		Prompt:   "Discuss.",
		DueDate:  due.UTC(),
		Terms:    core.TermSequence(terms),
	})
}

func CreateQuiz(t *testing.T, repo course.Repository, courseID string, due time.Time, questions []course.Question, terms ...string) course.Assignment {
	t.Helper()
	return createAssignment(t, repo, course.Assignment{
		CourseID:  courseID,
		Title:     "Quiz",
		Type:      course.TypeQuiz,
		Questions: questions,
		DueDate:   due.UTC(),
		Terms:     core.TermSequence(terms),
	})
}

func createAssignment(t *testing.T, repo course.Repository, asg course.Assignment) course.Assignment {
	t.Helper()

	now := time.Now().UTC()
	asg.ID = uuid.New().String()
	asg.CreatedAt = now
	asg.UpdatedAt = now
	asg, err := repo.CreateAssignment(asg)
	if err != nil {
		t.Fatalf("createAssignment() failed: %v", err)
	}
	return asg
}

func CreateEnrollment(t *testing.T, repo enrollment.Repository, studentID, courseID, term string, enrolledAt ...time.Time) enrollment.Enrollment {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(enrolledAt) > 0 {
		tstamp = enrolledAt[0].UTC()
	}
	enr, err := repo.CreateEnrollment(enrollment.Enrollment{
		ID:         uuid.New().String(),
		StudentID:  studentID,
		CourseID:   courseID,
		Term:       term,
		Status:     enrollment.StatusActive,
		EnrolledAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateEnrollment() failed: %v", err)
	}
	return enr
}

func CreateSubmission(
	t *testing.T,
	repo submission.Repository,
	studentID, assignmentID, term string,
	graded bool,
) submission.Submission {
	t.Helper()

	now := time.Now().UTC()
	sub := submission.Submission{
		ID:           uuid.New().String(),
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Term:         term,
		Content:      "answer",
		SubmittedAt:  now,
		UpdatedAt:    now,
	}
	if graded {
		sub.Grade = submission.Grade{
			Score:    null.Float64From(7.5),
			GradedAt: null.TimeFrom(now),
			GraderID: null.StringFrom(uuid.New().String()),
		}
	}
	sub, err := repo.CreateSubmission(sub)
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return sub
}

// Questions returns n 1-point questions whose correct option is always 0.
func Questions(n int) []course.Question {
	qs := make([]course.Question, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, course.Question{
			ID:            uuid.New().String(),
			Text:          "Q",
			Options:       []string{"right", "wrong"},
			CorrectOption: 0,
			Points:        1,
		})
	}
	return qs
}
