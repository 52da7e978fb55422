package submission_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
	notifsvc "github.com/trezcool/darasa/services/notification"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

type fixture struct {
	svc        *submission.Service
	subRepo    submission.Repository
	courseRepo course.Repository
	notif      *notifsvc.DummyService
	crs        course.Course
	instructor user.User
	student    user.User
	admin      user.User
}

func setup(t *testing.T) fixture {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)

	userRepo := inmemdb.NewUserRepository(db)
	subjectRepo := inmemdb.NewSubjectRepository(db)
	courseRepo := inmemdb.NewCourseRepository(db)
	subRepo := inmemdb.NewSubmissionRepository(db)
	notif := notifsvc.NewDummyService()

	now := time.Now().UTC()
	instructor := testutil.CreateUser(t, userRepo, "instructor", user.InstructorRoles)
	subj := testutil.CreateSubject(t, subjectRepo, "phys1", subject.StatusApproved)
	crs := testutil.CreateCourse(t, courseRepo, subj.ID, instructor.ID, now.AddDate(0, -1, 0), now.AddDate(0, 2, 0), "2025A")
	return fixture{
		svc:        submission.NewService(subRepo, courseRepo, notif, core.NopLogger{}),
		subRepo:    subRepo,
		courseRepo: courseRepo,
		notif:      notif,
		crs:        crs,
		instructor: instructor,
		student:    testutil.CreateUser(t, userRepo, "student", user.StudentRoles),
		admin:      testutil.CreateUser(t, userRepo, "admin", user.AdminRoles),
	}
}

func TestServiceSubmit(t *testing.T) {
	now := time.Now().UTC()

	t.Run("only students submit", func(t *testing.T) {
		fix := setup(t)
		asg := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 1, 0), "2025A")
		_, err := fix.svc.Submit(fix.instructor, submission.NewSubmission{AssignmentID: asg.ID, Content: "work"})
		assert.Equal(t, core.KindForbidden, core.Kind(err))
	})

	t.Run("deadline enforced", func(t *testing.T) {
		fix := setup(t)
		asg := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 0, -1), "2025A")
		_, err := fix.svc.Submit(fix.student, submission.NewSubmission{AssignmentID: asg.ID, Content: "late work"})
		assert.Equal(t, submission.ErrDeadlinePassed, err)
	})

	t.Run("work must match the assignment type", func(t *testing.T) {
		fix := setup(t)
		essay := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 1, 0), "2025A")
		_, err := fix.svc.Submit(fix.student, submission.NewSubmission{AssignmentID: essay.ID})
		assert.Equal(t, submission.ErrMissingContent, err)

		quiz := testutil.CreateQuiz(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 1, 0), testutil.Questions(2), "2025A")
		_, err = fix.svc.Submit(fix.student, submission.NewSubmission{AssignmentID: quiz.ID})
		assert.Equal(t, submission.ErrMissingAnswers, err)
	})

	t.Run("clean submit stamps the term and notifies", func(t *testing.T) {
		fix := setup(t)
		asg := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 1, 0), "2024B", "2025A")

		sub, err := fix.svc.Submit(fix.student, submission.NewSubmission{AssignmentID: asg.ID, Content: "my essay"})
		require.NoError(t, err)
		assert.Equal(t, "2025A", sub.Term)
		assert.False(t, sub.Grade.IsSet())

		require.Len(t, fix.notif.Sent, 1)
		assert.Equal(t, fix.instructor.ID, fix.notif.Sent[0].ToUserID)
		assert.Equal(t, core.NotifySubmissionReceived, fix.notif.Sent[0].Type)

		_, err = fix.svc.Submit(fix.student, submission.NewSubmission{AssignmentID: asg.ID, Content: "again"})
		assert.Equal(t, submission.ErrAlreadySubmitted, err)
	})
}

func TestServiceResubmit(t *testing.T) {
	now := time.Now().UTC()

	t.Run("owner only", func(t *testing.T) {
		fix := setup(t)
		asg := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 1, 0), "2025A")
		sub := testutil.CreateSubmission(t, fix.subRepo, "other-student", asg.ID, "2025A", false)

		_, err := fix.svc.Resubmit(fix.student, sub.ID, "hijack", nil)
		assert.Equal(t, submission.ErrNotOwner, err)
	})

	t.Run("deadline enforced", func(t *testing.T) {
		fix := setup(t)
		asg := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 0, -1), "2025A")
		sub := testutil.CreateSubmission(t, fix.subRepo, fix.student.ID, asg.ID, "2025A", false)

		_, err := fix.svc.Resubmit(fix.student, sub.ID, "too late", nil)
		assert.Equal(t, submission.ErrDeadlinePassed, err)
	})

	t.Run("resubmission always resets the grade", func(t *testing.T) {
		fix := setup(t)
		asg := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 1, 0), "2025A")
		sub := testutil.CreateSubmission(t, fix.subRepo, fix.student.ID, asg.ID, "2025A", true)
		require.True(t, sub.Grade.IsSet())

		got, err := fix.svc.Resubmit(fix.student, sub.ID, "second draft", nil)
		require.NoError(t, err)
		assert.Equal(t, "second draft", got.Content)
		assert.False(t, got.Grade.IsSet())
	})
}

func TestServiceGradeManually(t *testing.T) {
	now := time.Now().UTC()

	t.Run("score bounds", func(t *testing.T) {
		fix := setup(t)
		asg := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 1, 0), "2025A")
		sub := testutil.CreateSubmission(t, fix.subRepo, fix.student.ID, asg.ID, "2025A", false)

		for _, score := range []float64{-0.5, 10.01, math.NaN(), math.Inf(1)} {
			_, err := fix.svc.GradeManually(fix.instructor, sub.ID, score)
			assert.Equal(t, submission.ErrInvalidScore, err)
		}
	})

	t.Run("owner or admin only", func(t *testing.T) {
		fix := setup(t)
		asg := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 1, 0), "2025A")
		sub := testutil.CreateSubmission(t, fix.subRepo, fix.student.ID, asg.ID, "2025A", false)

		other := user.User{ID: "other-instructor", IsActive: true, Roles: user.InstructorRoles}
		_, err := fix.svc.GradeManually(other, sub.ID, 8)
		assert.Equal(t, course.ErrNotCourseOwner, err)

		got, err := fix.svc.GradeManually(fix.admin, sub.ID, 8)
		require.NoError(t, err)
		assert.Equal(t, 8.0, got.Grade.Score.Float64)
		assert.Equal(t, fix.admin.ID, got.Grade.GraderID.String)
	})

	t.Run("grading stays legal after the deadline", func(t *testing.T) {
		fix := setup(t)
		asg := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 0, -7), "2025A")
		sub := testutil.CreateSubmission(t, fix.subRepo, fix.student.ID, asg.ID, "2025A", false)

		got, err := fix.svc.GradeManually(fix.instructor, sub.ID, 6.5)
		require.NoError(t, err)
		assert.Equal(t, 6.5, got.Grade.Score.Float64)
		assert.True(t, got.Grade.GradedAt.Valid)
	})

	t.Run("missing term is backfilled from the assignment", func(t *testing.T) {
		fix := setup(t)
		asg := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 1, 0), "2024B", "2025A")
		sub := testutil.CreateSubmission(t, fix.subRepo, fix.student.ID, asg.ID, "", false)

		got, err := fix.svc.GradeManually(fix.instructor, sub.ID, 9)
		require.NoError(t, err)
		assert.Equal(t, "2025A", got.Term)
	})

	t.Run("no term anywhere", func(t *testing.T) {
		fix := setup(t)
		asg := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 1, 0))
		sub := testutil.CreateSubmission(t, fix.subRepo, fix.student.ID, asg.ID, "", false)

		_, err := fix.svc.GradeManually(fix.instructor, sub.ID, 9)
		assert.Equal(t, submission.ErrMissingTermData, err)
	})
}

func TestServiceGradeWithoutSubmission(t *testing.T) {
	now := time.Now().UTC()

	t.Run("essay assignments only", func(t *testing.T) {
		fix := setup(t)
		quiz := testutil.CreateQuiz(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 1, 0), testutil.Questions(2), "2025A")
		_, err := fix.svc.GradeWithoutSubmission(fix.instructor, quiz.ID, fix.student.ID, 7, "")
		assert.Equal(t, submission.ErrNotEssayType, err)
	})

	t.Run("never overwrites existing work", func(t *testing.T) {
		fix := setup(t)
		asg := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 1, 0), "2025A")
		testutil.CreateSubmission(t, fix.subRepo, fix.student.ID, asg.ID, "2025A", false)

		_, err := fix.svc.GradeWithoutSubmission(fix.instructor, asg.ID, fix.student.ID, 7, "")
		assert.Equal(t, submission.ErrAlreadySubmitted, err)
	})

	t.Run("creates a graded placeholder", func(t *testing.T) {
		fix := setup(t)
		asg := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 1, 0), "2025A")

		sub, err := fix.svc.GradeWithoutSubmission(fix.instructor, asg.ID, fix.student.ID, 4.5, "oral defense")
		require.NoError(t, err)
		assert.Equal(t, fix.student.ID, sub.StudentID)
		assert.Equal(t, "2025A", sub.Term)
		assert.Equal(t, 4.5, sub.Grade.Score.Float64)
		assert.Equal(t, fix.instructor.ID, sub.Grade.GraderID.String)
	})
}

func TestServiceListForCourse(t *testing.T) {
	now := time.Now().UTC()

	t.Run("students may only list their own", func(t *testing.T) {
		fix := setup(t)
		_, err := fix.svc.ListForCourse(fix.student, "someone-else", fix.crs.ID)
		assert.Equal(t, core.KindForbidden, core.Kind(err))
	})

	t.Run("splits by the course's current term", func(t *testing.T) {
		fix := setup(t)
		// the course is now on 2025A; the old essay run stays in Past
		fix.crs.Terms = core.TermSequence{"2024B", "2025A"}
		_, err := fix.courseRepo.UpdateCourse(fix.crs)
		require.NoError(t, err)

		oldAsg := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 1, 0), "2024B")
		newAsg := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 1, 0), "2024B", "2025A")
		past := testutil.CreateSubmission(t, fix.subRepo, fix.student.ID, oldAsg.ID, "2024B", true)
		current := testutil.CreateSubmission(t, fix.subRepo, fix.student.ID, newAsg.ID, "2025A", false)

		got, err := fix.svc.ListForCourse(fix.student, fix.student.ID, fix.crs.ID)
		require.NoError(t, err)
		require.Len(t, got.Current, 1)
		require.Len(t, got.Past, 1)
		assert.Equal(t, current.ID, got.Current[0].ID)
		assert.Equal(t, past.ID, got.Past[0].ID)
	})

	t.Run("overdue quiz is auto-scored on read", func(t *testing.T) {
		fix := setup(t)
		quiz := testutil.CreateQuiz(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 0, -1), testutil.Questions(2), "2025A")
		answers := []submission.Answer{
			{QuestionID: quiz.Questions[0].ID, SelectedOption: 0}, // right
			{QuestionID: quiz.Questions[1].ID, SelectedOption: 1}, // wrong
		}
		sub := testutil.CreateSubmission(t, fix.subRepo, fix.student.ID, quiz.ID, "2025A", false)
		sub.Answers = answers
		_, err := fix.subRepo.UpdateSubmissionWork(sub)
		require.NoError(t, err)

		got, err := fix.svc.ListForCourse(fix.instructor, fix.student.ID, fix.crs.ID)
		require.NoError(t, err)
		require.Len(t, got.Current, 1)
		graded := got.Current[0]
		require.True(t, graded.Grade.IsSet())
		assert.Equal(t, 5.0, graded.Grade.Score.Float64)
		assert.Equal(t, fix.crs.InstructorID, graded.Grade.GraderID.String)

		// idempotent: a second read never recomputes
		again, err := fix.svc.ListForCourse(fix.instructor, fix.student.ID, fix.crs.ID)
		require.NoError(t, err)
		require.Len(t, again.Current, 1)
		assert.Equal(t, graded.Grade, again.Current[0].Grade)
	})

	t.Run("ungraded essays are left alone", func(t *testing.T) {
		fix := setup(t)
		asg := testutil.CreateEssay(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 0, -1), "2025A")
		testutil.CreateSubmission(t, fix.subRepo, fix.student.ID, asg.ID, "2025A", false)

		got, err := fix.svc.ListForCourse(fix.instructor, fix.student.ID, fix.crs.ID)
		require.NoError(t, err)
		require.Len(t, got.Current, 1)
		assert.False(t, got.Current[0].Grade.IsSet())
	})

	t.Run("live quiz stays ungraded", func(t *testing.T) {
		fix := setup(t)
		quiz := testutil.CreateQuiz(t, fix.courseRepo, fix.crs.ID, now.AddDate(0, 1, 0), testutil.Questions(2), "2025A")
		testutil.CreateSubmission(t, fix.subRepo, fix.student.ID, quiz.ID, "2025A", false)

		got, err := fix.svc.ListForCourse(fix.instructor, fix.student.ID, fix.crs.ID)
		require.NoError(t, err)
		require.Len(t, got.Current, 1)
		assert.False(t, got.Current[0].Grade.IsSet())
	})
}
