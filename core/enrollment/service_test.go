package enrollment_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

type fixture struct {
	svc         *enrollment.Service
	enrRepo     enrollment.Repository
	subjectRepo subject.Repository
	courseRepo  course.Repository
	subRepo     submission.Repository
	instructor  user.User
	student     user.User
}

func setup(t *testing.T) fixture {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)

	userRepo := inmemdb.NewUserRepository(db)
	subjectRepo := inmemdb.NewSubjectRepository(db)
	courseRepo := inmemdb.NewCourseRepository(db)
	subRepo := inmemdb.NewSubmissionRepository(db)
	enrRepo := inmemdb.NewEnrollmentRepository(db)
	return fixture{
		svc:         enrollment.NewService(enrRepo, subjectRepo, courseRepo, subRepo),
		enrRepo:     enrRepo,
		subjectRepo: subjectRepo,
		courseRepo:  courseRepo,
		subRepo:     subRepo,
		instructor:  testutil.CreateUser(t, userRepo, "instructor", user.InstructorRoles),
		student:     testutil.CreateUser(t, userRepo, "student", user.StudentRoles),
	}
}

func TestServiceEnroll(t *testing.T) {
	now := time.Now().UTC()

	t.Run("only students enroll", func(t *testing.T) {
		fix := setup(t)
		subj := testutil.CreateSubject(t, fix.subjectRepo, "math1", subject.StatusApproved)
		crs := testutil.CreateCourse(t, fix.courseRepo, subj.ID, fix.instructor.ID, now.AddDate(0, -1, 0), now.AddDate(0, 2, 0), "2025A")

		_, err := fix.svc.Enroll(fix.instructor, crs.ID)
		assert.Equal(t, core.KindForbidden, core.Kind(err))
	})

	t.Run("course window", func(t *testing.T) {
		fix := setup(t)
		subj := testutil.CreateSubject(t, fix.subjectRepo, "math1", subject.StatusApproved)

		early := testutil.CreateCourse(t, fix.courseRepo, subj.ID, fix.instructor.ID, now.AddDate(0, 1, 0), now.AddDate(0, 4, 0), "2025A")
		_, err := fix.svc.Enroll(fix.student, early.ID)
		assert.Equal(t, enrollment.ErrCourseNotOpen, err)

		late := testutil.CreateCourse(t, fix.courseRepo, subj.ID, fix.instructor.ID, now.AddDate(0, -4, 0), now.AddDate(0, -1, 0), "2025A")
		_, err = fix.svc.Enroll(fix.student, late.ID)
		assert.Equal(t, enrollment.ErrCourseClosed, err)
	})

	t.Run("subject must be approved", func(t *testing.T) {
		fix := setup(t)
		subj := testutil.CreateSubject(t, fix.subjectRepo, "math1", subject.StatusPending)
		crs := testutil.CreateCourse(t, fix.courseRepo, subj.ID, fix.instructor.ID, now.AddDate(0, -1, 0), now.AddDate(0, 2, 0), "2025A")

		_, err := fix.svc.Enroll(fix.student, crs.ID)
		assert.Equal(t, enrollment.ErrSubjectNotApproved, err)
	})

	t.Run("clean enroll stamps the current term", func(t *testing.T) {
		fix := setup(t)
		subj := testutil.CreateSubject(t, fix.subjectRepo, "math1", subject.StatusApproved)
		crs := testutil.CreateCourse(t, fix.courseRepo, subj.ID, fix.instructor.ID, now.AddDate(0, -1, 0), now.AddDate(0, 2, 0), "2024B", "2025A")

		enr, err := fix.svc.Enroll(fix.student, crs.ID)
		require.NoError(t, err)
		assert.Equal(t, "2025A", enr.Term)
		assert.Equal(t, enrollment.StatusActive, enr.Status)

		_, err = fix.svc.Enroll(fix.student, crs.ID)
		assert.Equal(t, enrollment.ErrAlreadyEnrolled, err)
	})

	t.Run("concurrent enrolls admit exactly once", func(t *testing.T) {
		fix := setup(t)
		subj := testutil.CreateSubject(t, fix.subjectRepo, "math1", subject.StatusApproved)
		crs := testutil.CreateCourse(t, fix.courseRepo, subj.ID, fix.instructor.ID, now.AddDate(0, -1, 0), now.AddDate(0, 2, 0), "2025A")

		const n = 10
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = fix.svc.Enroll(fix.student, crs.ID)
			}(i)
		}
		wg.Wait()

		var won int
		for _, err := range errs {
			if err == nil {
				won++
			} else {
				assert.Equal(t, enrollment.ErrAlreadyEnrolled, err)
			}
		}
		assert.Equal(t, 1, won)
	})

	t.Run("retake once the term advances", func(t *testing.T) {
		fix := setup(t)
		subj := testutil.CreateSubject(t, fix.subjectRepo, "math1", subject.StatusApproved)
		crs := testutil.CreateCourse(t, fix.courseRepo, subj.ID, fix.instructor.ID, now.AddDate(0, -1, 0), now.AddDate(0, 2, 0), "2024B", "2025A")
		testutil.CreateEnrollment(t, fix.enrRepo, fix.student.ID, crs.ID, "2024B")

		enr, err := fix.svc.Enroll(fix.student, crs.ID)
		require.NoError(t, err)
		assert.Equal(t, "2025A", enr.Term)
	})
}

func TestServiceEnrollPrerequisites(t *testing.T) {
	now := time.Now().UTC()

	// mathAdv requires math1; math1 ran a course in 2024B with one essay.
	type world struct {
		fix      fixture
		math1    subject.Subject
		advCrs   course.Course
		baseCrs  course.Course
		baseAsg  course.Assignment
		baseTerm string
	}
	build := func(t *testing.T) world {
		fix := setup(t)
		math1 := testutil.CreateSubject(t, fix.subjectRepo, "math1", subject.StatusApproved)
		mathAdv := testutil.CreateSubject(t, fix.subjectRepo, "math2", subject.StatusApproved, math1.ID)

		baseCrs := testutil.CreateCourse(t, fix.courseRepo, math1.ID, fix.instructor.ID, now.AddDate(-1, 0, 0), now.AddDate(0, -6, 0), "2024B")
		baseAsg := testutil.CreateEssay(t, fix.courseRepo, baseCrs.ID, now.AddDate(0, -8, 0), "2024B")
		advCrs := testutil.CreateCourse(t, fix.courseRepo, mathAdv.ID, fix.instructor.ID, now.AddDate(0, -1, 0), now.AddDate(0, 2, 0), "2025A")
		return world{fix: fix, math1: math1, advCrs: advCrs, baseCrs: baseCrs, baseAsg: baseAsg, baseTerm: "2024B"}
	}

	t.Run("never enrolled in the prerequisite", func(t *testing.T) {
		w := build(t)
		_, err := w.fix.svc.Enroll(w.fix.student, w.advCrs.ID)

		var perr *core.PrerequisiteError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, core.PrerequisiteNeverEnrolled, perr.Reason)
		assert.Equal(t, "math1", perr.SubjectCode)
	})

	t.Run("enrolled but ungraded, then graded", func(t *testing.T) {
		w := build(t)
		testutil.CreateEnrollment(t, w.fix.enrRepo, w.fix.student.ID, w.baseCrs.ID, w.baseTerm)

		_, err := w.fix.svc.Enroll(w.fix.student, w.advCrs.ID)
		var perr *core.PrerequisiteError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, core.PrerequisiteIncomplete, perr.Reason)
		assert.Equal(t, "math1", perr.SubjectCode)
		assert.Equal(t, w.baseTerm, perr.Term)

		testutil.CreateSubmission(t, w.fix.subRepo, w.fix.student.ID, w.baseAsg.ID, w.baseTerm, true)
		_, err = w.fix.svc.Enroll(w.fix.student, w.advCrs.ID)
		assert.NoError(t, err)
	})

	t.Run("assignment from another term is vacuously satisfied", func(t *testing.T) {
		w := build(t)
		// offered only in 2025A; the student took the 2024B run
		testutil.CreateEssay(t, w.fix.courseRepo, w.baseCrs.ID, now.AddDate(0, -1, 0), "2025A")
		testutil.CreateEnrollment(t, w.fix.enrRepo, w.fix.student.ID, w.baseCrs.ID, w.baseTerm)
		testutil.CreateSubmission(t, w.fix.subRepo, w.fix.student.ID, w.baseAsg.ID, w.baseTerm, true)

		_, err := w.fix.svc.Enroll(w.fix.student, w.advCrs.ID)
		assert.NoError(t, err)
	})

	t.Run("sibling enrollment skips the chain", func(t *testing.T) {
		w := build(t)
		sibling := testutil.CreateCourse(t, w.fix.courseRepo, w.advCrs.SubjectID, w.fix.instructor.ID, now.AddDate(0, -1, 0), now.AddDate(0, 2, 0), "2025A")
		testutil.CreateEnrollment(t, w.fix.enrRepo, w.fix.student.ID, sibling.ID, "2025A")

		// no math1 history at all, yet the sibling enrollment admits them
		_, err := w.fix.svc.Enroll(w.fix.student, w.advCrs.ID)
		assert.NoError(t, err)
	})
}

func TestServiceList(t *testing.T) {
	fix := setup(t)
	now := time.Now().UTC()
	subj := testutil.CreateSubject(t, fix.subjectRepo, "math1", subject.StatusApproved)
	crs1 := testutil.CreateCourse(t, fix.courseRepo, subj.ID, fix.instructor.ID, now.AddDate(0, -1, 0), now.AddDate(0, 2, 0), "2025A")
	crs2 := testutil.CreateCourse(t, fix.courseRepo, subj.ID, fix.instructor.ID, now.AddDate(0, -1, 0), now.AddDate(0, 2, 0), "2025A")

	older := testutil.CreateEnrollment(t, fix.enrRepo, fix.student.ID, crs1.ID, "2025A", now.AddDate(0, 0, -2))
	newer := testutil.CreateEnrollment(t, fix.enrRepo, fix.student.ID, crs2.ID, "2025A", now.AddDate(0, 0, -1))

	enrs, err := fix.svc.List(fix.student, fix.student.ID)
	require.NoError(t, err)
	require.Len(t, enrs, 2)
	assert.Equal(t, newer.ID, enrs[0].ID)
	assert.Equal(t, older.ID, enrs[1].ID)

	enrs, err = fix.svc.List(fix.instructor, fix.student.ID, crs1.ID)
	require.NoError(t, err)
	require.Len(t, enrs, 1)
	assert.Equal(t, older.ID, enrs[0].ID)

	_, err = fix.svc.List(fix.student, "someone-else")
	assert.Equal(t, core.KindForbidden, core.Kind(err))
}

func TestServiceSetStatus(t *testing.T) {
	fix := setup(t)
	now := time.Now().UTC()
	subj := testutil.CreateSubject(t, fix.subjectRepo, "math1", subject.StatusApproved)
	crs := testutil.CreateCourse(t, fix.courseRepo, subj.ID, fix.instructor.ID, now.AddDate(0, -1, 0), now.AddDate(0, 2, 0), "2025A")
	enr := testutil.CreateEnrollment(t, fix.enrRepo, fix.student.ID, crs.ID, "2025A")

	_, err := fix.svc.SetStatus(fix.student, enr.ID, enrollment.StatusCompleted)
	assert.Equal(t, core.KindForbidden, core.Kind(err))

	got, err := fix.svc.SetStatus(fix.student, enr.ID, enrollment.StatusDropped)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusDropped, got.Status)

	got, err = fix.svc.SetStatus(fix.instructor, enr.ID, enrollment.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusCompleted, got.Status)

	_, err = fix.svc.SetStatus(fix.instructor, enr.ID, "bogus")
	assert.Equal(t, enrollment.ErrInvalidStatus, err)
}
