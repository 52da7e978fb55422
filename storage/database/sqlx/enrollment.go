package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core/enrollment"
)

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *sqlx.DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

type enrollmentRow struct {
	ID         string    `db:"id"`
	StudentID  string    `db:"student_id"`
	CourseID   string    `db:"course_id"`
	Term       string    `db:"term"`
	Status     string    `db:"status"`
	EnrolledAt time.Time `db:"enrolled_at"`
}

func (r enrollmentRow) unrow() enrollment.Enrollment {
	return enrollment.Enrollment{
		ID:         r.ID,
		StudentID:  r.StudentID,
		CourseID:   r.CourseID,
		Term:       r.Term,
		Status:     enrollment.Status(r.Status),
		EnrolledAt: r.EnrolledAt,
	}
}

// CreateEnrollment relies on the enrollment_student_course_term_key unique
// index to serialize concurrent enrolls on the same triple.
func (repo *enrollmentRepository) CreateEnrollment(enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	const q = `INSERT INTO enrollment (id, student_id, course_id, term, status, enrolled_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.Exec(q, enr.ID, enr.StudentID, enr.CourseID, enr.Term, string(enr.Status), enr.EnrolledAt)
	if err != nil {
		if isUniqueViolation(err, "enrollment_student_course_term_key") {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		return enrollment.Enrollment{}, err
	}
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollment(studentID, courseID, term string) (enrollment.Enrollment, error) {
	var row enrollmentRow
	const q = `SELECT * FROM enrollment WHERE student_id = $1 AND course_id = $2 AND term = $3`
	if err := repo.db.Get(&row, q, studentID, courseID, term); err != nil {
		if err == sql.ErrNoRows {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, err
	}
	return row.unrow(), nil
}

func (repo *enrollmentRepository) GetEnrollmentByID(id string) (enrollment.Enrollment, error) {
	var row enrollmentRow
	if err := repo.db.Get(&row, `SELECT * FROM enrollment WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, err
	}
	return row.unrow(), nil
}

func (repo *enrollmentRepository) QueryStudentEnrollments(studentID string) ([]enrollment.Enrollment, error) {
	var rows []enrollmentRow
	const q = `SELECT * FROM enrollment WHERE student_id = $1 ORDER BY enrolled_at DESC`
	if err := repo.db.Select(&rows, q, studentID); err != nil {
		return nil, err
	}
	enrs := make([]enrollment.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrs = append(enrs, row.unrow())
	}
	return enrs, nil
}

func (repo *enrollmentRepository) UpdateEnrollmentStatus(id string, status enrollment.Status) (enrollment.Enrollment, error) {
	var row enrollmentRow
	const q = `UPDATE enrollment SET status = $2 WHERE id = $1 RETURNING *`
	if err := repo.db.QueryRowx(q, id, string(status)).StructScan(&row); err != nil {
		if err == sql.ErrNoRows {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, err
	}
	return row.unrow(), nil
}
