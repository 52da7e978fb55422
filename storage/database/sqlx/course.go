package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

type (
	courseRow struct {
		ID           string    `db:"id"`
		SubjectID    string    `db:"subject_id"`
		InstructorID string    `db:"instructor_id"`
		Name         string    `db:"name"`
		StartDate    time.Time `db:"start_date"`
		EndDate      time.Time `db:"end_date"`
		Terms        jsonRaw   `db:"terms"`
		Modules      jsonRaw   `db:"modules"`
		CreatedAt    time.Time `db:"created_at"`
		UpdatedAt    time.Time `db:"updated_at"`
	}

	assignmentRow struct {
		ID        string    `db:"id"`
		CourseID  string    `db:"course_id"`
		Title     string    `db:"title"`
		Type      string    `db:"type"`
		Prompt    string    `db:"prompt"`
		Questions jsonRaw   `db:"questions"`
		DueDate   time.Time `db:"due_date"`
		Terms     jsonRaw   `db:"terms"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}
)

func (r courseRow) unrow() course.Course {
	crs := course.Course{
		ID:           r.ID,
		SubjectID:    r.SubjectID,
		InstructorID: r.InstructorID,
		Name:         r.Name,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	var terms core.TermSequence
	unmarshalJSON(r.Terms, &terms)
	crs.Terms = terms
	unmarshalJSON(r.Modules, &crs.Modules)
	return crs
}

func (r assignmentRow) unrow() course.Assignment {
	asg := course.Assignment{
		ID:        r.ID,
		CourseID:  r.CourseID,
		Title:     r.Title,
		Type:      course.AssignmentType(r.Type),
		Prompt:    r.Prompt,
		DueDate:   r.DueDate,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	var terms core.TermSequence
	unmarshalJSON(r.Terms, &terms)
	asg.Terms = terms
	unmarshalJSON(r.Questions, &asg.Questions)
	return asg
}

func (repo *courseRepository) CreateCourse(crs course.Course) (course.Course, error) {
	const q = `INSERT INTO course (id, subject_id, instructor_id, name, start_date, end_date, terms, modules, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.Exec(q,
		crs.ID, crs.SubjectID, crs.InstructorID, crs.Name, crs.StartDate, crs.EndDate,
		marshalJSON(crs.Terms), marshalJSON(crs.Modules), crs.CreatedAt, crs.UpdatedAt,
	)
	if err != nil {
		return course.Course{}, err
	}
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(id string) (course.Course, error) {
	var row courseRow
	if err := repo.db.Get(&row, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, err
	}
	return row.unrow(), nil
}

func (repo *courseRepository) QueryCoursesBySubjectID(subjectID string) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.Select(&rows, `SELECT * FROM course WHERE subject_id = $1`, subjectID); err != nil {
		return nil, err
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.unrow())
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(crs course.Course) (course.Course, error) {
	const q = `UPDATE course
		SET name = $2, start_date = $3, end_date = $4, terms = $5, modules = $6, updated_at = $7
		WHERE id = $1`
	res, err := repo.db.Exec(q,
		crs.ID, crs.Name, crs.StartDate, crs.EndDate,
		marshalJSON(crs.Terms), marshalJSON(crs.Modules), crs.UpdatedAt,
	)
	if err != nil {
		return course.Course{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo *courseRepository) CreateAssignment(asg course.Assignment) (course.Assignment, error) {
	const q = `INSERT INTO assignment (id, course_id, title, type, prompt, questions, due_date, terms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.Exec(q,
		asg.ID, asg.CourseID, asg.Title, string(asg.Type), asg.Prompt,
		marshalJSON(asg.Questions), asg.DueDate, marshalJSON(asg.Terms), asg.CreatedAt, asg.UpdatedAt,
	)
	if err != nil {
		return course.Assignment{}, err
	}
	return asg, nil
}

func (repo *courseRepository) GetAssignmentByID(id string) (course.Assignment, error) {
	var row assignmentRow
	if err := repo.db.Get(&row, `SELECT * FROM assignment WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Assignment{}, course.ErrAssignmentNotFound
		}
		return course.Assignment{}, err
	}
	return row.unrow(), nil
}

func (repo *courseRepository) QueryAssignmentsByCourseID(courseID string) ([]course.Assignment, error) {
	var rows []assignmentRow
	if err := repo.db.Select(&rows, `SELECT * FROM assignment WHERE course_id = $1 ORDER BY due_date`, courseID); err != nil {
		return nil, err
	}
	asgs := make([]course.Assignment, 0, len(rows))
	for _, row := range rows {
		asgs = append(asgs, row.unrow())
	}
	return asgs, nil
}

func (repo *courseRepository) UpdateAssignment(asg course.Assignment) (course.Assignment, error) {
	const q = `UPDATE assignment
		SET title = $2, prompt = $3, questions = $4, due_date = $5, terms = $6, updated_at = $7
		WHERE id = $1`
	res, err := repo.db.Exec(q,
		asg.ID, asg.Title, asg.Prompt, marshalJSON(asg.Questions), asg.DueDate,
		marshalJSON(asg.Terms), asg.UpdatedAt,
	)
	if err != nil {
		return course.Assignment{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Assignment{}, course.ErrAssignmentNotFound
	}
	return asg, nil
}
