package inmemdb

import (
	"github.com/trezcool/darasa/core/course"
)

type courseRepository struct {
	courses     *courseTable
	assignments *assignmentTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{courses: db.course, assignments: db.assignment}
}

func (repo *courseRepository) CreateCourse(crs course.Course) (course.Course, error) {
	repo.courses.Lock()
	defer repo.courses.Unlock()

	repo.courses.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(id string) (course.Course, error) {
	repo.courses.RLock()
	defer repo.courses.RUnlock()

	if crs, ok := repo.courses.table[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCoursesBySubjectID(subjectID string) ([]course.Course, error) {
	repo.courses.RLock()
	defer repo.courses.RUnlock()

	var courses []course.Course
	for _, crs := range repo.courses.table {
		if crs.SubjectID == subjectID {
			courses = append(courses, *crs)
		}
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(crs course.Course) (course.Course, error) {
	repo.courses.Lock()
	defer repo.courses.Unlock()

	if _, ok := repo.courses.table[crs.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.courses.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) CreateAssignment(asg course.Assignment) (course.Assignment, error) {
	repo.assignments.Lock()
	defer repo.assignments.Unlock()

	repo.assignments.table[asg.ID] = &asg
	return asg, nil
}

func (repo *courseRepository) GetAssignmentByID(id string) (course.Assignment, error) {
	repo.assignments.RLock()
	defer repo.assignments.RUnlock()

	if asg, ok := repo.assignments.table[id]; ok {
		return *asg, nil
	}
	return course.Assignment{}, course.ErrAssignmentNotFound
}

func (repo *courseRepository) QueryAssignmentsByCourseID(courseID string) ([]course.Assignment, error) {
	repo.assignments.RLock()
	defer repo.assignments.RUnlock()

	var asgs []course.Assignment
	for _, asg := range repo.assignments.table {
		if asg.CourseID == courseID {
			asgs = append(asgs, *asg)
		}
	}
	return asgs, nil
}

func (repo *courseRepository) UpdateAssignment(asg course.Assignment) (course.Assignment, error) {
	repo.assignments.Lock()
	defer repo.assignments.Unlock()

	if _, ok := repo.assignments.table[asg.ID]; !ok {
		return course.Assignment{}, course.ErrAssignmentNotFound
	}
	repo.assignments.table[asg.ID] = &asg
	return asg, nil
}
