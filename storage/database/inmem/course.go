package inmemdb

import (
	"context"
	"sort"

	"github.com/Junosprite007/mod-equipmentcheckout/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	c.ID = repo.db.seq
	repo.db.rows[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id int64) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.rows[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context, ids ...int64) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.rows))
	if len(ids) == 0 {
		for _, c := range repo.db.rows {
			courses = append(courses, *c)
		}
		sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
		return courses, nil
	}
	for _, id := range ids {
		if c, ok := repo.db.rows[id]; ok {
			courses = append(courses, *c)
		}
	}
	return courses, nil
}

func (repo *courseRepository) CreateEnrollment(_ context.Context, e course.Enrollment) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[e.CourseID]; !ok {
		return course.ErrNotFound
	}
	for _, en := range repo.db.enrollments {
		if en.UserID == e.UserID && en.CourseID == e.CourseID && en.Role == e.Role {
			return course.ErrAlreadyEnrolled
		}
	}
	repo.db.enrollments = append(repo.db.enrollments, e)
	return nil
}

func (repo *courseRepository) QueryEnrollments(_ context.Context, userID int64) ([]course.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrollments := make([]course.Enrollment, 0)
	for _, e := range repo.db.enrollments {
		if e.UserID == userID {
			enrollments = append(enrollments, e)
		}
	}
	return enrollments, nil
}
