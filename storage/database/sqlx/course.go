package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/course"
)

const (
	courseTable          = "course"
	enrollmentTable      = "enrollment"
	enrollmentConstraint = "enrollment_pkey"
)

var courseColumns = []string{"id", "shortname", "fullname", "visible"}

type enrollmentRow struct {
	UserID    int64     `db:"user_id"`
	CourseID  int64     `db:"course_id"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

type courseRepository struct {
	exec core.DBExecutor
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(exec core.DBExecutor) course.Repository {
	return &courseRepository{exec: exec}
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q, args, err := psql.Insert(courseTable).
		Columns(courseColumns[1:]...).
		Values(c.ShortName, c.FullName, c.Visible).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return course.Course{}, errors.Wrap(err, "building course insert")
	}
	if err = repo.exec.QueryRowxContext(ctx, q, args...).Scan(&c.ID); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id int64) (course.Course, error) {
	q, args, err := psql.Select(courseColumns...).From(courseTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return course.Course{}, errors.Wrap(err, "building course query")
	}
	var c course.Course
	if err = repo.exec.QueryRowxContext(ctx, q, args...).Scan(&c.ID, &c.ShortName, &c.FullName, &c.Visible); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "getting course")
	}
	return c, nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, ids ...int64) ([]course.Course, error) {
	query := psql.Select(courseColumns...).From(courseTable).OrderBy("id")
	if len(ids) > 0 {
		query = query.Where(sq.Eq{"id": ids})
	}
	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building courses query")
	}
	rows, err := repo.exec.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	defer rows.Close()

	courses := make([]course.Course, 0)
	for rows.Next() {
		var c course.Course
		if err = rows.Scan(&c.ID, &c.ShortName, &c.FullName, &c.Visible); err != nil {
			return nil, errors.Wrap(err, "scanning course")
		}
		courses = append(courses, c)
	}
	return courses, errors.Wrap(rows.Err(), "iterating courses")
}

func (repo courseRepository) CreateEnrollment(ctx context.Context, e course.Enrollment) error {
	q, args, err := psql.Insert(enrollmentTable).
		Columns("user_id", "course_id", "role", "created_at").
		Values(e.UserID, e.CourseID, e.Role, e.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building enrollment insert")
	}
	if _, err = repo.exec.ExecContext(ctx, q, args...); err != nil {
		switch code, constraint := pqCode(err); {
		case code == pqUniqueViolation && constraint == enrollmentConstraint:
			return course.ErrAlreadyEnrolled
		case code == pqForeignKeyViolation:
			return course.ErrNotFound
		}
		return errors.Wrap(err, "inserting enrollment")
	}
	return nil
}

func (repo courseRepository) QueryEnrollments(ctx context.Context, userID int64) ([]course.Enrollment, error) {
	q, args, err := psql.Select("user_id", "course_id", "role", "created_at").
		From(enrollmentTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at", "course_id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building enrollments query")
	}
	var rows []enrollmentRow
	if err = repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrollments := make([]course.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, course.Enrollment{
			UserID:    row.UserID,
			CourseID:  row.CourseID,
			Role:      row.Role,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return enrollments, nil
}
