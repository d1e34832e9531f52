package course

import (
	"context"
	"strconv"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("course not found")
	ErrAlreadyEnrolled = errors.New("user already enrolled")

	NowFunc = time.Now // mockable

	roleTranslationKeys = map[string]string{
		RoleStudent: core.MsgRoleStudent,
		RoleParent:  core.MsgRoleParent,
	}
)

type Repository interface {
	CreateCourse(ctx context.Context, c Course) (Course, error)
	GetCourse(ctx context.Context, id int64) (Course, error)
	// QueryCourses returns the courses with the given IDs, or all of them when none is given.
	QueryCourses(ctx context.Context, ids ...int64) ([]Course, error)
	// CreateEnrollment returns ErrAlreadyEnrolled when the (user, course, role) triple exists.
	CreateEnrollment(ctx context.Context, e Enrollment) error
	QueryEnrollments(ctx context.Context, userID int64) ([]Enrollment, error)
}

// Enroller enrolls users in courses and reports every outcome as a message.
type Enroller struct {
	repo       Repository
	translator ut.Translator
}

func NewEnroller(repo Repository, translator ut.Translator) *Enroller {
	return &Enroller{repo: repo, translator: translator}
}

// Enrol enrolls `usr` in course `courseID` with `role`.
// Enrolling twice with the same role is reported as a warning, not an error.
func (e *Enroller) Enrol(ctx context.Context, usr user.User, courseID int64, role string) core.Messages {
	msgs := core.NewMessages()
	name := usr.FullName()

	crs, err := e.repo.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			msgs.Error(core.T(e.translator, core.MsgCourseNotFound, strconv.FormatInt(courseID, 10), name))
		} else {
			msgs.Error(core.T(e.translator, core.MsgErrorEnrollingUser, name, strconv.FormatInt(courseID, 10), err.Error()))
		}
		return msgs
	}

	roleName := role
	if key, ok := roleTranslationKeys[role]; ok {
		roleName = core.T(e.translator, key)
	}

	err = e.repo.CreateEnrollment(ctx, Enrollment{
		UserID:    usr.ID,
		CourseID:  crs.ID,
		Role:      role,
		CreatedAt: NowFunc().UTC(),
	})
	switch {
	case err == nil:
		msgs.Success(core.T(e.translator, core.MsgUserEnrolled, name, crs.FullName, roleName))
	case errors.Cause(err) == ErrAlreadyEnrolled:
		msgs.Warning(core.T(e.translator, core.MsgUserAlreadyEnrolled, name, crs.FullName, roleName))
	default:
		msgs.Error(core.T(e.translator, core.MsgErrorEnrollingUser, name, crs.FullName, err.Error()))
	}
	return msgs
}

// EnrolStudent enrolls a student in each of `courseIDs`; an empty list is an error.
func (e *Enroller) EnrolStudent(ctx context.Context, usr user.User, courseIDs []int64) core.Messages {
	msgs := core.NewMessages()
	if len(courseIDs) == 0 {
		msgs.Error(core.T(e.translator, core.MsgNoCoursesFound, usr.FullName()))
		return msgs
	}
	for _, id := range courseIDs {
		msgs.Merge(e.Enrol(ctx, usr, id, RoleStudent))
	}
	return msgs
}

// EnrolParent enrolls a parent in the deduplicated union of their children's courses.
func (e *Enroller) EnrolParent(ctx context.Context, usr user.User, courseIDs []int64) core.Messages {
	msgs := core.NewMessages()
	for _, id := range core.UniqueInt64s(courseIDs) {
		msgs.Merge(e.Enrol(ctx, usr, id, RoleParent))
	}
	return msgs
}
