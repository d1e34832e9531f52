package course_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/course"
	inmemdb "github.com/Junosprite007/mod-equipmentcheckout/storage/database/inmem"
	"github.com/Junosprite007/mod-equipmentcheckout/tests"
)

func TestEnroller_Enrol(t *testing.T) {
	db := inmemdb.NewDB()
	crsRepo := inmemdb.NewCourseRepository(db)
	usrRepo := inmemdb.NewUserRepository(db)
	enroller := course.NewEnroller(crsRepo, core.NewTranslator())
	ctx := context.Background()

	crs := testutil.CreateCourse(t, crsRepo, "Geometry")
	usr := testutil.CreateUser(t, usrRepo, "Jane", "Doe", "janedoe", "", "", nil)

	tests := []struct {
		name       string
		courseID   int64
		role       string
		wantStatus core.Status
		wantMsg    string
	}{
		{name: "enrolled", courseID: crs.ID, role: course.RoleStudent, wantStatus: core.StatusSuccess, wantMsg: "Jane Doe enrolled in Geometry as student."},
		{name: "twice", courseID: crs.ID, role: course.RoleStudent, wantStatus: core.StatusWarning, wantMsg: "Jane Doe is already enrolled in Geometry as student."},
		{name: "other role", courseID: crs.ID, role: course.RoleParent, wantStatus: core.StatusSuccess, wantMsg: "Jane Doe enrolled in Geometry as parent."},
		{name: "unknown course", courseID: 404, role: course.RoleStudent, wantStatus: core.StatusError, wantMsg: "Course 404 does not exist, so Jane Doe was not enrolled in it."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := enroller.Enrol(ctx, usr, tt.courseID, tt.role)
			assert.Equal(t, tt.wantStatus, msgs.Status())
			all := append(append(append([]string{}, msgs.Successes...), msgs.Warnings...), msgs.Errors...)
			assert.Equal(t, []string{tt.wantMsg}, all)
		})
	}

	enrollments, err := crsRepo.QueryEnrollments(ctx, usr.ID)
	require.NoError(t, err)
	assert.Len(t, enrollments, 2)
}

func TestEnroller_EnrolStudentAndParent(t *testing.T) {
	db := inmemdb.NewDB()
	crsRepo := inmemdb.NewCourseRepository(db)
	usrRepo := inmemdb.NewUserRepository(db)
	enroller := course.NewEnroller(crsRepo, core.NewTranslator())
	ctx := context.Background()

	c1 := testutil.CreateCourse(t, crsRepo, "C1")
	c2 := testutil.CreateCourse(t, crsRepo, "C2")
	stu := testutil.CreateUser(t, usrRepo, "Kim", "Lee", "kimlee", "", "", nil)
	par := testutil.CreateUser(t, usrRepo, "Pat", "Lee", "patlee", "", "", nil)

	msgs := enroller.EnrolStudent(ctx, stu, nil)
	assert.Equal(t, []string{"No courses were found for Kim Lee."}, msgs.Errors)

	msgs = enroller.EnrolStudent(ctx, stu, []int64{c1.ID, c2.ID})
	assert.Equal(t, core.StatusSuccess, msgs.Status())
	assert.Len(t, msgs.Successes, 2)

	msgs = enroller.EnrolParent(ctx, par, []int64{c2.ID, c1.ID, c2.ID})
	assert.Equal(t, core.StatusSuccess, msgs.Status())
	assert.Equal(t, []string{"Pat Lee enrolled in C2 as parent.", "Pat Lee enrolled in C1 as parent."}, msgs.Successes)

	msgs = enroller.EnrolParent(ctx, par, nil)
	assert.True(t, msgs.IsEmpty())

	enrollments, err := crsRepo.QueryEnrollments(ctx, par.ID)
	require.NoError(t, err)
	for _, e := range enrollments {
		assert.Equal(t, course.RoleParent, e.Role)
	}
	assert.Len(t, enrollments, 2)

}
