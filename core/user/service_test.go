package user_test

import (
	"context"
	"strings"
	"testing"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
	inmemdb "github.com/Junosprite007/mod-equipmentcheckout/storage/database/inmem"
	"github.com/Junosprite007/mod-equipmentcheckout/tests"
)

func setup() (user.Repository, user.Service, *validator.Validate) {
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	return repo, user.NewService(repo, translator), validate
}

func TestService_GenerateUsername(t *testing.T) {
	repo, svc, _ := setup()
	ctx := context.Background()
	testutil.CreateUser(t, repo, "John", "Doe", "johndoe", "", "", nil)
	testutil.CreateUser(t, repo, "John", "Doe", "johndoe1", "", "", nil)
	testutil.CreateUser(t, repo, "Ann", "Lee", "annlee2", "", "", nil)

	tests := []struct {
		name      string
		firstName string
		lastName  string
		want      string
	}{
		{name: "free", firstName: "Jane", lastName: "Doe", want: "janedoe"},
		{name: "taken twice", firstName: "John", lastName: "Doe", want: "johndoe2"},
		{name: "gap is not reused", firstName: "Ann", lastName: "Lee", want: "annlee"},
		{name: "stripped", firstName: "Zoë", lastName: "O'Brien-Smith", want: "zoobrien-smith"},
		{name: "nothing left", firstName: "!!", lastName: "??", want: "user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.GenerateUsername(ctx, tt.firstName, tt.lastName)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Create(t *testing.T) {
	repo, svc, _ := setup()
	ctx := context.Background()
	testutil.CreateUser(t, repo, "Jane", "Doe", "janedoe", "jane@x.com", "", nil)

	usr, err := svc.Create(ctx, user.NewUser{FirstName: "Jane", LastName: "Doe", Password: "pwd", Lang: "fr"})
	require.NoError(t, err)
	assert.Equal(t, "janedoe1", usr.Username)
	assert.Equal(t, "fr", usr.Lang)
	assert.Equal(t, user.AuthManual, usr.Auth)
	assert.True(t, usr.Confirmed)
	assert.NoError(t, usr.CheckPassword("pwd"))
	assert.NotZero(t, usr.ID)

	_, err = svc.Create(ctx, user.NewUser{FirstName: "Other", LastName: "Jane", Email: "jane@x.com", Password: "pwd"})
	assert.Equal(t, user.ErrEmailExists, errors.Cause(err))

	_, err = svc.Create(ctx, user.NewUser{FirstName: "Jane", LastName: "Doe", Username: "janedoe", Password: "pwd"})
	assert.Equal(t, user.ErrUsernameExists, errors.Cause(err))
}

func TestNewUser_Validate(t *testing.T) {
	repo, svc, validate := setup()
	ctx := context.Background()
	testutil.CreateUser(t, repo, "Jane", "Doe", "janedoe", "jane@x.com", "", nil)

	tests := []struct {
		name      string
		nu        user.NewUser
		wantField string
	}{
		{name: "valid", nu: user.NewUser{FirstName: " Ann ", LastName: "Lee", Email: "ANN@x.com", Password: "p"}},
		{name: "blank first name", nu: user.NewUser{FirstName: "  ", LastName: "Lee", Password: "p"}, wantField: "firstname"},
		{name: "bad username", nu: user.NewUser{FirstName: "A", LastName: "B", Username: "a b!", Password: "p"}, wantField: "username"},
		{name: "bad email", nu: user.NewUser{FirstName: "A", LastName: "B", Email: "nope", Password: "p"}, wantField: "email"},
		{name: "bad roles", nu: user.NewUser{FirstName: "A", LastName: "B", Password: "p", Roles: []string{"root"}}, wantField: "roles"},
		{name: "email taken", nu: user.NewUser{FirstName: "A", LastName: "B", Email: "Jane@x.com", Password: "p"}, wantField: "email"},
		{name: "username taken", nu: user.NewUser{FirstName: "A", LastName: "B", Username: "janedoe", Password: "p"}, wantField: "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(ctx, validate, svc)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var fields []string
			switch e := err.(type) {
			case validator.ValidationErrors:
				for _, fe := range e {
					fields = append(fields, fe.Field())
				}
			case *core.ValidationError:
				for _, fe := range e.Fields {
					fields = append(fields, fe.Field)
				}
			default:
				t.Fatalf("unexpected error type %T", err)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestService_AssignParent(t *testing.T) {
	repo, svc, _ := setup()
	ctx := context.Background()
	par := testutil.CreateUser(t, repo, "Pat", "Lee", "patlee", "pat@x.com", "", nil)
	stu := testutil.CreateUser(t, repo, "Kim", "Lee", "kimlee", "", "", nil)

	msgs := svc.AssignParent(ctx, par, stu)
	assert.Equal(t, core.StatusSuccess, msgs.Status())
	assert.Equal(t, []string{"Pat Lee assigned as parent of Kim Lee."}, msgs.Successes)

	msgs = svc.AssignParent(ctx, par, stu)
	assert.Equal(t, core.StatusWarning, msgs.Status())
	assert.Len(t, msgs.Warnings, 1)

	msgs = svc.AssignParent(ctx, par, user.User{ID: 999, FirstName: "Ghost", LastName: "Kid"})
	assert.Equal(t, core.StatusError, msgs.Status())
	assert.Len(t, msgs.Errors, 1)

	students, err := svc.StudentsOfParent(ctx, par.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, stu.ID, students[0].ID)
}

func TestService_lookups(t *testing.T) {
	repo, svc, _ := setup()
	ctx := context.Background()
	usr := testutil.CreateUser(t, repo, "Jane", "Doe", "janedoe", "jane@x.com", "", nil)

	got, err := svc.GetByEmail(ctx, " JANE@x.com")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	got, err = svc.GetByUsernameOrEmail(ctx, "JaneDoe")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = svc.GetByEmail(ctx, "")
	assert.Equal(t, user.ErrNotFound, err)

	_, err = svc.GetByID(ctx, 42)
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))

	users, err := svc.QueryByIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestService_SetPassword(t *testing.T) {
	repo, svc, _ := setup()
	ctx := context.Background()
	usr := testutil.CreateUser(t, repo, "Jane", "Doe", "janedoe", "jane@x.com", "old", nil)

	usr, err := svc.SetPassword(ctx, usr, "new")
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword("new"))
	assert.Error(t, usr.CheckPassword("old"))

	usr, err = svc.SetLastLogin(ctx, usr)
	require.NoError(t, err)
	assert.False(t, usr.LastLogin.IsZero())
}

func TestUser_Can(t *testing.T) {
	admin := user.User{Roles: []string{user.RoleAdmin}}
	manager := user.User{Roles: []string{user.RoleAdminManager}}
	nobody := user.User{}

	assert.True(t, admin.Can(user.CapUserCreate))
	assert.True(t, admin.Can(user.CapManageAgreements))
	assert.True(t, manager.Can(user.CapManageVCCSubmissions))
	assert.False(t, manager.Can(user.CapUserCreate))
	assert.False(t, nobody.Can(user.CapManagePartnerships))
	assert.True(t, manager.IsAdmin())
	assert.False(t, nobody.IsAdmin())
}

func TestGeneratePassword(t *testing.T) {
	for _, length := range []int{0, 4, 6, 20} {
		pwd, err := user.GeneratePassword(length)
		require.NoError(t, err)

		want := length
		if want < user.MinPasswordLength {
			want = user.MinPasswordLength
		}
		assert.Len(t, pwd, want)
		assert.True(t, strings.IndexFunc(pwd, unicode.IsLower) >= 0, pwd)
		assert.True(t, strings.IndexFunc(pwd, unicode.IsUpper) >= 0, pwd)
		assert.True(t, strings.IndexFunc(pwd, unicode.IsDigit) >= 0, pwd)
		assert.True(t, strings.ContainsAny(pwd, "*-.!#$"), pwd)
	}
}
