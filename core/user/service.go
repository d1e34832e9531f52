package user

import (
	"context"
	"strconv"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
	ErrRelationExists = errors.New("relation already exists")

	NowFunc = time.Now // mockable

	maxUsernameAttempts = 3
)

type (
	Repository interface {
		CheckUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		QueryUsersByID(ctx context.Context, ids ...int64) ([]User, error)
		// QueryUsernames returns every username starting with `prefix`.
		QueryUsernames(ctx context.Context, prefix string) ([]string, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		// CreateRelation returns ErrRelationExists when the relation is already there.
		CreateRelation(ctx context.Context, rel Relation) error
		// QueryStudents returns the students related to `parentID`, ordered by ID.
		QueryStudents(ctx context.Context, parentID int64) ([]User, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		GenerateUsername(ctx context.Context, firstName, lastName string) (string, error)
		GetByID(ctx context.Context, id int64) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		QueryByIDs(ctx context.Context, ids ...int64) ([]User, error)
		Update(ctx context.Context, usr User) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
		StudentsOfParent(ctx context.Context, parentID int64) ([]User, error)
		AssignParent(ctx context.Context, parent, student User) core.Messages
	}

	service struct {
		repo       Repository
		translator ut.Translator
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, translator ut.Translator) Service {
	return &service{repo: repo, translator: translator}
}

// Validate cleans `nu` then checks it against its validation tags and the existing users.
func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.MiddleName = core.CleanString(nu.MiddleName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Username, nu.Email)
}

func (svc *service) CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUniqueness(ctx, uname, email, exclUsers...); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: errors.Cause(err).Error()})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := NowFunc().UTC()
	usr := User{
		Username:   nu.Username,
		Email:      nu.Email,
		FirstName:  nu.FirstName,
		MiddleName: nu.MiddleName,
		LastName:   nu.LastName,
		Phone:      nu.Phone,
		Lang:       nu.Lang,
		Auth:       AuthManual,
		Confirmed:  true,
		Roles:      nu.Roles,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}

	generated := usr.Username == ""
	for attempt := 1; ; attempt++ {
		if generated {
			uname, err := svc.GenerateUsername(ctx, nu.FirstName, nu.LastName)
			if err != nil {
				return User{}, errors.Wrap(err, "generating username")
			}
			usr.Username = uname
		}
		created, err := svc.repo.CreateUser(ctx, usr)
		if err == nil {
			return created, nil
		}
		// another writer may have taken the generated username in the meantime
		if !generated || errors.Cause(err) != ErrUsernameExists || attempt >= maxUsernameAttempts {
			return User{}, err
		}
	}
}

// GenerateUsername derives a free username from the names: "janedoe", then "janedoe1", "janedoe2"...
func (svc *service) GenerateUsername(ctx context.Context, firstName, lastName string) (string, error) {
	base := core.CleanUsername(firstName + lastName)
	if base == "" {
		base = "user"
	}
	existing, err := svc.repo.QueryUsernames(ctx, base)
	if err != nil {
		return "", err
	}
	taken := make(map[string]struct{}, len(existing))
	for _, uname := range existing {
		taken[uname] = struct{}{}
	}
	if _, ok := taken[base]; !ok {
		return base, nil
	}
	for i := 1; ; i++ {
		candidate := base + strconv.Itoa(i)
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
	}
}

func (svc *service) GetByID(ctx context.Context, id int64) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{Email: email})
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	uname = core.CleanString(uname, true /* lower */)
	if uname == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: uname})
}

func (svc *service) QueryByIDs(ctx context.Context, ids ...int64) ([]User, error) {
	if len(ids) == 0 {
		return []User{}, nil
	}
	return svc.repo.QueryUsersByID(ctx, ids...)
}

func (svc *service) Update(ctx context.Context, usr User) (User, error) {
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = NowFunc().UTC()
	return svc.Update(ctx, usr)
}

func (svc *service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.Update(ctx, usr)
}

func (svc *service) StudentsOfParent(ctx context.Context, parentID int64) ([]User, error) {
	return svc.repo.QueryStudents(ctx, parentID)
}

// AssignParent links `parent` to `student` and reports the outcome as a message.
func (svc *service) AssignParent(ctx context.Context, parent, student User) core.Messages {
	msgs := core.NewMessages()
	parentName, studentName := parent.FullName(), student.FullName()

	err := svc.repo.CreateRelation(ctx, Relation{
		ParentID:  parent.ID,
		StudentID: student.ID,
		Role:      RelationRoleParent,
		CreatedAt: NowFunc().UTC(),
	})
	switch {
	case err == nil:
		msgs.Success(core.T(svc.translator, core.MsgParentAssigned, parentName, studentName))
	case errors.Cause(err) == ErrRelationExists:
		msgs.Warning(core.T(svc.translator, core.MsgParentAlreadyAssigned, parentName, studentName))
	default:
		msgs.Error(core.T(svc.translator, core.MsgErrorAssigningParent, parentName, studentName, err.Error()))
	}
	return msgs
}
