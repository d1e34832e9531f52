package partnership

import (
	"context"
	"fmt"
	"strconv"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/course"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
)

var (
	// errors
	ErrNotFound       = errors.New("partnership not found")
	ErrPickupNotFound = errors.New("pickup not found")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreatePartnership(ctx context.Context, p Partnership) (Partnership, error)
		GetPartnership(ctx context.Context, id int64) (Partnership, error)
		// QueryPartnerships returns the partnerships ordered by name.
		QueryPartnerships(ctx context.Context, activeOnly bool) ([]Partnership, error)
		// DeletePartnership deletes the partnership and its pickups.
		DeletePartnership(ctx context.Context, id int64) error
		CreatePickup(ctx context.Context, p Pickup) (Pickup, error)
		GetPickup(ctx context.Context, id int64) (Pickup, error)
		// QueryPickups returns the pickups of `partnershipID` ordered by start time.
		QueryPickups(ctx context.Context, partnershipID int64) ([]Pickup, error)
	}

	// UserLookup resolves liaison accounts.
	UserLookup interface {
		QueryByIDs(ctx context.Context, ids ...int64) ([]user.User, error)
	}

	// CourseLookup resolves partnership courses.
	CourseLookup interface {
		QueryCourses(ctx context.Context, ids ...int64) ([]course.Course, error)
	}

	Service struct {
		repo       Repository
		users      UserLookup
		courses    CourseLookup
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewService(repo Repository, users UserLookup, courses CourseLookup, validate *validator.Validate, translator ut.Translator) *Service {
	return &Service{repo: repo, users: users, courses: courses, validate: validate, translator: translator}
}

// Create validates every fieldset then creates the partnerships in order.
// Field errors are keyed "partnerships[i].field" and nothing is created when any fieldset is invalid.
func (svc *Service) Create(ctx context.Context, nps []NewPartnership) ([]Partnership, error) {
	if len(nps) == 0 {
		return nil, core.NewValidationError(nil, core.FieldError{
			Field: "partnerships",
			Error: core.T(svc.translator, core.MsgPartnershipsRequired),
		})
	}

	fields := make([]core.FieldError, 0)
	for i := range nps {
		nps[i].clean()
		fErrs, err := svc.check(ctx, nps[i], fmt.Sprintf("partnerships[%d].", i))
		if err != nil {
			return nil, err
		}
		fields = append(fields, fErrs...)
	}
	if len(fields) > 0 {
		return nil, core.NewValidationError(errors.New("invalid partnerships"), fields...)
	}

	now := NowFunc().UTC()
	created := make([]Partnership, 0, len(nps))
	for _, np := range nps {
		active := true
		if np.Active != nil {
			active = *np.Active
		}
		p, err := svc.repo.CreatePartnership(ctx, Partnership{
			Name:         np.Name,
			Liaisons:     np.Liaisons,
			Courses:      np.Courses,
			Active:       active,
			Physical:     np.Physical,
			Mailing:      np.Mailing,
			Pickup:       np.Pickup,
			Billing:      np.Billing,
			TimeCreated:  now,
			TimeModified: now,
		})
		if err != nil {
			return created, errors.Wrapf(err, "creating partnership %q", np.Name)
		}
		created = append(created, p)
	}
	return created, nil
}

// check returns the field errors of one fieldset.
func (svc *Service) check(ctx context.Context, np NewPartnership, prefix string) ([]core.FieldError, error) {
	fields := make([]core.FieldError, 0)
	if err := svc.validate.Struct(np); err != nil {
		vErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, errors.Wrap(err, "validating partnership")
		}
		fields = append(fields, core.TranslateErrors(vErrs, svc.translator, prefix)...)
	}

	if len(np.Liaisons) > 0 {
		users, err := svc.users.QueryByIDs(ctx, np.Liaisons...)
		if err != nil {
			return nil, errors.Wrap(err, "querying liaisons")
		}
		known := make(map[int64]struct{}, len(users))
		for _, u := range users {
			known[u.ID] = struct{}{}
		}
		for _, id := range np.Liaisons {
			if _, ok := known[id]; !ok {
				fields = append(fields, core.FieldError{
					Field: prefix + "liaisons",
					Error: core.T(svc.translator, core.MsgUnknownLiaison, strconv.FormatInt(id, 10)),
				})
				break
			}
		}
	}

	if len(np.Courses) > 0 {
		courses, err := svc.courses.QueryCourses(ctx, np.Courses...)
		if err != nil {
			return nil, errors.Wrap(err, "querying courses")
		}
		known := make(map[int64]struct{}, len(courses))
		for _, c := range courses {
			known[c.ID] = struct{}{}
		}
		for _, id := range np.Courses {
			if _, ok := known[id]; !ok {
				fields = append(fields, core.FieldError{
					Field: prefix + "courses",
					Error: core.T(svc.translator, core.MsgUnknownCourse, strconv.FormatInt(id, 10)),
				})
				break
			}
		}
	}
	return fields, nil
}

func (svc *Service) Get(ctx context.Context, id int64) (Partnership, error) {
	return svc.repo.GetPartnership(ctx, id)
}

func (svc *Service) Query(ctx context.Context, activeOnly bool) ([]Partnership, error) {
	return svc.repo.QueryPartnerships(ctx, activeOnly)
}

func (svc *Service) Delete(ctx context.Context, id int64) error {
	if _, err := svc.repo.GetPartnership(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeletePartnership(ctx, id)
}

// AddPickup schedules a pickup window for an existing partnership.
func (svc *Service) AddPickup(ctx context.Context, np NewPickup) (Pickup, error) {
	if np.Status == "" {
		np.Status = PickupPending
	}
	if err := svc.validate.Struct(np); err != nil {
		return Pickup{}, err
	}
	if _, err := svc.repo.GetPartnership(ctx, np.PartnershipID); err != nil {
		return Pickup{}, err
	}

	now := NowFunc().UTC()
	return svc.repo.CreatePickup(ctx, Pickup{
		PartnershipID: np.PartnershipID,
		StartTime:     np.StartTime.UTC(),
		EndTime:       np.EndTime.UTC(),
		Status:        np.Status,
		TimeCreated:   now,
		TimeModified:  now,
	})
}

func (svc *Service) Pickups(ctx context.Context, partnershipID int64) ([]Pickup, error) {
	return svc.repo.QueryPickups(ctx, partnershipID)
}
