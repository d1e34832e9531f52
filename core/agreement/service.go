package agreement

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
)

var (
	// errors
	ErrNotFound = errors.New("agreement not found")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateAgreement(ctx context.Context, a Agreement) (Agreement, error)
		GetAgreement(ctx context.Context, id int64) (Agreement, error)
		// QueryAgreements returns the agreements, newest version first.
		QueryAgreements(ctx context.Context, activeOnly bool) ([]Agreement, error)
		UpdateAgreement(ctx context.Context, a Agreement) (Agreement, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (ea *EditAgreement) clean() {
	ea.Title = core.CleanString(ea.Title)
	ea.Content = core.CleanString(ea.Content)
	ea.Type = core.CleanString(ea.Type, true /* lower */)
	ea.StartDate = ea.StartDate.UTC()
	ea.EndDate = ea.EndDate.UTC()
}

// Validate cleans `ea` then checks it; the end date must come after the start date.
func (ea *EditAgreement) Validate(validate *validator.Validate) error {
	ea.clean()
	return validate.Struct(ea)
}

// Create stores the first version of a new agreement.
func (svc *Service) Create(ctx context.Context, ea EditAgreement) (Agreement, error) {
	if err := ea.Validate(svc.validate); err != nil {
		return Agreement{}, err
	}
	now := NowFunc().UTC()
	a, err := svc.repo.CreateAgreement(ctx, newVersion(ea, 1, 0, now))
	if err != nil {
		return Agreement{}, errors.Wrap(err, "creating agreement")
	}
	return a, nil
}

func (svc *Service) Get(ctx context.Context, id int64) (Agreement, error) {
	return svc.repo.GetAgreement(ctx, id)
}

func (svc *Service) Query(ctx context.Context, activeOnly bool) ([]Agreement, error) {
	return svc.repo.QueryAgreements(ctx, activeOnly)
}

// Current returns the active agreements whose dates include the present time.
func (svc *Service) Current(ctx context.Context) ([]Agreement, error) {
	active, err := svc.repo.QueryAgreements(ctx, true)
	if err != nil {
		return nil, errors.Wrap(err, "querying active agreements")
	}
	now := NowFunc().UTC()
	current := make([]Agreement, 0, len(active))
	for _, a := range active {
		if a.IsCurrent(now) {
			current = append(current, a)
		}
	}
	return current, nil
}

// Edit stores `ea` as a new version of agreement `id`. The edited version is deactivated
// when the new one is active; it is otherwise left untouched.
func (svc *Service) Edit(ctx context.Context, id int64, ea EditAgreement) (Agreement, error) {
	if err := ea.Validate(svc.validate); err != nil {
		return Agreement{}, err
	}
	prev, err := svc.repo.GetAgreement(ctx, id)
	if err != nil {
		return Agreement{}, err
	}

	now := NowFunc().UTC()
	a, err := svc.repo.CreateAgreement(ctx, newVersion(ea, prev.Version+1, prev.ID, now))
	if err != nil {
		return Agreement{}, errors.Wrapf(err, "creating version %d of agreement %d", prev.Version+1, prev.ID)
	}

	if a.Active && prev.Active {
		prev.Active = false
		prev.TimeModified = now
		if _, err = svc.repo.UpdateAgreement(ctx, prev); err != nil {
			return a, errors.Wrapf(err, "deactivating agreement %d", prev.ID)
		}
	}
	return a, nil
}

func newVersion(ea EditAgreement, version int, previousID int64, now time.Time) Agreement {
	return Agreement{
		Title:             ea.Title,
		Content:           ea.Content,
		Type:              ea.Type,
		Active:            ea.Active,
		RequireSignature:  ea.RequireSignature,
		StartDate:         ea.StartDate,
		EndDate:           ea.EndDate,
		Version:           version,
		PreviousVersionID: previousID,
		TimeCreated:       now,
		TimeModified:      now,
	}
}
