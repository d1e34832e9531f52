package profile

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
)

var (
	// errors
	ErrNotFound = errors.New("profile not found")

	NowFunc = time.Now // mockable
)

type Repository interface {
	CreateProfile(ctx context.Context, p Profile) (Profile, error)
	UpdateProfile(ctx context.Context, p Profile) (Profile, error)
	// QueryProfiles returns the profiles of `userID`, oldest first.
	QueryProfiles(ctx context.Context, userID int64) ([]Profile, error)
	// QueryDuplicateUserIDs returns the users owning more than one profile.
	QueryDuplicateUserIDs(ctx context.Context) ([]int64, error)
	DeleteProfiles(ctx context.Context, ids ...int64) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetByUser returns the oldest profile of `userID`.
func (svc *Service) GetByUser(ctx context.Context, userID int64) (Profile, error) {
	profiles, err := svc.repo.QueryProfiles(ctx, userID)
	if err != nil {
		return Profile{}, errors.Wrap(err, "querying profiles")
	}
	if len(profiles) == 0 {
		return Profile{}, ErrNotFound
	}
	return profiles[0], nil
}

// Upsert creates the profile of `userID` or points its oldest profile at `partnershipID`.
// The returned bool reports whether a profile was created.
func (svc *Service) Upsert(ctx context.Context, userID, partnershipID int64) (Profile, bool, error) {
	now := NowFunc().UTC()

	p, err := svc.GetByUser(ctx, userID)
	if errors.Cause(err) == ErrNotFound {
		if p, err = svc.repo.CreateProfile(ctx, NewProfile(userID, partnershipID, now)); err != nil {
			return Profile{}, false, errors.Wrap(err, "creating profile")
		}
		return p, true, nil
	}
	if err != nil {
		return Profile{}, false, err
	}

	p.PartnershipID = partnershipID
	p.TimeModified = now
	if p, err = svc.repo.UpdateProfile(ctx, p); err != nil {
		return Profile{}, false, errors.Wrap(err, "updating profile")
	}
	return p, false, nil
}

// MergeDuplicates collapses the profiles of every user owning more than one into a single row.
// It returns the number of users whose profiles were merged.
func (svc *Service) MergeDuplicates(ctx context.Context) (int, error) {
	userIDs, err := svc.repo.QueryDuplicateUserIDs(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying duplicate profiles")
	}

	var merged int
	for _, userID := range userIDs {
		profiles, err := svc.repo.QueryProfiles(ctx, userID)
		if err != nil {
			return merged, errors.Wrapf(err, "querying profiles of user %d", userID)
		}
		if len(profiles) < 2 {
			continue
		}

		keep, drop := Merge(profiles)
		keep.TimeModified = NowFunc().UTC()
		if _, err = svc.repo.UpdateProfile(ctx, keep); err != nil {
			return merged, errors.Wrapf(err, "updating profile %d", keep.ID)
		}
		if err = svc.repo.DeleteProfiles(ctx, drop...); err != nil {
			return merged, errors.Wrapf(err, "deleting profiles of user %d", userID)
		}
		merged++
	}
	return merged, nil
}

// Merge combines the profiles of one user. The oldest row is kept: ID lists are unioned,
// empty address fields are filled from the other rows and the partnership and phone come
// from the most recently modified row that has one. It returns the kept row and the IDs to drop.
func Merge(profiles []Profile) (Profile, []int64) {
	rows := append([]Profile(nil), profiles...)
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].TimeCreated.Equal(rows[j].TimeCreated) {
			return rows[i].TimeCreated.Before(rows[j].TimeCreated)
		}
		return rows[i].ID < rows[j].ID
	})

	keep := rows[0]
	drop := make([]int64, 0, len(rows)-1)
	studentIDs := append([]int64(nil), keep.StudentIDs...)
	vccIDs := append([]int64(nil), keep.VCCSubmissionIDs...)
	phoneVerificationIDs := append([]int64(nil), keep.PhoneVerificationIDs...)

	for _, p := range rows[1:] {
		drop = append(drop, p.ID)
		studentIDs = append(studentIDs, p.StudentIDs...)
		vccIDs = append(vccIDs, p.VCCSubmissionIDs...)
		phoneVerificationIDs = append(phoneVerificationIDs, p.PhoneVerificationIDs...)
		keep.Mailing = keep.Mailing.FillFrom(p.Mailing)
		keep.Billing = keep.Billing.FillFrom(p.Billing)
		keep.BillingSameAsMailing = keep.BillingSameAsMailing || p.BillingSameAsMailing
	}
	keep.StudentIDs = core.UniqueInt64s(studentIDs)
	keep.VCCSubmissionIDs = core.UniqueInt64s(vccIDs)
	keep.PhoneVerificationIDs = core.UniqueInt64s(phoneVerificationIDs)

	byModified := append([]Profile(nil), rows...)
	sort.SliceStable(byModified, func(i, j int) bool {
		return byModified[i].TimeModified.After(byModified[j].TimeModified)
	})
	for _, p := range byModified {
		if p.PartnershipID != 0 {
			keep.PartnershipID = p.PartnershipID
			break
		}
	}
	for _, p := range byModified {
		if p.Phone != "" {
			keep.Phone = p.Phone
			keep.PhoneVerified = p.PhoneVerified
			break
		}
	}
	return keep, drop
}
