package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/profile"
)

const profileTable = "profile"

var profileColumns = []string{
	"id", "userid", "partnershipid", "studentids", "vccsubmissionids", "phoneverificationids", "phone",
	"phone_verified", "mailing", "billing", "billing_sameasmailing", "timecreated", "timemodified",
}

type profileRow struct {
	ID                   int64     `db:"id"`
	UserID               int64     `db:"userid"`
	PartnershipID        int64     `db:"partnershipid"`
	StudentIDs           idList    `db:"studentids"`
	VCCSubmissionIDs     idList    `db:"vccsubmissionids"`
	PhoneVerificationIDs idList    `db:"phoneverificationids"`
	Phone                string    `db:"phone"`
	PhoneVerified        null.Bool `db:"phone_verified"`
	Mailing              address   `db:"mailing"`
	Billing              address   `db:"billing"`
	BillingSameAsMailing bool      `db:"billing_sameasmailing"`
	TimeCreated          time.Time `db:"timecreated"`
	TimeModified         time.Time `db:"timemodified"`
}

type profileRepository struct {
	exec core.DBExecutor
}

var _ profile.Repository = (*profileRepository)(nil)

func NewProfileRepository(exec core.DBExecutor) profile.Repository {
	return &profileRepository{exec: exec}
}

func (repo profileRepository) toRow(p profile.Profile) profileRow {
	return profileRow{
		ID:                   p.ID,
		UserID:               p.UserID,
		PartnershipID:        p.PartnershipID,
		StudentIDs:           p.StudentIDs,
		VCCSubmissionIDs:     p.VCCSubmissionIDs,
		PhoneVerificationIDs: p.PhoneVerificationIDs,
		Phone:                p.Phone,
		PhoneVerified:        null.BoolFromPtr(p.PhoneVerified),
		Mailing:              address(p.Mailing),
		Billing:              address(p.Billing),
		BillingSameAsMailing: p.BillingSameAsMailing,
		TimeCreated:          p.TimeCreated.UTC(),
		TimeModified:         p.TimeModified.UTC(),
	}
}

func (repo profileRepository) fromRow(row profileRow) profile.Profile {
	return profile.Profile{
		ID:                   row.ID,
		UserID:               row.UserID,
		PartnershipID:        row.PartnershipID,
		StudentIDs:           []int64(row.StudentIDs),
		VCCSubmissionIDs:     []int64(row.VCCSubmissionIDs),
		PhoneVerificationIDs: []int64(row.PhoneVerificationIDs),
		Phone:                row.Phone,
		PhoneVerified:        row.PhoneVerified.Ptr(),
		Mailing:              core.Address(row.Mailing),
		Billing:              core.Address(row.Billing),
		BillingSameAsMailing: row.BillingSameAsMailing,
		TimeCreated:          row.TimeCreated.UTC(),
		TimeModified:         row.TimeModified.UTC(),
	}
}

func (repo profileRepository) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	row := repo.toRow(p)
	q, args, err := psql.Insert(profileTable).
		Columns(profileColumns[1:]...).
		Values(
			row.UserID, row.PartnershipID, row.StudentIDs, row.VCCSubmissionIDs, row.PhoneVerificationIDs, row.Phone,
			row.PhoneVerified, row.Mailing, row.Billing, row.BillingSameAsMailing, row.TimeCreated, row.TimeModified,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "building profile insert")
	}
	if err = repo.exec.QueryRowxContext(ctx, q, args...).Scan(&row.ID); err != nil {
		return profile.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return repo.fromRow(row), nil
}

func (repo profileRepository) UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	row := repo.toRow(p)
	q, args, err := psql.Update(profileTable).
		SetMap(map[string]interface{}{
			"partnershipid":         row.PartnershipID,
			"studentids":            row.StudentIDs,
			"vccsubmissionids":      row.VCCSubmissionIDs,
			"phoneverificationids":  row.PhoneVerificationIDs,
			"phone":                 row.Phone,
			"phone_verified":        row.PhoneVerified,
			"mailing":               row.Mailing,
			"billing":               row.Billing,
			"billing_sameasmailing": row.BillingSameAsMailing,
			"timemodified":          row.TimeModified,
		}).
		Where(sq.Eq{"id": row.ID}).
		ToSql()
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "building profile update")
	}
	res, err := repo.exec.ExecContext(ctx, q, args...)
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "updating profile")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return profile.Profile{}, profile.ErrNotFound
	}
	return repo.fromRow(row), nil
}

func (repo profileRepository) QueryProfiles(ctx context.Context, userID int64) ([]profile.Profile, error) {
	q, args, err := psql.Select(profileColumns...).
		From(profileTable).
		Where(sq.Eq{"userid": userID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building profiles query")
	}
	var rows []profileRow
	if err = repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying profiles")
	}
	profiles := make([]profile.Profile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, repo.fromRow(row))
	}
	return profiles, nil
}

func (repo profileRepository) QueryDuplicateUserIDs(ctx context.Context) ([]int64, error) {
	q, args, err := psql.Select("userid").
		From(profileTable).
		GroupBy("userid").
		Having("COUNT(*) > 1").
		OrderBy("userid").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building duplicate profiles query")
	}
	ids := make([]int64, 0)
	if err = repo.exec.SelectContext(ctx, &ids, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying duplicate profiles")
	}
	return ids, nil
}

func (repo profileRepository) DeleteProfiles(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := psql.Delete(profileTable).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building profiles delete")
	}
	_, err = repo.exec.ExecContext(ctx, q, args...)
	return errors.Wrap(err, "deleting profiles")
}
