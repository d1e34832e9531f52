package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/partnership"
)

const (
	partnershipTable = "partnership"
	pickupTable      = "pickup"
)

var (
	partnershipColumns = []string{
		"id", "name", "liaisonids", "courseids", "active", "physical", "mailing", "pickup", "billing",
		"timecreated", "timemodified",
	}
	pickupColumns = []string{"id", "partnershipid", "starttime", "endtime", "status", "timecreated", "timemodified"}
)

type partnershipRow struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	LiaisonIDs   idList    `db:"liaisonids"`
	CourseIDs    idList    `db:"courseids"`
	Active       bool      `db:"active"`
	Physical     address   `db:"physical"`
	Mailing      address   `db:"mailing"`
	Pickup       address   `db:"pickup"`
	Billing      address   `db:"billing"`
	TimeCreated  time.Time `db:"timecreated"`
	TimeModified time.Time `db:"timemodified"`
}

func (row partnershipRow) partnership() partnership.Partnership {
	return partnership.Partnership{
		ID:           row.ID,
		Name:         row.Name,
		Liaisons:     []int64(row.LiaisonIDs),
		Courses:      []int64(row.CourseIDs),
		Active:       row.Active,
		Physical:     core.Address(row.Physical),
		Mailing:      core.Address(row.Mailing),
		Pickup:       core.Address(row.Pickup),
		Billing:      core.Address(row.Billing),
		TimeCreated:  row.TimeCreated.UTC(),
		TimeModified: row.TimeModified.UTC(),
	}
}

type pickupRow struct {
	ID            int64     `db:"id"`
	PartnershipID int64     `db:"partnershipid"`
	StartTime     time.Time `db:"starttime"`
	EndTime       time.Time `db:"endtime"`
	Status        string    `db:"status"`
	TimeCreated   time.Time `db:"timecreated"`
	TimeModified  time.Time `db:"timemodified"`
}

func (row pickupRow) pickup() partnership.Pickup {
	return partnership.Pickup{
		ID:            row.ID,
		PartnershipID: row.PartnershipID,
		StartTime:     row.StartTime.UTC(),
		EndTime:       row.EndTime.UTC(),
		Status:        row.Status,
		TimeCreated:   row.TimeCreated.UTC(),
		TimeModified:  row.TimeModified.UTC(),
	}
}

type partnershipRepository struct {
	exec core.DBExecutor
}

var _ partnership.Repository = (*partnershipRepository)(nil)

func NewPartnershipRepository(exec core.DBExecutor) partnership.Repository {
	return &partnershipRepository{exec: exec}
}

func (repo partnershipRepository) CreatePartnership(ctx context.Context, p partnership.Partnership) (partnership.Partnership, error) {
	q, args, err := psql.Insert(partnershipTable).
		Columns(partnershipColumns[1:]...).
		Values(
			p.Name, idList(p.Liaisons), idList(p.Courses), p.Active,
			address(p.Physical), address(p.Mailing), address(p.Pickup), address(p.Billing),
			p.TimeCreated.UTC(), p.TimeModified.UTC(),
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return partnership.Partnership{}, errors.Wrap(err, "building partnership insert")
	}
	if err = repo.exec.QueryRowxContext(ctx, q, args...).Scan(&p.ID); err != nil {
		return partnership.Partnership{}, errors.Wrap(err, "inserting partnership")
	}
	return p, nil
}

func (repo partnershipRepository) GetPartnership(ctx context.Context, id int64) (partnership.Partnership, error) {
	q, args, err := psql.Select(partnershipColumns...).From(partnershipTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return partnership.Partnership{}, errors.Wrap(err, "building partnership query")
	}
	var row partnershipRow
	if err = repo.exec.GetContext(ctx, &row, q, args...); err != nil {
		return partnership.Partnership{}, trapNoRowsErr(err, partnership.ErrNotFound, "getting partnership")
	}
	return row.partnership(), nil
}

func (repo partnershipRepository) QueryPartnerships(ctx context.Context, activeOnly bool) ([]partnership.Partnership, error) {
	query := psql.Select(partnershipColumns...).From(partnershipTable).OrderBy("LOWER(name)", "id")
	if activeOnly {
		query = query.Where(sq.Eq{"active": true})
	}
	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building partnerships query")
	}
	var rows []partnershipRow
	if err = repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying partnerships")
	}
	partnerships := make([]partnership.Partnership, 0, len(rows))
	for _, row := range rows {
		partnerships = append(partnerships, row.partnership())
	}
	return partnerships, nil
}

func (repo partnershipRepository) DeletePartnership(ctx context.Context, id int64) error {
	// pickups go with it (ON DELETE CASCADE)
	q, args, err := psql.Delete(partnershipTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building partnership delete")
	}
	res, err := repo.exec.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "deleting partnership")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return partnership.ErrNotFound
	}
	return nil
}

func (repo partnershipRepository) CreatePickup(ctx context.Context, p partnership.Pickup) (partnership.Pickup, error) {
	q, args, err := psql.Insert(pickupTable).
		Columns(pickupColumns[1:]...).
		Values(p.PartnershipID, p.StartTime.UTC(), p.EndTime.UTC(), p.Status, p.TimeCreated.UTC(), p.TimeModified.UTC()).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return partnership.Pickup{}, errors.Wrap(err, "building pickup insert")
	}
	if err = repo.exec.QueryRowxContext(ctx, q, args...).Scan(&p.ID); err != nil {
		if code, _ := pqCode(err); code == pqForeignKeyViolation {
			return partnership.Pickup{}, partnership.ErrNotFound
		}
		return partnership.Pickup{}, errors.Wrap(err, "inserting pickup")
	}
	return p, nil
}

func (repo partnershipRepository) GetPickup(ctx context.Context, id int64) (partnership.Pickup, error) {
	q, args, err := psql.Select(pickupColumns...).From(pickupTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return partnership.Pickup{}, errors.Wrap(err, "building pickup query")
	}
	var row pickupRow
	if err = repo.exec.GetContext(ctx, &row, q, args...); err != nil {
		return partnership.Pickup{}, trapNoRowsErr(err, partnership.ErrPickupNotFound, "getting pickup")
	}
	return row.pickup(), nil
}

func (repo partnershipRepository) QueryPickups(ctx context.Context, partnershipID int64) ([]partnership.Pickup, error) {
	q, args, err := psql.Select(pickupColumns...).
		From(pickupTable).
		Where(sq.Eq{"partnershipid": partnershipID}).
		OrderBy("starttime", "id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building pickups query")
	}
	var rows []pickupRow
	if err = repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying pickups")
	}
	pickups := make([]partnership.Pickup, 0, len(rows))
	for _, row := range rows {
		pickups = append(pickups, row.pickup())
	}
	return pickups, nil
}
