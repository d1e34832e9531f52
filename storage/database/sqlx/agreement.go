package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/agreement"
)

const agreementTable = "agreement"

var agreementColumns = []string{
	"id", "title", "content", "agreementtype", "active", "requiresignature", "startdate", "enddate", "version",
	"previousversionid", "timecreated", "timemodified",
}

type agreementRow struct {
	ID                int64      `db:"id"`
	Title             string     `db:"title"`
	Content           string     `db:"content"`
	Type              string     `db:"agreementtype"`
	Active            bool       `db:"active"`
	RequireSignature  bool       `db:"requiresignature"`
	StartDate         time.Time  `db:"startdate"`
	EndDate           time.Time  `db:"enddate"`
	Version           int        `db:"version"`
	PreviousVersionID null.Int64 `db:"previousversionid"`
	TimeCreated       time.Time  `db:"timecreated"`
	TimeModified      time.Time  `db:"timemodified"`
}

func (row agreementRow) agreement() agreement.Agreement {
	return agreement.Agreement{
		ID:                row.ID,
		Title:             row.Title,
		Content:           row.Content,
		Type:              row.Type,
		Active:            row.Active,
		RequireSignature:  row.RequireSignature,
		StartDate:         row.StartDate.UTC(),
		EndDate:           row.EndDate.UTC(),
		Version:           row.Version,
		PreviousVersionID: row.PreviousVersionID.Int64,
		TimeCreated:       row.TimeCreated.UTC(),
		TimeModified:      row.TimeModified.UTC(),
	}
}

type agreementRepository struct {
	exec core.DBExecutor
}

var _ agreement.Repository = (*agreementRepository)(nil)

func NewAgreementRepository(exec core.DBExecutor) agreement.Repository {
	return &agreementRepository{exec: exec}
}

func previousVersion(a agreement.Agreement) null.Int64 {
	return null.NewInt64(a.PreviousVersionID, a.PreviousVersionID != 0)
}

func (repo agreementRepository) CreateAgreement(ctx context.Context, a agreement.Agreement) (agreement.Agreement, error) {
	q, args, err := psql.Insert(agreementTable).
		Columns(agreementColumns[1:]...).
		Values(
			a.Title, a.Content, a.Type, a.Active, a.RequireSignature, a.StartDate.UTC(), a.EndDate.UTC(), a.Version,
			previousVersion(a), a.TimeCreated.UTC(), a.TimeModified.UTC(),
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return agreement.Agreement{}, errors.Wrap(err, "building agreement insert")
	}
	if err = repo.exec.QueryRowxContext(ctx, q, args...).Scan(&a.ID); err != nil {
		if code, _ := pqCode(err); code == pqForeignKeyViolation {
			return agreement.Agreement{}, agreement.ErrNotFound
		}
		return agreement.Agreement{}, errors.Wrap(err, "inserting agreement")
	}
	return a, nil
}

func (repo agreementRepository) GetAgreement(ctx context.Context, id int64) (agreement.Agreement, error) {
	q, args, err := psql.Select(agreementColumns...).From(agreementTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return agreement.Agreement{}, errors.Wrap(err, "building agreement query")
	}
	var row agreementRow
	if err = repo.exec.GetContext(ctx, &row, q, args...); err != nil {
		return agreement.Agreement{}, trapNoRowsErr(err, agreement.ErrNotFound, "getting agreement")
	}
	return row.agreement(), nil
}

func (repo agreementRepository) QueryAgreements(ctx context.Context, activeOnly bool) ([]agreement.Agreement, error) {
	query := psql.Select(agreementColumns...).From(agreementTable).OrderBy("id DESC")
	if activeOnly {
		query = query.Where(sq.Eq{"active": true})
	}
	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building agreements query")
	}
	var rows []agreementRow
	if err = repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying agreements")
	}
	agreements := make([]agreement.Agreement, 0, len(rows))
	for _, row := range rows {
		agreements = append(agreements, row.agreement())
	}
	return agreements, nil
}

func (repo agreementRepository) UpdateAgreement(ctx context.Context, a agreement.Agreement) (agreement.Agreement, error) {
	q, args, err := psql.Update(agreementTable).
		SetMap(map[string]interface{}{
			"title":             a.Title,
			"content":           a.Content,
			"agreementtype":     a.Type,
			"active":            a.Active,
			"requiresignature":  a.RequireSignature,
			"startdate":         a.StartDate.UTC(),
			"enddate":           a.EndDate.UTC(),
			"version":           a.Version,
			"previousversionid": previousVersion(a),
			"timemodified":      a.TimeModified.UTC(),
		}).
		Where(sq.Eq{"id": a.ID}).
		ToSql()
	if err != nil {
		return agreement.Agreement{}, errors.Wrap(err, "building agreement update")
	}
	res, err := repo.exec.ExecContext(ctx, q, args...)
	if err != nil {
		return agreement.Agreement{}, errors.Wrap(err, "updating agreement")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return agreement.Agreement{}, agreement.ErrNotFound
	}
	return a, nil
}
