package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/vcc"
)

const vccTable = "vccsubmission"

var (
	vccColumns = []string{
		"id", "userid", "partnershipid", "studentids", "pickupid", "pickupmethod", "pickuppersonname",
		"pickuppersonphone", "pickuppersondetails", "usernotes", "adminnotes", "timecreated", "timemodified",
	}

	// vccOrderColumns maps the sortable columns to SQL expressions; text sorts ignore case.
	vccOrderColumns = map[string]string{
		vcc.ColID:                  "v.id",
		vcc.ColTimeCreated:         "v.timecreated",
		vcc.ColParentFirstName:     "LOWER(COALESCE(u.firstname, ''))",
		vcc.ColParentLastName:      "LOWER(COALESCE(u.lastname, ''))",
		vcc.ColParentEmail:         "LOWER(COALESCE(u.email, ''))",
		vcc.ColParentPhone:         "LOWER(COALESCE(u.phone, ''))",
		vcc.ColPartnershipName:     "LOWER(COALESCE(p.name, ''))",
		vcc.ColPickupMethod:        "LOWER(v.pickupmethod)",
		vcc.ColPickupPersonName:    "LOWER(v.pickuppersonname)",
		vcc.ColPickupPersonPhone:   "LOWER(v.pickuppersonphone)",
		vcc.ColPickupPersonDetails: "LOWER(v.pickuppersondetails)",
		vcc.ColUserNotes:           "LOWER(v.usernotes)",
		vcc.ColAdminNotes:          "LOWER(v.adminnotes)",
	}
)

type submissionRow struct {
	ID                  int64     `db:"id"`
	UserID              int64     `db:"userid"`
	PartnershipID       int64     `db:"partnershipid"`
	StudentIDs          idList    `db:"studentids"`
	PickupID            int64     `db:"pickupid"`
	PickupMethod        string    `db:"pickupmethod"`
	PickupPersonName    string    `db:"pickuppersonname"`
	PickupPersonPhone   string    `db:"pickuppersonphone"`
	PickupPersonDetails string    `db:"pickuppersondetails"`
	UserNotes           string    `db:"usernotes"`
	AdminNotes          string    `db:"adminnotes"`
	TimeCreated         time.Time `db:"timecreated"`
	TimeModified        time.Time `db:"timemodified"`
}

func (row submissionRow) submission() vcc.Submission {
	return vcc.Submission{
		ID:                  row.ID,
		UserID:              row.UserID,
		PartnershipID:       row.PartnershipID,
		StudentIDs:          []int64(row.StudentIDs),
		PickupID:            row.PickupID,
		PickupMethod:        row.PickupMethod,
		PickupPersonName:    row.PickupPersonName,
		PickupPersonPhone:   row.PickupPersonPhone,
		PickupPersonDetails: row.PickupPersonDetails,
		UserNotes:           row.UserNotes,
		AdminNotes:          row.AdminNotes,
		TimeCreated:         row.TimeCreated.UTC(),
		TimeModified:        row.TimeModified.UTC(),
	}
}

// joinedRow is a submission with the LEFT JOINed columns; missing joins scan as zero values.
type joinedRow struct {
	submissionRow

	ParentFirstName string    `db:"parent_firstname"`
	ParentLastName  string    `db:"parent_lastname"`
	ParentEmail     string    `db:"parent_email"`
	ParentPhone     string    `db:"parent_phone2"`
	PartnershipName string    `db:"partnership_name"`
	PickupAddress   address   `db:"pickup_address"`
	PickupStart     null.Time `db:"pickup_starttime"`
	PickupEnd       null.Time `db:"pickup_endtime"`
	Mailing         address   `db:"parent_mailing"`
}

func (row joinedRow) row() vcc.Row {
	r := vcc.Row{
		Submission:      row.submission(),
		ParentFirstName: row.ParentFirstName,
		ParentLastName:  row.ParentLastName,
		ParentEmail:     row.ParentEmail,
		ParentPhone:     row.ParentPhone,
		PartnershipName: row.PartnershipName,
		PickupAddress:   core.Address(row.PickupAddress),
		Mailing:         core.Address(row.Mailing),
	}
	if row.PickupStart.Valid {
		r.PickupStart = row.PickupStart.Time.UTC()
	}
	if row.PickupEnd.Valid {
		r.PickupEnd = row.PickupEnd.Time.UTC()
	}
	return r
}

type vccRepository struct {
	exec core.DBExecutor
}

var _ vcc.Repository = (*vccRepository)(nil)

func NewVCCRepository(exec core.DBExecutor) vcc.Repository {
	return &vccRepository{exec: exec}
}

func (repo vccRepository) CreateSubmission(ctx context.Context, s vcc.Submission) (vcc.Submission, error) {
	if s.StudentIDs == nil {
		s.StudentIDs = []int64{}
	}
	q, args, err := psql.Insert(vccTable).
		Columns(vccColumns[1:]...).
		Values(
			s.UserID, s.PartnershipID, idList(s.StudentIDs), s.PickupID, s.PickupMethod, s.PickupPersonName,
			s.PickupPersonPhone, s.PickupPersonDetails, s.UserNotes, s.AdminNotes, s.TimeCreated.UTC(), s.TimeModified.UTC(),
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return vcc.Submission{}, errors.Wrap(err, "building vcc submission insert")
	}
	if err = repo.exec.QueryRowxContext(ctx, q, args...).Scan(&s.ID); err != nil {
		return vcc.Submission{}, errors.Wrap(err, "inserting vcc submission")
	}
	return s, nil
}

func (repo vccRepository) GetSubmission(ctx context.Context, id int64) (vcc.Submission, error) {
	q, args, err := psql.Select(vccColumns...).From(vccTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return vcc.Submission{}, errors.Wrap(err, "building vcc submission query")
	}
	var row submissionRow
	if err = repo.exec.GetContext(ctx, &row, q, args...); err != nil {
		return vcc.Submission{}, trapNoRowsErr(err, vcc.ErrNotFound, "getting vcc submission")
	}
	return row.submission(), nil
}

func (repo vccRepository) DeleteSubmission(ctx context.Context, id int64) error {
	q, args, err := psql.Delete(vccTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building vcc submission delete")
	}
	res, err := repo.exec.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "deleting vcc submission")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return vcc.ErrNotFound
	}
	return nil
}

func (repo vccRepository) QueryRows(ctx context.Context, orderings []core.DBOrdering, page core.Pagination) ([]vcc.Row, int, error) {
	orderClauses, err := orderBy(orderings, vccOrderColumns)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err = repo.exec.GetContext(ctx, &total, "SELECT COUNT(*) FROM "+vccTable); err != nil {
		return nil, 0, errors.Wrap(err, "counting vcc submissions")
	}

	cols := make([]string, 0, len(vccColumns)+9)
	for _, col := range vccColumns {
		cols = append(cols, "v."+col)
	}
	cols = append(cols,
		"COALESCE(u.firstname, '') AS parent_firstname",
		"COALESCE(u.lastname, '') AS parent_lastname",
		"COALESCE(u.email, '') AS parent_email",
		"COALESCE(u.phone, '') AS parent_phone2",
		"COALESCE(p.name, '') AS partnership_name",
		"p.pickup AS pickup_address",
		"pu.starttime AS pickup_starttime",
		"pu.endtime AS pickup_endtime",
		"prf.mailing AS parent_mailing",
	)

	page = page.Normalize()
	q, args, err := psql.Select(cols...).
		From(vccTable + " v").
		LeftJoin(userTable + " u ON u.id = v.userid").
		LeftJoin(partnershipTable + " p ON p.id = v.partnershipid").
		LeftJoin(pickupTable + " pu ON pu.id = v.pickupid").
		// the parent's oldest shadow profile
		LeftJoin("LATERAL (SELECT mailing FROM " + profileTable + " WHERE userid = v.userid ORDER BY id LIMIT 1) prf ON TRUE").
		OrderBy(orderClauses...).
		Limit(uint64(page.PerPage)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, errors.Wrap(err, "building vcc rows query")
	}

	var joined []joinedRow
	if err = repo.exec.SelectContext(ctx, &joined, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "querying vcc rows")
	}
	rows := make([]vcc.Row, 0, len(joined))
	for _, row := range joined {
		rows = append(rows, row.row())
	}
	return rows, total, nil
}
