package vcc

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
)

// Sortable columns
const (
	ColTimeCreated         = "timecreated"
	ColParentFirstName     = "parent_firstname"
	ColParentLastName      = "parent_lastname"
	ColParentEmail         = "parent_email"
	ColParentPhone         = "parent_phone2"
	ColPartnershipName     = "partnership_name"
	ColPickupMethod        = "pickupmethod"
	ColPickupPersonName    = "pickuppersonname"
	ColPickupPersonPhone   = "pickuppersonphone"
	ColPickupPersonDetails = "pickuppersondetails"
	ColUserNotes           = "usernotes"
	ColAdminNotes          = "adminnotes"

	// ColID breaks ties so pages are stable; it is not exposed to clients.
	ColID = "id"
)

var (
	// errors
	ErrNotFound = errors.New("vcc submission not found")

	NowFunc = time.Now // mockable

	SortableColumns = []string{
		ColTimeCreated, ColParentFirstName, ColParentLastName, ColParentEmail, ColParentPhone,
		ColPartnershipName, ColPickupMethod, ColPickupPersonName, ColPickupPersonPhone,
		ColPickupPersonDetails, ColUserNotes, ColAdminNotes,
	}

	DefaultOrdering = core.DBOrdering{Field: ColTimeCreated, Ascending: false}
)

type (
	Repository interface {
		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		GetSubmission(ctx context.Context, id int64) (Submission, error)
		// QueryRows returns one page of joined rows and the total number of submissions.
		// Orderings only hold sortable columns or ColID.
		QueryRows(ctx context.Context, orderings []core.DBOrdering, page core.Pagination) ([]Row, int, error)
		// DeleteSubmission returns ErrNotFound when no submission has this ID.
		DeleteSubmission(ctx context.Context, id int64) error
	}

	UserLookup interface {
		QueryByIDs(ctx context.Context, ids ...int64) ([]user.User, error)
	}

	Service struct {
		repo       Repository
		users      UserLookup
		translator ut.Translator
		loc        *time.Location
	}
)

func NewService(repo Repository, users UserLookup, translator ut.Translator, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, users: users, translator: translator, loc: loc}
}

// IsSortable reports whether clients may order the list by `column`.
func IsSortable(column string) bool {
	for _, col := range SortableColumns {
		if col == column {
			return true
		}
	}
	return false
}

func (svc *Service) orderings(requested []core.DBOrdering) ([]core.DBOrdering, error) {
	if len(requested) == 0 {
		requested = []core.DBOrdering{DefaultOrdering}
	}
	orderings := make([]core.DBOrdering, 0, len(requested)+1)
	seen := make(map[string]struct{}, len(requested))
	for _, ord := range requested {
		if !IsSortable(ord.Field) {
			return nil, core.NewValidationError(nil, core.FieldError{
				Field: "ordering",
				Error: core.T(svc.translator, core.MsgInvalidOrdering, ord.Field),
			})
		}
		if _, ok := seen[ord.Field]; ok {
			continue
		}
		seen[ord.Field] = struct{}{}
		orderings = append(orderings, ord)
	}
	last := orderings[len(orderings)-1]
	return append(orderings, core.DBOrdering{Field: ColID, Ascending: last.Ascending}), nil
}

// List returns one page of formatted submissions.
func (svc *Service) List(ctx context.Context, q Query) (Page, error) {
	orderings, err := svc.orderings(q.Orderings)
	if err != nil {
		return Page{}, err
	}
	pagination := q.Pagination.Normalize()

	rows, total, err := svc.repo.QueryRows(ctx, orderings, pagination)
	if err != nil {
		return Page{}, errors.Wrap(err, "querying vcc submissions")
	}

	studentIDs := make([]int64, 0)
	for _, row := range rows {
		studentIDs = append(studentIDs, row.StudentIDs...)
	}
	names := make(map[int64]string)
	if studentIDs = core.UniqueInt64s(studentIDs); len(studentIDs) > 0 {
		students, err := svc.users.QueryByIDs(ctx, studentIDs...)
		if err != nil {
			return Page{}, errors.Wrap(err, "querying students")
		}
		for _, s := range students {
			names[s.ID] = s.FullName()
		}
	}

	page := Page{Items: make([]Item, 0, len(rows)), Total: total, Page: pagination.Page, PerPage: pagination.PerPage}
	for _, row := range rows {
		students := make([]string, 0, len(row.StudentIDs))
		for _, id := range row.StudentIDs {
			if name, ok := names[id]; ok {
				students = append(students, name)
			}
		}
		page.Items = append(page.Items, formatItem(row, students, svc.loc, svc.translator))
	}
	return page, nil
}

func (svc *Service) Get(ctx context.Context, id int64) (Submission, error) {
	return svc.repo.GetSubmission(ctx, id)
}

// Create stores a submission, timestamped now unless it already carries a creation time.
func (svc *Service) Create(ctx context.Context, s Submission) (Submission, error) {
	now := NowFunc().UTC()
	s.StudentIDs = core.UniqueInt64s(s.StudentIDs)
	s.PickupMethod = core.CleanString(s.PickupMethod)
	s.PickupPersonName = core.CleanString(s.PickupPersonName)
	s.PickupPersonPhone = core.CleanString(s.PickupPersonPhone)
	if s.TimeCreated.IsZero() {
		s.TimeCreated = now
	}
	s.TimeModified = now
	created, err := svc.repo.CreateSubmission(ctx, s)
	if err != nil {
		return Submission{}, errors.Wrap(err, "creating vcc submission")
	}
	return created, nil
}

func (svc *Service) Delete(ctx context.Context, id int64) error {
	return svc.repo.DeleteSubmission(ctx, id)
}
