package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/vcc"
)

type vccRepository struct {
	db *DB
}

var _ vcc.Repository = (*vccRepository)(nil)

func NewVCCRepository(db *DB) vcc.Repository {
	return &vccRepository{db: db}
}

func (repo *vccRepository) CreateSubmission(_ context.Context, s vcc.Submission) (vcc.Submission, error) {
	tbl := repo.db.vcc
	tbl.Lock()
	defer tbl.Unlock()

	tbl.seq++
	s.ID = tbl.seq
	if s.StudentIDs == nil {
		s.StudentIDs = []int64{}
	}
	tbl.rows[s.ID] = &s
	return s, nil
}

func (repo *vccRepository) GetSubmission(_ context.Context, id int64) (vcc.Submission, error) {
	tbl := repo.db.vcc
	tbl.RLock()
	defer tbl.RUnlock()

	if s, ok := tbl.rows[id]; ok {
		return *s, nil
	}
	return vcc.Submission{}, vcc.ErrNotFound
}

func (repo *vccRepository) DeleteSubmission(_ context.Context, id int64) error {
	tbl := repo.db.vcc
	tbl.Lock()
	defer tbl.Unlock()

	if _, ok := tbl.rows[id]; !ok {
		return vcc.ErrNotFound
	}
	delete(tbl.rows, id)
	return nil
}

// join builds the rows the way the SQL repository's LEFT JOINs do.
// Tables are locked in a fixed order: vcc, user, partnership, profile.
func (repo *vccRepository) join() []vcc.Row {
	repo.db.vcc.RLock()
	defer repo.db.vcc.RUnlock()
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()
	repo.db.partnership.RLock()
	defer repo.db.partnership.RUnlock()
	repo.db.profile.RLock()
	defer repo.db.profile.RUnlock()

	rows := make([]vcc.Row, 0, len(repo.db.vcc.rows))
	for _, s := range repo.db.vcc.rows {
		row := vcc.Row{Submission: *s}
		if usr, ok := repo.db.user.rows[s.UserID]; ok {
			row.ParentFirstName = usr.FirstName
			row.ParentLastName = usr.LastName
			row.ParentEmail = usr.Email
			row.ParentPhone = usr.Phone
		}
		if p, ok := repo.db.partnership.rows[s.PartnershipID]; ok {
			row.PartnershipName = p.Name
			row.PickupAddress = p.Pickup
		}
		if pu, ok := repo.db.partnership.pickups[s.PickupID]; ok {
			row.PickupStart = pu.StartTime
			row.PickupEnd = pu.EndTime
		}
		// oldest shadow profile of the parent
		var oldest *core.Address
		var oldestID int64
		for _, prf := range repo.db.profile.rows {
			if prf.UserID != s.UserID {
				continue
			}
			if oldest == nil || prf.ID < oldestID {
				mailing := prf.Mailing
				oldest, oldestID = &mailing, prf.ID
			}
		}
		if oldest != nil {
			row.Mailing = *oldest
		}
		rows = append(rows, row)
	}
	return rows
}

func compareRows(a, b vcc.Row, field string) (int, error) {
	str := func(x, y string) int { return strings.Compare(strings.ToLower(x), strings.ToLower(y)) }
	switch field {
	case vcc.ColID:
		switch {
		case a.ID < b.ID:
			return -1, nil
		case a.ID > b.ID:
			return 1, nil
		}
		return 0, nil
	case vcc.ColTimeCreated:
		switch {
		case a.TimeCreated.Before(b.TimeCreated):
			return -1, nil
		case a.TimeCreated.After(b.TimeCreated):
			return 1, nil
		}
		return 0, nil
	case vcc.ColParentFirstName:
		return str(a.ParentFirstName, b.ParentFirstName), nil
	case vcc.ColParentLastName:
		return str(a.ParentLastName, b.ParentLastName), nil
	case vcc.ColParentEmail:
		return str(a.ParentEmail, b.ParentEmail), nil
	case vcc.ColParentPhone:
		return str(a.ParentPhone, b.ParentPhone), nil
	case vcc.ColPartnershipName:
		return str(a.PartnershipName, b.PartnershipName), nil
	case vcc.ColPickupMethod:
		return str(a.PickupMethod, b.PickupMethod), nil
	case vcc.ColPickupPersonName:
		return str(a.PickupPersonName, b.PickupPersonName), nil
	case vcc.ColPickupPersonPhone:
		return str(a.PickupPersonPhone, b.PickupPersonPhone), nil
	case vcc.ColPickupPersonDetails:
		return str(a.PickupPersonDetails, b.PickupPersonDetails), nil
	case vcc.ColUserNotes:
		return str(a.UserNotes, b.UserNotes), nil
	case vcc.ColAdminNotes:
		return str(a.AdminNotes, b.AdminNotes), nil
	}
	return 0, errors.Errorf("cannot order vcc submissions by %q", field)
}

func (repo *vccRepository) QueryRows(_ context.Context, orderings []core.DBOrdering, page core.Pagination) ([]vcc.Row, int, error) {
	for _, ord := range orderings {
		if _, err := compareRows(vcc.Row{}, vcc.Row{}, ord.Field); err != nil {
			return nil, 0, err
		}
	}

	rows := repo.join()
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range orderings {
			c, _ := compareRows(rows[i], rows[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})

	total := len(rows)
	start, end := page.Bounds(total)
	return rows[start:end], total, nil
}
