package inmemdb

import (
	"context"
	"sort"

	"github.com/Junosprite007/mod-equipmentcheckout/core/agreement"
)

type agreementRepository struct {
	db *agreementTable
}

var _ agreement.Repository = (*agreementRepository)(nil)

func NewAgreementRepository(db *DB) agreement.Repository {
	return &agreementRepository{db: db.agreement}
}

func (repo *agreementRepository) CreateAgreement(_ context.Context, a agreement.Agreement) (agreement.Agreement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	a.ID = repo.db.seq
	repo.db.rows[a.ID] = &a
	return a, nil
}

func (repo *agreementRepository) GetAgreement(_ context.Context, id int64) (agreement.Agreement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.rows[id]; ok {
		return *a, nil
	}
	return agreement.Agreement{}, agreement.ErrNotFound
}

func (repo *agreementRepository) QueryAgreements(_ context.Context, activeOnly bool) ([]agreement.Agreement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	agreements := make([]agreement.Agreement, 0, len(repo.db.rows))
	for _, a := range repo.db.rows {
		if activeOnly && !a.Active {
			continue
		}
		agreements = append(agreements, *a)
	}
	sort.Slice(agreements, func(i, j int) bool { return agreements[i].ID > agreements[j].ID })
	return agreements, nil
}

func (repo *agreementRepository) UpdateAgreement(_ context.Context, a agreement.Agreement) (agreement.Agreement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[a.ID]; !ok {
		return agreement.Agreement{}, agreement.ErrNotFound
	}
	repo.db.rows[a.ID] = &a
	return a, nil
}
