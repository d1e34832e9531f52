package inmemdb

import (
	"context"
	"sort"

	"github.com/Junosprite007/mod-equipmentcheckout/core/partnership"
)

type partnershipRepository struct {
	db *partnershipTable
}

var _ partnership.Repository = (*partnershipRepository)(nil)

func NewPartnershipRepository(db *DB) partnership.Repository {
	return &partnershipRepository{db: db.partnership}
}

func (repo *partnershipRepository) CreatePartnership(_ context.Context, p partnership.Partnership) (partnership.Partnership, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	p.ID = repo.db.seq
	repo.db.rows[p.ID] = &p
	return p, nil
}

func (repo *partnershipRepository) GetPartnership(_ context.Context, id int64) (partnership.Partnership, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.rows[id]; ok {
		return *p, nil
	}
	return partnership.Partnership{}, partnership.ErrNotFound
}

func (repo *partnershipRepository) QueryPartnerships(_ context.Context, activeOnly bool) ([]partnership.Partnership, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	partnerships := make([]partnership.Partnership, 0, len(repo.db.rows))
	for _, p := range repo.db.rows {
		if activeOnly && !p.Active {
			continue
		}
		partnerships = append(partnerships, *p)
	}
	sort.Slice(partnerships, func(i, j int) bool {
		if partnerships[i].Name != partnerships[j].Name {
			return partnerships[i].Name < partnerships[j].Name
		}
		return partnerships[i].ID < partnerships[j].ID
	})
	return partnerships, nil
}

func (repo *partnershipRepository) DeletePartnership(_ context.Context, id int64) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return partnership.ErrNotFound
	}
	delete(repo.db.rows, id)
	for pid, p := range repo.db.pickups {
		if p.PartnershipID == id {
			delete(repo.db.pickups, pid)
		}
	}
	return nil
}

func (repo *partnershipRepository) CreatePickup(_ context.Context, p partnership.Pickup) (partnership.Pickup, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[p.PartnershipID]; !ok {
		return partnership.Pickup{}, partnership.ErrNotFound
	}
	repo.db.pickSeq++
	p.ID = repo.db.pickSeq
	repo.db.pickups[p.ID] = &p
	return p, nil
}

func (repo *partnershipRepository) GetPickup(_ context.Context, id int64) (partnership.Pickup, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.pickups[id]; ok {
		return *p, nil
	}
	return partnership.Pickup{}, partnership.ErrPickupNotFound
}

func (repo *partnershipRepository) QueryPickups(_ context.Context, partnershipID int64) ([]partnership.Pickup, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	pickups := make([]partnership.Pickup, 0)
	for _, p := range repo.db.pickups {
		if p.PartnershipID == partnershipID {
			pickups = append(pickups, *p)
		}
	}
	sort.Slice(pickups, func(i, j int) bool {
		if !pickups[i].StartTime.Equal(pickups[j].StartTime) {
			return pickups[i].StartTime.Before(pickups[j].StartTime)
		}
		return pickups[i].ID < pickups[j].ID
	})
	return pickups, nil
}
