package inmemdb

import (
	"context"
	"sort"

	"github.com/Junosprite007/mod-equipmentcheckout/core/profile"
)

type profileRepository struct {
	db *profileTable
}

var _ profile.Repository = (*profileRepository)(nil)

func NewProfileRepository(db *DB) profile.Repository {
	return &profileRepository{db: db.profile}
}

func (repo *profileRepository) CreateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	p.ID = repo.db.seq
	repo.db.rows[p.ID] = &p
	return p, nil
}

func (repo *profileRepository) UpdateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[p.ID]; !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	repo.db.rows[p.ID] = &p
	return p, nil
}

func (repo *profileRepository) QueryProfiles(_ context.Context, userID int64) ([]profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profiles := make([]profile.Profile, 0)
	for _, p := range repo.db.rows {
		if p.UserID == userID {
			profiles = append(profiles, *p)
		}
	}
	sort.Slice(profiles, func(i, j int) bool {
		if !profiles[i].TimeCreated.Equal(profiles[j].TimeCreated) {
			return profiles[i].TimeCreated.Before(profiles[j].TimeCreated)
		}
		return profiles[i].ID < profiles[j].ID
	})
	return profiles, nil
}

func (repo *profileRepository) QueryDuplicateUserIDs(_ context.Context) ([]int64, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[int64]int)
	for _, p := range repo.db.rows {
		counts[p.UserID]++
	}
	ids := make([]int64, 0)
	for id, n := range counts {
		if n > 1 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (repo *profileRepository) DeleteProfiles(_ context.Context, ids ...int64) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.rows, id)
	}
	return nil
}
