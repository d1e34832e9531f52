package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.rows))
	for _, u := range repo.db.rows {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (repo *userRepository) checkUniqueness(username, email string, excludedUsers ...user.User) error {
	excluded := make(map[int64]struct{}, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = struct{}{}
	}
	for _, usr := range repo.db.rows {
		if _, ok := excluded[usr.ID]; ok {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CheckUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.checkUniqueness(username, email, excludedUsers...)
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.checkUniqueness(usr.Username, usr.Email); err != nil {
		return user.User{}, err
	}
	repo.db.seq++
	usr.ID = repo.db.seq
	repo.db.rows[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != 0 {
		if usr, ok := repo.db.rows[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.query() {
		switch {
		case filter.Username != "" && usr.Username == filter.Username,
			filter.Email != "" && strings.EqualFold(usr.Email, filter.Email),
			filter.UsernameOrEmail != "" && (usr.Username == filter.UsernameOrEmail || strings.EqualFold(usr.Email, filter.UsernameOrEmail)):
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsersByID(_ context.Context, ids ...int64) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0, len(ids))
	for _, id := range ids {
		if usr, ok := repo.db.rows[id]; ok {
			users = append(users, *usr)
		}
	}
	return users, nil
}

func (repo *userRepository) QueryUsernames(_ context.Context, prefix string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	unames := make([]string, 0)
	for _, usr := range repo.db.rows {
		if strings.HasPrefix(usr.Username, prefix) {
			unames = append(unames, usr.Username)
		}
	}
	sort.Strings(unames)
	return unames, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	if err := repo.checkUniqueness(usr.Username, usr.Email, usr); err != nil {
		return user.User{}, err
	}
	repo.db.rows[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) CreateRelation(_ context.Context, rel user.Relation) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[rel.ParentID]; !ok {
		return user.ErrNotFound
	}
	if _, ok := repo.db.rows[rel.StudentID]; !ok {
		return user.ErrNotFound
	}
	for _, r := range repo.db.relations {
		if r.ParentID == rel.ParentID && r.StudentID == rel.StudentID && r.Role == rel.Role {
			return user.ErrRelationExists
		}
	}
	repo.db.relations = append(repo.db.relations, rel)
	return nil
}

func (repo *userRepository) QueryStudents(_ context.Context, parentID int64) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ids := make([]int64, 0)
	for _, r := range repo.db.relations {
		if r.ParentID == parentID {
			ids = append(ids, r.StudentID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	students := make([]user.User, 0, len(ids))
	for _, id := range ids {
		if usr, ok := repo.db.rows[id]; ok {
			students = append(students, *usr)
		}
	}
	return students, nil
}
