package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/agreement"
	"github.com/Junosprite007/mod-equipmentcheckout/core/course"
	"github.com/Junosprite007/mod-equipmentcheckout/core/partnership"
	"github.com/Junosprite007/mod-equipmentcheckout/core/profile"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
	"github.com/Junosprite007/mod-equipmentcheckout/core/vcc"
	inmemdb "github.com/Junosprite007/mod-equipmentcheckout/storage/database/inmem"
	sqlxrepos "github.com/Junosprite007/mod-equipmentcheckout/storage/database/sqlx"
)

// EngineMemory keeps every record in memory; nothing survives a restart.
const EngineMemory = "memory"

// Repositories groups the stores of every domain.
type Repositories struct {
	Users        user.Repository
	Courses      course.Repository
	Profiles     profile.Repository
	Partnerships partnership.Repository
	Agreements   agreement.Repository
	VCC          vcc.Repository

	db *sqlx.DB // nil in memory
}

// DB returns the underlying database, nil when the repositories live in memory.
func (r Repositories) DB() *sqlx.DB {
	return r.db
}

func (r Repositories) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// NewMemoryRepositories returns empty in-memory repositories.
func NewMemoryRepositories() Repositories {
	db := inmemdb.NewDB()
	return Repositories{
		Users:        inmemdb.NewUserRepository(db),
		Courses:      inmemdb.NewCourseRepository(db),
		Profiles:     inmemdb.NewProfileRepository(db),
		Partnerships: inmemdb.NewPartnershipRepository(db),
		Agreements:   inmemdb.NewAgreementRepository(db),
		VCC:          inmemdb.NewVCCRepository(db),
	}
}

// NewSQLRepositories returns the repositories backed by `db`.
func NewSQLRepositories(db *sqlx.DB) Repositories {
	return Repositories{
		Users:        sqlxrepos.NewUserRepository(db),
		Courses:      sqlxrepos.NewCourseRepository(db),
		Profiles:     sqlxrepos.NewProfileRepository(db),
		Partnerships: sqlxrepos.NewPartnershipRepository(db),
		Agreements:   sqlxrepos.NewAgreementRepository(db),
		VCC:          sqlxrepos.NewVCCRepository(db),
		db:           db,
	}
}

// Setup returns the repositories of the configured engine. For Postgres, it creates the
// database when missing and applies the pending migrations.
func Setup(conf *core.Config) (Repositories, error) {
	if conf.Database.Engine == EngineMemory {
		return NewMemoryRepositories(), nil
	}

	if err := CreateIfNotExist(conf); err != nil {
		return Repositories{}, err
	}
	db, err := Open(conf)
	if err != nil {
		return Repositories{}, err
	}
	if err = Migrate(db.DB); err != nil {
		_ = db.Close()
		return Repositories{}, errors.Wrap(err, "migrating")
	}
	return NewSQLRepositories(db), nil
}
