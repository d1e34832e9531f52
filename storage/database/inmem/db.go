package inmemdb

import (
	"sync"

	"github.com/Junosprite007/mod-equipmentcheckout/core/agreement"
	"github.com/Junosprite007/mod-equipmentcheckout/core/course"
	"github.com/Junosprite007/mod-equipmentcheckout/core/partnership"
	"github.com/Junosprite007/mod-equipmentcheckout/core/profile"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
	"github.com/Junosprite007/mod-equipmentcheckout/core/vcc"
)

type (
	userTable struct {
		sync.RWMutex
		seq       int64
		rows      map[int64]*user.User
		relations []user.Relation
	}

	courseTable struct {
		sync.RWMutex
		seq         int64
		rows        map[int64]*course.Course
		enrollments []course.Enrollment
	}

	profileTable struct {
		sync.RWMutex
		seq  int64
		rows map[int64]*profile.Profile
	}

	partnershipTable struct {
		sync.RWMutex
		seq     int64
		rows    map[int64]*partnership.Partnership
		pickSeq int64
		pickups map[int64]*partnership.Pickup
	}

	agreementTable struct {
		sync.RWMutex
		seq  int64
		rows map[int64]*agreement.Agreement
	}

	vccTable struct {
		sync.RWMutex
		seq  int64
		rows map[int64]*vcc.Submission
	}

	// DB is a process-local store used by tests and debug runs.
	DB struct {
		user        *userTable
		course      *courseTable
		profile     *profileTable
		partnership *partnershipTable
		agreement   *agreementTable
		vcc         *vccTable
	}
)

func NewDB() *DB {
	return &DB{
		user:        &userTable{rows: make(map[int64]*user.User)},
		course:      &courseTable{rows: make(map[int64]*course.Course)},
		profile:     &profileTable{rows: make(map[int64]*profile.Profile)},
		partnership: &partnershipTable{rows: make(map[int64]*partnership.Partnership), pickups: make(map[int64]*partnership.Pickup)},
		agreement:   &agreementTable{rows: make(map[int64]*agreement.Agreement)},
		vcc:         &vccTable{rows: make(map[int64]*vcc.Submission)},
	}
}
