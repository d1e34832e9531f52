package partnership

import (
	"time"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
)

// Pickup statuses
const (
	PickupPending   = "pending"
	PickupConfirmed = "confirmed"
	PickupCompleted = "completed"
	PickupCancelled = "cancelled"
)

var PickupStatuses = []string{PickupPending, PickupConfirmed, PickupCompleted, PickupCancelled}

// Partnership is an organizing entity (school, program) with its liaisons, courses and address blocks.
type Partnership struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Liaisons     []int64      `json:"liaisons"`
	Courses      []int64      `json:"courses"`
	Active       bool         `json:"active"`
	Physical     core.Address `json:"physical"`
	Mailing      core.Address `json:"mailing"`
	Pickup       core.Address `json:"pickup"`
	Billing      core.Address `json:"billing"`
	TimeCreated  time.Time    `json:"timecreated"`
	TimeModified time.Time    `json:"timemodified"`
}

// Pickup is an equipment pickup window of a partnership.
type Pickup struct {
	ID            int64     `json:"id"`
	PartnershipID int64     `json:"partnershipid"`
	StartTime     time.Time `json:"starttime"`
	EndTime       time.Time `json:"endtime"`
	Status        string    `json:"status"`
	TimeCreated   time.Time `json:"timecreated"`
	TimeModified  time.Time `json:"timemodified"`
}

// NewPartnership is one repeated fieldset of the partnership creation request.
type NewPartnership struct {
	Name     string       `json:"name" validate:"required,notblank"`
	Liaisons []int64      `json:"liaisons"`
	Courses  []int64      `json:"courses"`
	Active   *bool        `json:"active"` // active unless explicitly false
	Physical core.Address `json:"physical"`
	Mailing  core.Address `json:"mailing"`
	Pickup   core.Address `json:"pickup"`
	Billing  core.Address `json:"billing"`
}

// NewPickup contains information needed to schedule a Pickup.
type NewPickup struct {
	PartnershipID int64     `json:"partnershipid" validate:"required"`
	StartTime     time.Time `json:"starttime" validate:"required"`
	EndTime       time.Time `json:"endtime" validate:"required,gtfield=StartTime"`
	Status        string    `json:"status" validate:"omitempty,oneof=pending confirmed completed cancelled"`
}

func (np *NewPartnership) clean() {
	np.Name = core.CleanString(np.Name)
	np.Liaisons = core.UniqueInt64s(np.Liaisons)
	np.Courses = core.UniqueInt64s(np.Courses)
	np.Physical = np.Physical.Clean()
	np.Mailing = np.Mailing.Clean()
	np.Pickup = np.Pickup.Clean()
	np.Billing = np.Billing.Clean()
}
