package profile

import (
	"time"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
)

// Profile is the plugin-local record shadowing a user account.
type Profile struct {
	ID                   int64        `json:"id"`
	UserID               int64        `json:"userid"`
	PartnershipID        int64        `json:"partnershipid"`
	StudentIDs           []int64      `json:"studentids"`
	VCCSubmissionIDs     []int64      `json:"vccsubmissionids"`
	PhoneVerificationIDs []int64      `json:"phoneverificationids"`
	Phone                string       `json:"phone"`
	PhoneVerified        *bool        `json:"phone_verified"`
	Mailing              core.Address `json:"mailing"`
	Billing              core.Address `json:"billing"`
	BillingSameAsMailing bool         `json:"billing_sameasmailing"`
	TimeCreated          time.Time    `json:"timecreated"`
	TimeModified         time.Time    `json:"timemodified"`
}

// NewProfile returns a profile with empty address placeholders and empty ID lists.
func NewProfile(userID, partnershipID int64, now time.Time) Profile {
	return Profile{
		UserID:               userID,
		PartnershipID:        partnershipID,
		StudentIDs:           []int64{},
		VCCSubmissionIDs:     []int64{},
		PhoneVerificationIDs: []int64{},
		TimeCreated:          now,
		TimeModified:         now,
	}
}
