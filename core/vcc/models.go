package vcc

import (
	"time"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
)

// Submission is a virtual course consent submitted by a parent.
type Submission struct {
	ID                  int64     `json:"id"`
	UserID              int64     `json:"userid"`
	PartnershipID       int64     `json:"partnershipid"`
	StudentIDs          []int64   `json:"studentids"`
	PickupID            int64     `json:"pickupid"`
	PickupMethod        string    `json:"pickupmethod"`
	PickupPersonName    string    `json:"pickuppersonname"`
	PickupPersonPhone   string    `json:"pickuppersonphone"`
	PickupPersonDetails string    `json:"pickuppersondetails"`
	UserNotes           string    `json:"usernotes"`
	AdminNotes          string    `json:"adminnotes"`
	TimeCreated         time.Time `json:"timecreated"`
	TimeModified        time.Time `json:"timemodified"`
}

// Row is a submission joined with its parent account, partnership, pickup and the parent's shadow profile.
// Joined values are zero when the joined record does not exist.
type Row struct {
	Submission

	ParentFirstName string
	ParentLastName  string
	ParentEmail     string
	ParentPhone     string
	PartnershipName string
	PickupAddress   core.Address // the partnership's pickup block
	PickupStart     time.Time
	PickupEnd       time.Time
	Mailing         core.Address // the parent's mailing block
}

// Item is a row of the submissions list, formatted for display.
type Item struct {
	ID                             int64     `json:"id"`
	TimeCreated                    time.Time `json:"timecreated"`
	TimeCreatedDisplay             string    `json:"timecreated_display"`
	ParentFirstName                string    `json:"parent_firstname"`
	ParentLastName                 string    `json:"parent_lastname"`
	ParentEmail                    string    `json:"parent_email"`
	ParentPhone                    string    `json:"parent_phone2"`
	PartnershipName                string    `json:"partnership_name"`
	Students                       []string  `json:"students"`
	ParentMailingAddress           string    `json:"parent_mailing_address"`
	ParentMailingExtraInstructions string    `json:"parent_mailing_extrainstructions"`
	Pickup                         string    `json:"pickup"`
	PickupInstructions             string    `json:"pickup_extrainstructions"`
	PickupMethod                   string    `json:"pickupmethod"`
	PickupPersonName               string    `json:"pickuppersonname"`
	PickupPersonPhone              string    `json:"pickuppersonphone"`
	PickupPersonDetails            string    `json:"pickuppersondetails"`
	UserNotes                      string    `json:"usernotes"`
	AdminNotes                     string    `json:"adminnotes"`
}

type Query struct {
	Orderings  []core.DBOrdering
	Pagination core.Pagination
}

type Page struct {
	Items   []Item `json:"items"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}
