package agreement

import "time"

// Agreement types
const (
	TypeInformational = "informational"
	TypeOptInOut      = "optinout"
)

// Agreement is one version of a consent agreement. Editing an agreement creates a new version
// pointing at the previous one.
type Agreement struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	Type              string    `json:"agreementtype"`
	Active            bool      `json:"active"`
	RequireSignature  bool      `json:"requiresignature"`
	StartDate         time.Time `json:"startdate"`
	EndDate           time.Time `json:"enddate"`
	Version           int       `json:"version"`
	PreviousVersionID int64     `json:"previousversionid"`
	TimeCreated       time.Time `json:"timecreated"`
	TimeModified      time.Time `json:"timemodified"`
}

// IsCurrent reports whether the agreement is active and `t` falls within its dates.
func (a Agreement) IsCurrent(t time.Time) bool {
	return a.Active && !t.Before(a.StartDate) && t.Before(a.EndDate)
}

// EditAgreement holds the fields of a new agreement or of a new version of one.
type EditAgreement struct {
	Title            string    `json:"title" validate:"required,notblank"`
	Content          string    `json:"content" validate:"required,notblank"`
	Type             string    `json:"agreementtype" validate:"required,oneof=informational optinout"`
	Active           bool      `json:"active"`
	RequireSignature bool      `json:"requiresignature"`
	StartDate        time.Time `json:"startdate" validate:"required"`
	EndDate          time.Time `json:"enddate" validate:"required"`
}
