package vcc

import (
	"regexp"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
)

const (
	dateLayout      = "2 January 2006"
	timeLayout      = "3:04 PM"
	createdAtLayout = "01/02/2006 15:04"

	separator = " — "
)

var pickupNameRegex = regexp.MustCompile(`#(.*?)#`)

// pickupName extracts the location name wrapped in '#' from the pickup instructions.
// It falls back to `city` and returns the instructions without the name token.
func pickupName(instructions, city string) (string, string) {
	m := pickupNameRegex.FindStringSubmatchIndex(instructions)
	if m == nil {
		return city, instructions
	}
	name := instructions[m[2]:m[3]]
	rest := strings.TrimSpace(instructions[:m[0]] + instructions[m[1]:])
	return name, rest
}

// formatPickup joins the location name, the date and time window, and the address with separator.
// Rows whose partnership has no pickup street get the "contact us" text.
func formatPickup(row Row, loc *time.Location, translator ut.Translator) (string, string) {
	addr := row.PickupAddress
	name, instructions := pickupName(addr.ExtraInstructions, addr.City)
	if addr.StreetAddress == "" {
		return core.T(translator, core.MsgContactUsForPickup), instructions
	}

	parts := make([]string, 0, 3)
	if name != "" {
		parts = append(parts, name)
	}
	if !row.PickupStart.IsZero() {
		start, end := row.PickupStart.In(loc), row.PickupEnd.In(loc)
		window := start.Format(dateLayout) + " " + start.Format(timeLayout)
		if !row.PickupEnd.IsZero() {
			window += " - " + end.Format(timeLayout)
		}
		parts = append(parts, window)
	}
	parts = append(parts, strings.Join([]string{
		addr.StreetAddress,
		addr.City,
		strings.TrimSpace(addr.State + " " + addr.ZipCode),
	}, ", "))
	return strings.Join(parts, separator), instructions
}

func formatItem(row Row, students []string, loc *time.Location, translator ut.Translator) Item {
	pickup, instructions := formatPickup(row, loc, translator)
	return Item{
		ID:                             row.ID,
		TimeCreated:                    row.TimeCreated,
		TimeCreatedDisplay:             row.TimeCreated.In(loc).Format(createdAtLayout),
		ParentFirstName:                row.ParentFirstName,
		ParentLastName:                 row.ParentLastName,
		ParentEmail:                    row.ParentEmail,
		ParentPhone:                    row.ParentPhone,
		PartnershipName:                row.PartnershipName,
		Students:                       students,
		ParentMailingAddress:           row.Mailing.Format(core.T(translator, core.MsgApartment)),
		ParentMailingExtraInstructions: row.Mailing.ExtraInstructions,
		Pickup:                         pickup,
		PickupInstructions:             instructions,
		PickupMethod:                   row.PickupMethod,
		PickupPersonName:               row.PickupPersonName,
		PickupPersonPhone:              row.PickupPersonPhone,
		PickupPersonDetails:            row.PickupPersonDetails,
		UserNotes:                      row.UserNotes,
		AdminNotes:                     row.AdminNotes,
	}
}
