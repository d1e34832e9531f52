package core

import "strings"

// Address is a postal address block shared by partnerships and shadow profiles.
type Address struct {
	ExtraInput        string `json:"extrainput" db:"extrainput"`
	StreetAddress     string `json:"streetaddress" db:"streetaddress"`
	Apartment         string `json:"apartment" db:"apartment"`
	City              string `json:"city" db:"city"`
	State             string `json:"state" db:"state"`
	Country           string `json:"country" db:"country"`
	ZipCode           string `json:"zipcode" db:"zipcode"`
	ExtraInstructions string `json:"extrainstructions" db:"extrainstructions"`
}

// Clean trims every field.
func (a Address) Clean() Address {
	return Address{
		ExtraInput:        CleanString(a.ExtraInput),
		StreetAddress:     CleanString(a.StreetAddress),
		Apartment:         CleanString(a.Apartment),
		City:              CleanString(a.City),
		State:             CleanString(a.State),
		Country:           CleanString(a.Country),
		ZipCode:           CleanString(a.ZipCode),
		ExtraInstructions: CleanString(a.ExtraInstructions),
	}
}

func (a Address) IsEmpty() bool {
	return a == Address{}
}

// FillFrom sets every empty field of a from `other`.
func (a Address) FillFrom(other Address) Address {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&a.ExtraInput, other.ExtraInput)
	fill(&a.StreetAddress, other.StreetAddress)
	fill(&a.Apartment, other.Apartment)
	fill(&a.City, other.City)
	fill(&a.State, other.State)
	fill(&a.Country, other.Country)
	fill(&a.ZipCode, other.ZipCode)
	fill(&a.ExtraInstructions, other.ExtraInstructions)
	return a
}

// Format renders "street, <aptLabel> apt, city, state zip"; the apartment part is dropped when empty.
func (a Address) Format(aptLabel string) string {
	if a.StreetAddress == "" {
		return ""
	}
	parts := []string{a.StreetAddress}
	if a.Apartment != "" {
		parts = append(parts, aptLabel+" "+a.Apartment)
	}
	parts = append(parts, a.City, strings.TrimSpace(a.State+" "+a.ZipCode))
	return strings.Join(parts, ", ")
}
