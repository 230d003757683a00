package entity

import (
	"strings"
	"time"
)

// RegisteredOffice is a structured registered office address.
type RegisteredOffice struct {
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	Locality     string `json:"locality,omitempty"`
	Region       string `json:"region,omitempty"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country,omitempty"`
}

// Key returns the grouping key used for shared-address inference:
// (address line 1, postal code), case-folded and trimmed.
func (a *RegisteredOffice) Key() string {
	if a == nil {
		return ""
	}
	line1 := strings.ToLower(strings.TrimSpace(a.AddressLine1))
	postcode := strings.ToLower(strings.TrimSpace(a.PostalCode))
	if line1 == "" && postcode == "" {
		return ""
	}
	return line1 + "|" + postcode
}

// DateOfBirth carries the partial birth date the registry exposes for officers.
type DateOfBirth struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Officer is a company director or secretary as returned by the registry.
type Officer struct {
	Name        string       `json:"name"`
	Role        string       `json:"officer_role,omitempty"`
	DateOfBirth *DateOfBirth `json:"date_of_birth,omitempty"`
	AppointedOn string       `json:"appointed_on,omitempty"`
	ResignedOn  string       `json:"resigned_on,omitempty"`
}

// Key returns the grouping key used for shared-director inference:
// (name, birth month, birth year).
func (o *Officer) Key() DirectorKey {
	k := DirectorKey{Name: strings.ToLower(strings.TrimSpace(o.Name))}
	if o.DateOfBirth != nil {
		k.BirthMonth = o.DateOfBirth.Month
		k.BirthYear = o.DateOfBirth.Year
	}
	return k
}

// DirectorKey identifies a natural person across company records.
type DirectorKey struct {
	Name       string
	BirthMonth int
	BirthYear  int
}

// PSC is a person-with-significant-control record. Kind distinguishes
// corporate entities from natural persons.
type PSC struct {
	Name             string   `json:"name"`
	Kind             string   `json:"kind"`
	NotifiedOn       string   `json:"notified_on,omitempty"`
	NaturesOfControl []string `json:"natures_of_control,omitempty"`
}

// KindCorporateEntity marks a PSC that is itself a company. Only corporate
// PSCs participate in shared-PSC edge inference.
const KindCorporateEntity = "corporate-entity-person-with-significant-control"

// IsCorporate reports whether the PSC is a corporate entity. The registry
// uses several corporate kinds; all contain "corporate-entity".
func (p *PSC) IsCorporate() bool {
	return strings.Contains(p.Kind, "corporate-entity")
}

// Filing is one filing-history event.
type Filing struct {
	TransactionID string `json:"transaction_id,omitempty"`
	Type          string `json:"type"`
	Category      string `json:"category,omitempty"`
	Date          string `json:"date"`
	Description   string `json:"description,omitempty"`
}

// Profile is the company profile record. A bundle without a profile
// contributes no node to the graph.
type Profile struct {
	CompanyNumber    string            `json:"company_number" validate:"required"`
	CompanyName      string            `json:"company_name,omitempty"`
	DateOfCreation   string            `json:"date_of_creation,omitempty"`
	Type             string            `json:"type,omitempty"`
	CompanyStatus    string            `json:"company_status,omitempty"`
	SICCodes         []string          `json:"sic_codes,omitempty"`
	RegisteredOffice *RegisteredOffice `json:"registered_office_address,omitempty"`
}

// IncorporationDate parses DateOfCreation. Returns the zero time when the
// date is absent or malformed.
func (p *Profile) IncorporationDate() time.Time {
	if p == nil || p.DateOfCreation == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", p.DateOfCreation)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Bundle is the complete per-company payload assembled by the registry
// collaborator: profile plus officers, PSC and filing history. Profile may be
// nil, in which case the bundle is skipped at graph-build time.
type Bundle struct {
	Profile       *Profile  `json:"profile"`
	Officers      []Officer `json:"officers"`
	PSC           []PSC     `json:"psc"`
	FilingHistory []Filing  `json:"filing_history"`
}

// CompanyNumber returns the bundle's company number, or "" without a profile.
func (b *Bundle) CompanyNumber() string {
	if b == nil || b.Profile == nil {
		return ""
	}
	return b.Profile.CompanyNumber
}
