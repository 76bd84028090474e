// Package parties is the directory of insured parties that documents are
// attached to. A party is identified by its normalized tax id; one sentinel
// placeholder row absorbs documents whose owner could not be determined.
package parties

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Kind distinguishes individuals (CPF) from organizations (CNPJ).
type Kind string

const (
	KindIndividual   Kind = "individual"
	KindOrganization Kind = "organization"
	KindPlaceholder  Kind = "placeholder"
)

const (
	individualDigits   = 11
	organizationDigits = 14

	// PlaceholderName is the display name of the sentinel party.
	PlaceholderName = "Cliente não identificado"

	placeholderEmailDomain = "@temp.corretor.local"
)

// Party is a directory entry.
type Party struct {
	ID          uuid.UUID `json:"id"`
	Kind        Kind      `json:"kind"`
	TaxID       *string   `json:"tax_id,omitempty"`
	DisplayName string    `json:"display_name"`
	Contact
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats counts what a party owns.
type Stats struct {
	Documents int `json:"document_count"`
	Policies  int `json:"policy_count"`
}

// Owned reports whether anything is attached to the party.
func (s Stats) Owned() bool {
	return s.Documents > 0 || s.Policies > 0
}

// PartyStats is a directory entry with its ownership counts.
type PartyStats struct {
	Party
	Stats
}

// Contact holds the mergeable contact fields of a party.
// Empty strings mean "not provided".
type Contact struct {
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	Number     string `json:"address_number,omitempty"`
	Extra      string `json:"address_extra,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Empty reports whether no contact field is set.
func (c Contact) Empty() bool {
	return c == Contact{}
}

// withoutPlaceholderEmail drops generated addresses so they never overwrite
// a real email on merge.
func (c Contact) withoutPlaceholderEmail() Contact {
	if strings.HasSuffix(strings.ToLower(strings.TrimSpace(c.Email)), placeholderEmailDomain) {
		c.Email = ""
	}
	return c
}

// CreateCommand carries the fields for a new party.
// TaxID must already be normalized.
type CreateCommand struct {
	Kind        Kind    `json:"kind"`
	TaxID       string  `json:"tax_id"`
	DisplayName string  `json:"display_name"`
	Contact     Contact `json:"contact"`
}

func (c CreateCommand) validate() error {
	if strings.TrimSpace(c.DisplayName) == "" {
		return ErrInvalidName
	}
	return nil
}

// NormalizeTaxID strips every non-digit character.
func NormalizeTaxID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// KindForTaxID maps a normalized tax id to its party kind by length.
func KindForTaxID(normalized string) (Kind, bool) {
	switch len(normalized) {
	case individualDigits:
		return KindIndividual, true
	case organizationDigits:
		return KindOrganization, true
	default:
		return "", false
	}
}
