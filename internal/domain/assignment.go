package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// selectionAll is the JSON form of the wildcard selection.
const selectionAll = "ALL"

// Selection is an entitlement selection: either the wildcard "all" or an
// explicit set of ids. The zero value is an explicit, empty selection.
//
// JSON form is the string "ALL" or an array of ids.
type Selection struct {
	all bool
	ids []string
}

// All returns the wildcard selection.
func All() Selection {
	return Selection{all: true}
}

// Only returns an explicit selection of the given ids. Duplicates and blank
// ids are dropped.
func Only(ids ...string) Selection {
	set := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(set, id) {
			continue
		}
		set = append(set, id)
	}
	slices.Sort(set)
	return Selection{ids: set}
}

// ParseSelection parses a command-line selection: "ALL" (any case) or a
// comma-separated list of ids.
func ParseSelection(s string) Selection {
	if strings.EqualFold(strings.TrimSpace(s), selectionAll) {
		return All()
	}
	return Only(strings.Split(s, ",")...)
}

// IsAll reports whether the selection is the wildcard.
func (s Selection) IsAll() bool {
	return s.all
}

// IDs returns a copy of the explicit ids. It is nil for the wildcard.
func (s Selection) IDs() []string {
	if s.all {
		return nil
	}
	return slices.Clone(s.ids)
}

// Intersects reports whether the selection matches any of ids.
// The wildcard matches everything.
func (s Selection) Intersects(ids []string) bool {
	if s.all {
		return true
	}
	for _, id := range ids {
		if slices.Contains(s.ids, id) {
			return true
		}
	}
	return false
}

// Equal reports whether two selections are identical.
func (s Selection) Equal(other Selection) bool {
	if s.all || other.all {
		return s.all == other.all
	}
	return slices.Equal(s.ids, other.ids)
}

// String implements fmt.Stringer.
func (s Selection) String() string {
	if s.all {
		return selectionAll
	}
	return strings.Join(s.ids, ",")
}

// MarshalJSON implements json.Marshaler.
func (s Selection) MarshalJSON() ([]byte, error) {
	if s.all {
		return json.Marshal(selectionAll)
	}
	if s.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.ids)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Selection) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if !strings.EqualFold(str, selectionAll) {
			return fmt.Errorf("invalid selection %q: expected %q or an array of ids", str, selectionAll) //nolint:err113 // decode error carries the input
		}
		*s = All()
		return nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("invalid selection: %w", err)
	}
	*s = Only(ids...)
	return nil
}

// Entitlement is the (license level, outcome selection, release selection)
// triple that determines which template tasks apply to a customer.
type Entitlement struct {
	LicenseLevel LicenseLevel `json:"license_level"`
	Outcomes     Selection    `json:"outcomes"`
	Releases     Selection    `json:"releases"`
}

// Equal reports whether two entitlements select the same tasks.
func (e Entitlement) Equal(other Entitlement) bool {
	return e.LicenseLevel == other.LicenseLevel &&
		e.Outcomes.Equal(other.Outcomes) &&
		e.Releases.Equal(other.Releases)
}

// Assignment links a customer to a product or solution at a chosen entitlement.
type Assignment struct {
	// ID is the unique identifier of the assignment.
	ID string `json:"id"`

	// CustomerID identifies the customer.
	CustomerID string `json:"customer_id"`

	// SourceKind is PRODUCT or SOLUTION.
	SourceKind SourceKind `json:"source_kind"`

	// SourceID is the product or solution id.
	SourceID string `json:"source_id"`

	Entitlement

	// CreatedAt is when the assignment was made.
	CreatedAt time.Time `json:"created_at"`
}
