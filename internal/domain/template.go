package domain

import "github.com/mrz1836/adopt/internal/constants"

// TaskTemplate is the reusable definition of a unit of adoption work.
// Task templates are owned by a Product and are never mutated by the engine.
//
// Example JSON representation:
//
//	{
//	    "id": "tt-configure-sso",
//	    "name": "Configure SSO",
//	    "weight": 40,
//	    "sequence_number": 2,
//	    "license_level": "ADVANTAGE",
//	    "outcome_ids": ["secure-access"],
//	    "release_ids": [],
//	    "attributes": [...]
//	}
type TaskTemplate struct {
	// ID is the unique identifier of the template task.
	ID string `json:"id" yaml:"id"`

	// Name is the display name copied into customer tasks.
	Name string `json:"name" yaml:"name"`

	// Description is optional long-form guidance.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Weight is the percentage share of this task within its product (0-100).
	Weight float64 `json:"weight" yaml:"weight"`

	// SequenceNumber orders tasks within the product.
	SequenceNumber int `json:"sequence_number" yaml:"sequence_number"`

	// LicenseLevel is the minimum license tier that includes this task.
	LicenseLevel LicenseLevel `json:"license_level" yaml:"license_level"`

	// OutcomeIDs associates the task with outcomes. Empty means unconditional.
	OutcomeIDs []string `json:"outcome_ids,omitempty" yaml:"outcome_ids,omitempty"`

	// ReleaseIDs associates the task with releases. Empty means unconditional.
	ReleaseIDs []string `json:"release_ids,omitempty" yaml:"release_ids,omitempty"`

	// Attributes are the telemetry attribute definitions for this task.
	Attributes []AttributeDefinition `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// AttributeDefinition describes a measurable telemetry signal on a template task.
type AttributeDefinition struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	DataType    DataType         `json:"data_type" yaml:"data_type"`
	Criteria    *SuccessCriteria `json:"success_criteria,omitempty" yaml:"success_criteria,omitempty"`
	Required    bool             `json:"required,omitempty" yaml:"required,omitempty"`
	Order       int              `json:"order,omitempty" yaml:"order,omitempty"`
}

// HasCriteria reports whether the definition carries a non-trivial success criteria.
func (d AttributeDefinition) HasCriteria() bool {
	return !d.Criteria.IsEmpty()
}

// Outcome is a business result a customer can be entitled to.
type Outcome struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Release is a product release a customer can be entitled to.
type Release struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Product owns the ordered template tasks and the outcome and release catalogs
// entitlements are selected from.
type Product struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Outcomes    []Outcome      `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
	Releases    []Release      `json:"releases,omitempty" yaml:"releases,omitempty"`
	Tasks       []TaskTemplate `json:"tasks" yaml:"tasks"`
}

// TotalWeight returns the sum of all template task weights.
func (p *Product) TotalWeight() float64 {
	var total float64
	for _, t := range p.Tasks {
		total += t.Weight
	}
	return total
}

// SolutionProduct references a constituent product of a solution.
// A zero Weight means the product is unweighted.
type SolutionProduct struct {
	ProductID string  `json:"product_id" yaml:"product_id"`
	Weight    float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Solution bundles several products into one offering.
type Solution struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Products    []SolutionProduct `json:"products" yaml:"products"`
}

// ProductIDs returns the ids of the solution's products in declaration order.
func (s *Solution) ProductIDs() []string {
	ids := make([]string, 0, len(s.Products))
	for _, p := range s.Products {
		ids = append(ids, p.ProductID)
	}
	return ids
}

// Kind returns the source kind of the template.
func (p *Product) Kind() SourceKind { return constants.SourceKindProduct }

// Kind returns the source kind of the template.
func (s *Solution) Kind() SourceKind { return constants.SourceKindSolution }
