package domain

import "time"

// SolutionChild links a solution plan to one constituent product plan.
// Detached marks a child whose product has left the solution; it still
// counts toward progress but is no longer synced.
type SolutionChild struct {
	ProductID string  `json:"product_id"`
	PlanID    string  `json:"plan_id"`
	Weight    float64 `json:"weight,omitempty"`
	Detached  bool    `json:"detached,omitempty"`
}

// SolutionAdoptionPlan rolls up the product plans of a solution assignment.
// It has no tasks of its own.
type SolutionAdoptionPlan struct {
	ID            string          `json:"id"`
	Assignment    Assignment      `json:"assignment"`
	Children      []SolutionChild `json:"children"`
	NeedsSync     bool            `json:"needs_sync"`
	LastSyncedAt  time.Time       `json:"last_synced_at"`
	Totals        Totals          `json:"totals"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	SchemaVersion string          `json:"schema_version"`
}

// ChildPlanIDs returns the ids of the child product plans.
func (s *SolutionAdoptionPlan) ChildPlanIDs() []string {
	ids := make([]string, 0, len(s.Children))
	for _, c := range s.Children {
		ids = append(ids, c.PlanID)
	}
	return ids
}
