package plan

import (
	"reflect"

	"github.com/mrz1836/adopt/internal/domain"
)

// criteriaEqual compares two criteria expressions, treating nil and an
// empty-typed criteria as the same "no criteria".
func criteriaEqual(a, b *domain.SuccessCriteria) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return a.IsEmpty() == b.IsEmpty()
	}
	return reflect.DeepEqual(a, b)
}

// cloneCriteria deep-copies c so plans never share criteria with the
// template registry.
func cloneCriteria(c *domain.SuccessCriteria) *domain.SuccessCriteria {
	return c.Clone()
}
