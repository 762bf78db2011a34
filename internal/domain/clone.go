package domain

import "slices"

// Clone returns a deep copy of c. An empty criteria clones to nil.
func (c *SuccessCriteria) Clone() *SuccessCriteria {
	if c.IsEmpty() {
		return nil
	}
	out := *c
	out.Threshold = clonePtr(c.Threshold)
	out.Min = clonePtr(c.Min)
	out.Max = clonePtr(c.Max)
	out.ExpectedValue = clonePtr(c.ExpectedValue)
	if c.Criteria != nil {
		out.Criteria = make([]SuccessCriteria, len(c.Criteria))
		for i := range c.Criteria {
			if cloned := c.Criteria[i].Clone(); cloned != nil {
				out.Criteria[i] = *cloned
			}
		}
	}
	return &out
}

// Clone returns a deep copy of the definition.
func (d AttributeDefinition) Clone() AttributeDefinition {
	d.Criteria = d.Criteria.Clone()
	return d
}

// Clone returns a deep copy of the template task.
func (t TaskTemplate) Clone() TaskTemplate {
	t.OutcomeIDs = slices.Clone(t.OutcomeIDs)
	t.ReleaseIDs = slices.Clone(t.ReleaseIDs)
	if t.Attributes != nil {
		attrs := make([]AttributeDefinition, len(t.Attributes))
		for i, a := range t.Attributes {
			attrs[i] = a.Clone()
		}
		t.Attributes = attrs
	}
	return t
}

// Clone returns a deep copy of the product.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	out := *p
	out.Outcomes = slices.Clone(p.Outcomes)
	out.Releases = slices.Clone(p.Releases)
	if p.Tasks != nil {
		out.Tasks = make([]TaskTemplate, len(p.Tasks))
		for i, t := range p.Tasks {
			out.Tasks[i] = t.Clone()
		}
	}
	return &out
}

// Clone returns a deep copy of the solution.
func (s *Solution) Clone() *Solution {
	if s == nil {
		return nil
	}
	out := *s
	out.Products = slices.Clone(s.Products)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
