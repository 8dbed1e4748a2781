package domain

// Registration is one case bound to a name.
type Registration struct {
	Index  int        `json:"index" yaml:"index"`
	Name   string     `json:"name" yaml:"name"`
	Status CaseStatus `json:"status" yaml:"status"`
}

// Plan is the outcome of selecting and naming one case table.
type Plan struct {
	// Filter describes the filter that narrowed the table (e.g. "index(2)").
	Filter string `json:"filter" yaml:"filter"`
	// Registrations holds the selected cases in original order.
	Registrations []Registration `json:"registrations" yaml:"registrations"`
	// Source is where the table came from (a fixture path), if anywhere.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	// Template is the name template the cases were formatted with.
	Template string `json:"template" yaml:"template"`
	// Total is the number of cases before filtering.
	Total int `json:"total" yaml:"total"`
}

// Count returns the number of selected cases.
func (p *Plan) Count() int {
	return len(p.Registrations)
}

// Names returns the registered names in order.
func (p *Plan) Names() []string {
	names := make([]string, len(p.Registrations))
	for i, r := range p.Registrations {
		names[i] = r.Name
	}
	return names
}

// Focused reports whether any registration is focused.
func (p *Plan) Focused() bool {
	for _, r := range p.Registrations {
		if r.Status == CaseStatusFocused {
			return true
		}
	}
	return false
}

// Inventory is a collection of plans, typically one per fixture file.
type Inventory struct {
	Plans []Plan `json:"plans" yaml:"plans"`
}

// CountCases returns the number of selected cases across all plans.
func (inv Inventory) CountCases() int {
	count := 0
	for _, p := range inv.Plans {
		count += p.Count()
	}
	return count
}
