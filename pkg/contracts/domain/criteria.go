package domain

import "time"

// AllValues is the implicit selection that leaves a dimension unconstrained.
const AllValues = "All"

// DateRange is a closed interval compared on the date part only.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NumericRange is a closed interval over Commissionable Premium.
type NumericRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FilterCriteria is an immutable snapshot of the user's filter controls.
// Selections maps a dimension column to its selected values; a missing
// entry or a slice containing AllValues is unconstrained. A present but
// empty slice matches no rows.
// Nil ranges are unconstrained.
type FilterCriteria struct {
	Selections map[string][]string `json:"selections,omitempty"`
	IssuedDate *DateRange          `json:"issued_date,omitempty"`
	Premium    *NumericRange       `json:"premium,omitempty"`
}

// Selection returns the effective value set for a dimension, or nil when the
// dimension is unconstrained. A cleared selection yields an empty set.
func (c FilterCriteria) Selection(column string) map[string]struct{} {
	values, ok := c.Selections[column]
	if !ok {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == AllValues {
			return nil
		}
		set[v] = struct{}{}
	}
	return set
}

// FilterOptions seeds the filter controls from an unfiltered table.
type FilterOptions struct {
	Dimensions map[string][]string `json:"dimensions"`
	IssuedDate *DateRange          `json:"issued_date,omitempty"`
	Premium    *NumericRange       `json:"premium,omitempty"`
}
