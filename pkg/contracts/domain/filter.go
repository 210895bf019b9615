package domain

// Filter selects the subset of a dataset the analytics operate on and the
// dimension results are grouped by. Empty category or manufacturer sets
// place no restriction. A Filter is a value: build it with NewFilter and
// never modify its slices afterwards.
type Filter struct {
	YearFrom      int       `json:"year_from,omitempty" validate:"omitempty,gte=1900,lte=9999"`
	YearTo        int       `json:"year_to,omitempty" validate:"omitempty,gte=1900,lte=9999,gtefield=YearFrom"`
	Categories    []string  `json:"categories,omitempty"`
	Manufacturers []string  `json:"manufacturers,omitempty"`
	View          Dimension `json:"view" validate:"required,oneof=category manufacturer"`
}

// NewFilter builds a filter owning copies of the given sets
func NewFilter(yearFrom, yearTo int, categories, manufacturers []string, view Dimension) Filter {
	return Filter{
		YearFrom:      yearFrom,
		YearTo:        yearTo,
		Categories:    copyStrings(categories),
		Manufacturers: copyStrings(manufacturers),
		View:          view,
	}
}

// Matches reports whether a record falls inside the filter
func (f Filter) Matches(r BucketedRecord) bool {
	if f.YearFrom != 0 && r.Year < f.YearFrom {
		return false
	}
	if f.YearTo != 0 && r.Year > f.YearTo {
		return false
	}
	if len(f.Categories) > 0 && !contains(f.Categories, r.Category) {
		return false
	}
	if len(f.Manufacturers) > 0 && !contains(f.Manufacturers, r.Manufacturer) {
		return false
	}
	return true
}

// DimensionOptions lists the distinct values a filter can select from
type DimensionOptions struct {
	Years         []int    `json:"years"`
	Categories    []string `json:"categories"`
	Manufacturers []string `json:"manufacturers"`
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
