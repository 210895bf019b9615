package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Canonical column names of a normalized registration dataset
const (
	ColumnDate          = "date"
	ColumnCategory      = "category"
	ColumnManufacturer  = "manufacturer"
	ColumnRegistrations = "registrations"
)

// CanonicalColumns lists the canonical columns in output order
var CanonicalColumns = []string{ColumnDate, ColumnCategory, ColumnManufacturer, ColumnRegistrations}

// Record represents a single normalized registration observation
type Record struct {
	Date          time.Time `json:"date"`
	Category      string    `json:"category" validate:"required"`
	Manufacturer  string    `json:"manufacturer"`
	Registrations int64     `json:"registrations" validate:"min=0"`
}

// Value returns the record's value for a categorical dimension
func (r Record) Value(d Dimension) string {
	switch d {
	case DimensionCategory:
		return r.Category
	case DimensionManufacturer:
		return r.Manufacturer
	default:
		return ""
	}
}

// Dataset is an ordered collection of records sorted ascending by date.
// Functions receiving a Dataset never modify it.
type Dataset []Record

// Clone returns an independent copy of the dataset
func (d Dataset) Clone() Dataset {
	if d == nil {
		return nil
	}
	out := make(Dataset, len(d))
	copy(out, d)
	return out
}

// TotalRegistrations sums registrations across the dataset
func (d Dataset) TotalRegistrations() int64 {
	var total int64
	for _, r := range d {
		total += r.Registrations
	}
	return total
}

// BucketedRecord is a record with its derived calendar parts attached
type BucketedRecord struct {
	Record
	Year    int    `json:"year"`
	Quarter string `json:"quarter"` // e.g. "2024Q1"
	Month   string `json:"month"`   // e.g. "2024-03"
}

// Dimension names a categorical column that records can be grouped by
type Dimension string

const (
	DimensionCategory     Dimension = "category"
	DimensionManufacturer Dimension = "manufacturer"
)

// Valid reports whether d is a known grouping dimension
func (d Dimension) Valid() bool {
	return d == DimensionCategory || d == DimensionManufacturer
}

// ParseDimension resolves user input such as "By Manufacturer" or "oem"
func ParseDimension(s string) (Dimension, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "by ")
	switch v {
	case "category", "categories", "vehicle_category":
		return DimensionCategory, true
	case "manufacturer", "manufacturers", "oem", "make":
		return DimensionManufacturer, true
	}
	return "", false
}

// groupKeySeparator never appears in trimmed category or manufacturer values
const groupKeySeparator = "\x1f"

// GroupKey identifies one series within a multi-series table.
// Values are aligned with Dimensions.
type GroupKey struct {
	Dimensions []Dimension
	Values     []string
}

// NewGroupKey builds the group key of a record for the given dimensions
func NewGroupKey(r Record, dims []Dimension) GroupKey {
	values := make([]string, len(dims))
	for i, d := range dims {
		values[i] = r.Value(d)
	}
	ds := make([]Dimension, len(dims))
	copy(ds, dims)
	return GroupKey{Dimensions: ds, Values: values}
}

// ID returns a string usable as a map key
func (k GroupKey) ID() string {
	return strings.Join(k.Values, groupKeySeparator)
}

// Label returns a human readable form such as "2W / Hero"
func (k GroupKey) Label() string {
	if len(k.Values) == 0 {
		return "Total"
	}
	return strings.Join(k.Values, " / ")
}

// Get returns the value for dimension d, or "" if the key has no such dimension
func (k GroupKey) Get(d Dimension) string {
	for i, dim := range k.Dimensions {
		if dim == d && i < len(k.Values) {
			return k.Values[i]
		}
	}
	return ""
}

// Compare orders group keys lexicographically by their values
func (k GroupKey) Compare(o GroupKey) int {
	n := len(k.Values)
	if len(o.Values) < n {
		n = len(o.Values)
	}
	for i := 0; i < n; i++ {
		if c := strings.Compare(k.Values[i], o.Values[i]); c != 0 {
			return c
		}
	}
	return len(k.Values) - len(o.Values)
}

// MarshalJSON renders the key as {"category": "2W", ...}
func (k GroupKey) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(k.Dimensions))
	for i, d := range k.Dimensions {
		if i < len(k.Values) {
			m[string(d)] = k.Values[i]
		}
	}
	return json.Marshal(m)
}
