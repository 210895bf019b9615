package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for the analysis error taxonomy. Typed errors below match them
// through errors.Is.
var (
	ErrSchema     = errors.New("schema error")
	ErrValidation = errors.New("validation error")
	ErrConfig     = errors.New("config error")
)

// SchemaError reports canonical columns that could not be found after
// column-name mapping
type SchemaError struct {
	Missing []string
	Found   []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: [%s]; found columns: [%s]",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

// Is matches ErrSchema
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// maxInvalidSamples caps how many offending rows a ValidationError keeps
const maxInvalidSamples = 20

// InvalidValue is one rejected cell
type InvalidValue struct {
	Row   int    `json:"row"` // 1-based data row, header excluded
	Value string `json:"value"`
}

// ValidationError reports values that made the whole dataset unusable.
// Count is the total number of offending rows; Samples holds at most the
// first twenty of them.
type ValidationError struct {
	Field   string
	Count   int
	Samples []InvalidValue
}

// NewDatasetValidationError creates an empty validation error for field
func NewDatasetValidationError(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// Add records an offending row
func (e *ValidationError) Add(row int, value string) {
	e.Count++
	if len(e.Samples) < maxInvalidSamples {
		e.Samples = append(e.Samples, InvalidValue{Row: row, Value: value})
	}
}

// HasErrors reports whether any row was recorded
func (e *ValidationError) HasErrors() bool {
	return e.Count > 0
}

func (e *ValidationError) Error() string {
	if len(e.Samples) == 0 {
		return fmt.Sprintf("invalid %s values", e.Field)
	}
	first := e.Samples[0]
	return fmt.Sprintf("%d %s value(s) could not be parsed (first at row %d: %q); ensure YYYY-MM-DD or similar format",
		e.Count, e.Field, first.Row, first.Value)
}

// Is matches ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConfigError reports an unsupported option requested by the caller
type ConfigError struct {
	Option string
	Value  string
}

// NewUnsupportedOptionError creates a ConfigError for option=value
func NewUnsupportedOptionError(option, value string) *ConfigError {
	return &ConfigError{Option: option, Value: value}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("unsupported %s: %q", e.Option, e.Value)
}

// Is matches ErrConfig
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
