package dataprocessing

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"regpulse/internal/errors"
	"regpulse/pkg/contracts/domain"
)

var (
	filterValidator     *validator.Validate
	filterValidatorOnce sync.Once
)

func getFilterValidator() *validator.Validate {
	filterValidatorOnce.Do(func() {
		filterValidator = validator.New()
		filterValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return filterValidator
}

// ValidateFilter checks a filter's year range and view
func ValidateFilter(f domain.Filter) error {
	err := getFilterValidator().Struct(f)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewAppValidationError(err.Error())
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return errors.NewAppValidationError("invalid filter: " + strings.Join(msgs, "; "))
}

// ApplyFilter returns the records the filter selects, as a new slice
func ApplyFilter(records []domain.BucketedRecord, f domain.Filter) ([]domain.BucketedRecord, error) {
	if err := ValidateFilter(f); err != nil {
		return nil, err
	}
	out := make([]domain.BucketedRecord, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// DimensionOptions lists the sorted distinct years, categories and
// manufacturers present in records
func DimensionOptions(records []domain.BucketedRecord) domain.DimensionOptions {
	years := make(map[int]bool)
	categories := make(map[string]bool)
	manufacturers := make(map[string]bool)
	for _, r := range records {
		years[r.Year] = true
		categories[r.Category] = true
		manufacturers[r.Manufacturer] = true
	}

	opts := domain.DimensionOptions{
		Years:         make([]int, 0, len(years)),
		Categories:    sortedKeys(categories),
		Manufacturers: sortedKeys(manufacturers),
	}
	for y := range years {
		opts.Years = append(opts.Years, y)
	}
	sort.Ints(opts.Years)
	return opts
}

// DefaultFilter selects the full year range, every category and the first
// maxManufacturers manufacturers alphabetically, viewed by category.
// maxManufacturers <= 0 selects all manufacturers.
func DefaultFilter(opts domain.DimensionOptions, maxManufacturers int) domain.Filter {
	var from, to int
	if len(opts.Years) > 0 {
		from, to = opts.Years[0], opts.Years[len(opts.Years)-1]
	}
	mfgs := opts.Manufacturers
	if maxManufacturers > 0 && len(mfgs) > maxManufacturers {
		mfgs = mfgs[:maxManufacturers]
	}
	return domain.NewFilter(from, to, opts.Categories, mfgs, domain.DimensionCategory)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
