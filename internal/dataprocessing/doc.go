// Package dataprocessing implements the registration analytics pipeline:
// reading exports, normalizing them into a canonical dataset, bucketing by
// calendar period, aggregating per group and computing growth.
//
// # Data Flow
//
//	CSV/XLSX → Parser → Table → Normalizer → Dataset → AddTimeParts
//	    → ApplyFilter → Aggregate → ComputeGrowth / QuarterlyGrowth
//	    → Summarizer
//
// # Usage
//
//	dataset, err := dataprocessing.NewLoader(logger).LoadFiles(ctx, "registrations.csv")
//	if err != nil {
//	    return err
//	}
//	records := dataprocessing.AddTimeParts(dataset)
//	rows, err := dataprocessing.Aggregate(records, []domain.Dimension{domain.DimensionCategory},
//	    domain.FrequencyMonthly, domain.ReducerSum)
//	trend, err := dataprocessing.ComputeGrowth(rows, []domain.Dimension{domain.DimensionCategory},
//	    dataprocessing.DefaultGrowthOptions())
//
// # Error Handling
//
// A missing canonical column fails with *errors.SchemaError, any unparseable
// date fails the whole dataset with *errors.ValidationError, and unknown
// reducers, frequencies, dimensions or policies fail with *errors.ConfigError.
// Registrations that are not numeric are read as 0.
//
// Growth values that cannot be computed are absent (domain.Percent with
// Valid false), never errors.
//
// Every function returns new slices and leaves its input untouched, so the
// same dataset can be shared by concurrent callers.
package dataprocessing
