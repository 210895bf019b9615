package dataprocessing

import (
	"regpulse/internal/errors"
	"regpulse/pkg/contracts/domain"
)

// GrowthOptions configures growth computation
type GrowthOptions struct {
	// MissingQoQ decides how a quarter without a previous quarter renders.
	// A zero previous quarter total is always absent.
	MissingQoQ domain.MissingPolicy
}

// DefaultGrowthOptions leaves missing QoQ values absent
func DefaultGrowthOptions() GrowthOptions {
	return GrowthOptions{MissingQoQ: domain.MissingAbsent}
}

// Validate rejects unknown policies
func (o GrowthOptions) Validate() error {
	switch o.MissingQoQ {
	case domain.MissingAbsent, domain.MissingZero, "":
		return nil
	}
	return errors.NewUnsupportedOptionError("qoq missing policy", string(o.MissingQoQ))
}

// ParseMissingPolicy resolves user input; the empty string means absent
func ParseMissingPolicy(s string) (domain.MissingPolicy, error) {
	switch domain.MissingPolicy(s) {
	case "", domain.MissingAbsent:
		return domain.MissingAbsent, nil
	case domain.MissingZero:
		return domain.MissingZero, nil
	}
	return "", errors.NewUnsupportedOptionError("qoq missing policy", s)
}

// ParseReducer resolves a reducer name
func ParseReducer(s string) (domain.Reducer, error) {
	switch domain.Reducer(s) {
	case "", domain.ReducerSum:
		return domain.ReducerSum, nil
	case domain.ReducerMean:
		return domain.ReducerMean, nil
	}
	return "", errors.NewUnsupportedOptionError("reducer", s)
}
