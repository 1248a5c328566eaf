package report

import "errors"

var (
	// ErrMisalignedResults is returned when matcher results are not
	// index-aligned with the ingredient list they were computed from.
	ErrMisalignedResults = errors.New("results not aligned with ingredients")

	// ErrTooManyIngredients is returned when a list exceeds the checker limit.
	ErrTooManyIngredients = errors.New("too many ingredients")
)

// ErrUnknownCheck is returned by ParseChecks for an unrecognized check name.
var ErrUnknownCheck = errors.New("unknown check")
