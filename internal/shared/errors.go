package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Library errors
	ErrLibraryNotLoaded = fmt.Errorf("library not loaded")
	ErrEmptyLibrary     = fmt.Errorf("library contains no tracks")
	ErrUnknownStyle     = fmt.Errorf("unknown style")

	// Catalog errors
	ErrCatalogMismatch = fmt.Errorf("reference catalog shares no identity with library")

	// Oracle errors
	ErrOracleUnavailable = fmt.Errorf("oracle unavailable")
	ErrOracleContract    = fmt.Errorf("oracle response violates contract")
	ErrTimeout           = fmt.Errorf("operation timed out")

	// Planning errors
	ErrInsufficientCandidates = fmt.Errorf("insufficient candidates")
	ErrBudgetExhausted        = fmt.Errorf("time budget exhausted")
	ErrPlanNotFound           = fmt.Errorf("plan not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
