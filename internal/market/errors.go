package market

import "errors"

// Error taxonomy for the roll and splice engines. Failures are raised
// immediately to the caller and never downgraded: silently substituting
// a value would corrupt a financial price series.
var (
	// ErrParse indicates a malformed target-maturity symbol
	ErrParse = errors.New("unrecognized constant-maturity symbol")

	// ErrNoBracketingContracts indicates no pre/next pair exists for a
	// requested day under the strict selection policy
	ErrNoBracketingContracts = errors.New("no bracketing contracts for date")

	// ErrMissingData indicates a referenced instrument has no price or
	// expiration at a timestamp the splice requires
	ErrMissingData = errors.New("missing observation for instrument")

	// ErrInvalidSchedule indicates a caller-supplied schedule violates
	// ordering or contiguity invariants
	ErrInvalidSchedule = errors.New("invalid roll schedule")
)
