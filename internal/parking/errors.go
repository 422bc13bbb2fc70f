package parking

import (
	"errors"
	"fmt"
)

// Error categories. Callers above the controller only ever see message strings,
// but everything between the state machine and the controller boundary matches
// on these with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrPrecondition = errors.New("precondition failed")
)

// Specific conditions wrap their category so both the exact condition and the
// broad class can be matched.
var (
	ErrSpotExists      = fmt.Errorf("%w: spot already exists at this position", ErrConflict)
	ErrSpotMissing     = fmt.Errorf("%w: this spot does not exist", ErrNotFound)
	ErrSpotOccupied    = fmt.Errorf("%w: this spot is already occupied", ErrPrecondition)
	ErrPlateMismatch   = fmt.Errorf("%w: this spot is unoccupied or the registration plates don't match", ErrPrecondition)
	ErrBookingMismatch = fmt.Errorf("%w: this spot is booked for another customer", ErrPrecondition)
	ErrPremiumRequired = fmt.Errorf("%w: booking requires a premium subscription", ErrPrecondition)
	ErrNotBookable     = fmt.Errorf("%w: only a free spot can be booked", ErrPrecondition)
)
