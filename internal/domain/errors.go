package domain

import "errors"

var (
	// ErrSchemaMismatch means the assembled columns do not match what the
	// model was trained on.
	ErrSchemaMismatch = errors.New("feature schema mismatch")

	// ErrModelLoad means the model artifact is missing, unreadable, or corrupt.
	ErrModelLoad = errors.New("model load failed")

	// ErrAdvancedModeDisabled is returned by manual location edits while
	// advanced mode is off.
	ErrAdvancedModeDisabled = errors.New("advanced location mode is disabled")

	// ErrUnknownState is returned for a state outside [BrazilianStates].
	ErrUnknownState = errors.New("unknown state code")

	// ErrUnknownCity is returned for a city not in a loaded catalog.
	ErrUnknownCity = errors.New("unknown city")
)
