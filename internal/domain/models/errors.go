package models

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by a pipeline run. Callers match them with errors.Is.
var (
	ErrLoadFailure         = errors.New("price load failed")
	ErrConfigInvalid       = errors.New("invalid indicator config")
	ErrInsufficientHistory = errors.New("insufficient price history")
	ErrEmptyAfterFiltering = errors.New("no rows left after filtering")
)

// InsufficientHistoryError names the shortfall between the loaded series and
// the largest requested window.
type InsufficientHistoryError struct {
	Have int
	Need int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("series returned only %d bars but the largest moving average needs %d; widen the period or shorten the window",
		e.Have, e.Need)
}

func (e *InsufficientHistoryError) Is(target error) bool {
	return target == ErrInsufficientHistory
}

// StateFor maps an error returned by the pipeline to its outcome state.
func StateFor(err error) State {
	switch {
	case err == nil:
		return StateOK
	case errors.Is(err, ErrConfigInvalid):
		return StateConfigInvalid
	case errors.Is(err, ErrInsufficientHistory):
		return StateInsufficientHistory
	case errors.Is(err, ErrEmptyAfterFiltering):
		return StateEmptyAfterFiltering
	default:
		return StateLoadFailure
	}
}
