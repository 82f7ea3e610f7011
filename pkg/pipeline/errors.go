package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyHistory         = errors.New("empty history")
	ErrClassificationFailed = errors.New("classification failed")
	ErrResponseFailed       = errors.New("response failed")
)

// StageError reports a halted turn. Stage is the last stage the turn reached
// before the failing component ran; Kind is one of the package sentinels.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is.
func (e *StageError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindFromError maps an error to a stable identifier for logs.
func KindFromError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyHistory):
		return "empty_history"
	case errors.Is(err, ErrClassificationFailed):
		return "classification_failed"
	case errors.Is(err, ErrResponseFailed):
		return "response_failed"
	default:
		return "internal"
	}
}
