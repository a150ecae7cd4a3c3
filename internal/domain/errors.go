package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Callers classify failures with errors.Is against these.
var (
	ErrValidation    = errors.New("validation error")
	ErrInfeasible    = errors.New("infeasible parameters")
	ErrNotFound      = errors.New("not found")
	ErrStateConflict = errors.New("state conflict")
	ErrUpstream      = errors.New("upstream failure")
)

// Infeasibility outcomes of limit enforcement and preference selection.
var (
	ErrDistanceLimitTooSmall = &kindError{kind: ErrInfeasible, msg: "distance limit too small"}
	ErrDurationLimitTooSmall = &kindError{kind: ErrInfeasible, msg: "duration limit too small"}
	ErrNoFeasibleRoutes      = &kindError{kind: ErrInfeasible, msg: "can not compute routes for these parameters, modify parameters"}
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func Validationf(format string, args ...any) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &kindError{kind: ErrStateConflict, msg: fmt.Sprintf(format, args...)}
}

// UpstreamError reports a failed call to the mapping service, identity
// provider or store, keeping the upstream detail reachable via errors.As/Is.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}
