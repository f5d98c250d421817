package engine

import "errors"

var ErrGuard = errors.New("guard violation")
var ErrTurn = errors.New("wrong turn")
var ErrUnsupportedCommand = errors.New("unsupported command")

// GuardError reports an operation not permitted in the current state or
// input that breaks a ceremony rule.
type GuardError struct {
	Reason string
}

func (e *GuardError) Error() string        { return e.Reason }
func (e *GuardError) Is(target error) bool { return target == ErrGuard }

// TurnError reports a caller acting out of turn.
type TurnError struct {
	Reason string
}

func (e *TurnError) Error() string        { return e.Reason }
func (e *TurnError) Is(target error) bool { return target == ErrTurn }

func guard(reason string) error     { return &GuardError{Reason: reason} }
func wrongTurn(reason string) error { return &TurnError{Reason: reason} }
