package model

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every InputError.
var ErrInvalidInput = errors.New("invalid input")

// InputError reports a violated hard precondition such as a negative distance.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidInput) match.
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }
