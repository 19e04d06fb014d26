package component

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSource is returned when neither a script nor a template is given.
	ErrNoSource = errors.New("component: no script or template source")

	// ErrInvalidOptions wraps option validation failures.
	ErrInvalidOptions = errors.New("component: invalid options")
)

// ParseError is published on the error channel for anomalies that stop part
// of a walk: unparsable scripts and components that cannot be located.
type ParseError struct {
	Message string
	// Line and Column are 1-based; 0 when unknown.
	Line   int
	Column int
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}
