// pkg/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by backends for an unknown boat id.
var ErrNotFound = errors.New("boat not found")

// ConfigurationError reports a caller mistake detected before any work starts.
// Nothing has been applied when it is returned.
type ConfigurationError struct {
	Op     string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: invalid configuration: %s", e.Op, e.Reason)
}

// Configf builds a ConfigurationError for op.
func Configf(op, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
