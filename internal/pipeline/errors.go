package pipeline

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a missing or invalid setting. It stops a run
// before anything is sent.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// ValidationError reports request input that cannot be sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsRejected reports whether err stopped a run before dispatch, i.e. it is a
// ConfigurationError or a ValidationError.
func IsRejected(err error) bool {
	var ce *ConfigurationError
	var ve *ValidationError
	return errors.As(err, &ce) || errors.As(err, &ve)
}
