package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every configuration error.
var ErrInvalidConfig = errors.New("sim: invalid configuration")

// ConfigError reports a rejected configuration field.
type ConfigError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("sim: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidConfig) true.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func invalid(field string, value float64, reason string) error {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}
