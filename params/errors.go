package params

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingKey is returned when a key required by the selected build path
	// is absent.
	ErrMissingKey = errors.New("required parameter is missing")

	// ErrWrongType is returned when a key holds a value of the wrong type.
	ErrWrongType = errors.New("parameter has the wrong type")

	// ErrUnknownBackend is returned when memory_backend is not one of the
	// known backend kinds.
	ErrUnknownBackend = errors.New("unknown memory backend")

	// ErrNegative is returned when a count is negative.
	ErrNegative = errors.New("parameter must not be negative")
)

// A ConfigError attributes a configuration problem to one parameter key.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("parameter %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErr(key string, err error) *ConfigError {
	return &ConfigError{Key: key, Err: err}
}
