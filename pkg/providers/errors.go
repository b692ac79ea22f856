package providers

import (
	"errors"
	"fmt"
)

// ConfigError marks failures retrying cannot fix: missing credentials, a
// vanished endpoint, a malformed URL. The orchestrator skips straight to
// the fallback policy on these.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s configuration error: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TransientError marks failures worth retrying: timeouts, rate limits,
// upstream 5xx responses, malformed payloads.
type TransientError struct {
	Source string
	Err    error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s transient error: %v", e.Source, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func IsTransientError(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
