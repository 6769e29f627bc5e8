package dataset

import (
	"errors"
	"fmt"
)

// ErrUnknownDataType is returned when no registered rule can classify the
// value handed to New.
var ErrUnknownDataType = errors.New("cannot determine dataset type")

// ConfigError reports a missing or invalid argument detected before any I/O.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// AlreadyExistsError is returned by upload with IfExistsFail when the target
// table is already present.
type AlreadyExistsError struct {
	Table  string
	Schema string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("table %q with schema %q already exists; choose a different table name or use if-exists=replace to overwrite it", e.Table, e.Schema)
}

// KindMismatchError is returned when an operation is not meaningful for the
// dataset's current kind, e.g. deleting a local dataframe or appending to a
// query.
type KindMismatchError struct {
	Kind Kind
	Op   string
	Hint string
}

func (e *KindMismatchError) Error() string {
	msg := fmt.Sprintf("cannot %s a %s dataset", e.Op, e.Kind)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}
