package model

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by ConfigurationError and DataError.
var (
	ErrNoProvider    = errors.New("no state provider configured")
	ErrMissingNodeID = errors.New("record has no node_id")
	ErrNodeNotFound  = errors.New("node not found")
	ErrNotActionable = errors.New("verdict is not actionable")
)

// ConfigurationError means the caller did not supply what an operation needs
// to resolve its targets. It is never retried.
type ConfigurationError struct {
	Op  string
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError builds a ConfigurationError.
func NewConfigurationError(op, msg string, err error) *ConfigurationError {
	return &ConfigurationError{Op: op, Msg: msg, Err: err}
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// DataError marks a record that cannot be turned into a vector. Only a
// missing node id produces one; other malformed fields are defaulted.
type DataError struct {
	NodeID string
	Field  string
	Err    error
}

func (e *DataError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("invalid record field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid record %s field %q: %v", e.NodeID, e.Field, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}
