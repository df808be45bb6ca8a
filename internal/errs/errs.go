// ABOUTME: Error taxonomy for embedding runs: configuration, data, and provenance failures.
// ABOUTME: Maps classified errors to the numeric status recorded in task finish files.
package errs

import (
	"errors"
	"fmt"
)

// Exit statuses recorded in the task finish record.
const (
	ExitSuccess       = 0
	ExitConfiguration = 3
	ExitData          = 4
	ExitProvenance    = 5
	// ExitUnknown is the status when a failure escapes before a more specific code is known.
	ExitUnknown = 99
)

// ConfigurationError reports a missing or invalid required setting.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// DataError reports malformed or missing structure in the embedding source.
type DataError struct {
	Msg string
}

func (e *DataError) Error() string { return e.Msg }

// ProvenanceError reports structurally invalid or missing registration metadata.
type ProvenanceError struct {
	Msg string
}

func (e *ProvenanceError) Error() string { return e.Msg }

// Configf returns a ConfigurationError with a formatted message.
func Configf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// Dataf returns a DataError with a formatted message.
func Dataf(format string, args ...any) error {
	return &DataError{Msg: fmt.Sprintf(format, args...)}
}

// Provenancef returns a ProvenanceError with a formatted message.
func Provenancef(format string, args ...any) error {
	return &ProvenanceError{Msg: fmt.Sprintf(format, args...)}
}

// IsConfiguration reports whether err wraps a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsData reports whether err wraps a DataError.
func IsData(err error) bool {
	var target *DataError
	return errors.As(err, &target)
}

// IsProvenance reports whether err wraps a ProvenanceError.
func IsProvenance(err error) bool {
	var target *ProvenanceError
	return errors.As(err, &target)
}

// ExitCode returns the most specific status for err. A nil error is success.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case IsConfiguration(err):
		return ExitConfiguration
	case IsData(err):
		return ExitData
	case IsProvenance(err):
		return ExitProvenance
	default:
		return ExitUnknown
	}
}
