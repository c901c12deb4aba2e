// Package apperrors defines application-level error types.
package apperrors

import "fmt"

// ConfigurationError indicates system config or setup issue.
// It is the only error class that stops the process.
type ConfigurationError struct {
	Cause   error
	Aspect  string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error (%s): %s: %v", e.Aspect, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Aspect, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(aspect, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		Aspect:  aspect,
		Message: message,
		Cause:   cause,
	}
}

// SliceError indicates the slicer failed to produce one artifact.
type SliceError struct {
	Cause    error
	Artifact string
	Output   string
}

func (e *SliceError) Error() string {
	return fmt.Sprintf("slicing failed for %s: %v", e.Artifact, e.Cause)
}

func (e *SliceError) Unwrap() error {
	return e.Cause
}

// NewSliceError creates a new slice error.
func NewSliceError(artifact, output string, cause error) *SliceError {
	return &SliceError{
		Artifact: artifact,
		Output:   output,
		Cause:    cause,
	}
}

// TransferError indicates a transfer to one target failed.
type TransferError struct {
	Cause       error
	Destination string
	Output      string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer to %s failed: %v", e.Destination, e.Cause)
}

func (e *TransferError) Unwrap() error {
	return e.Cause
}

// NewTransferError creates a new transfer error.
func NewTransferError(destination, output string, cause error) *TransferError {
	return &TransferError{
		Destination: destination,
		Output:      output,
		Cause:       cause,
	}
}
