package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvalidThreshold indicates an unparseable severity value
	InvalidThreshold ErrorCode = "INVALID_THRESHOLD"
	// UnsupportedFormat indicates an unknown exporter or input format
	UnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// ProviderNotFound indicates a provider spec names no registered provider
	ProviderNotFound ErrorCode = "PROVIDER_NOT_FOUND"
	// ProviderInvalid indicates a malformed provider spec or argument
	ProviderInvalid ErrorCode = "PROVIDER_INVALID"
	// ArtifactNotFound indicates a provider path does not exist
	ArtifactNotFound ErrorCode = "ARTIFACT_NOT_FOUND"
	// EngineFailed indicates the diff engine could not compare a pair
	EngineFailed ErrorCode = "ENGINE_FAILED"
	// DecodeFailed indicates a diff tree or surface could not be parsed
	DecodeFailed ErrorCode = "DECODE_FAILED"
	// NoComparablePairs indicates acquisition matched no artifacts
	NoComparablePairs ErrorCode = "NO_COMPARABLE_PAIRS"
	// ConfigInvalid indicates invalid configuration
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// OutputFailed indicates a report could not be written
	OutputFailed ErrorCode = "OUTPUT_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests changing a configuration value
	EditConfig FixActionType = "edit-config"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Key         string        `json:"key,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// SemdiffError carries a stable code, a message and suggested fixes.
type SemdiffError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a SemdiffError with the default fixes for code.
func New(code ErrorCode, message string, cause error) *SemdiffError {
	return NewWithFixes(code, message, cause, GetSuggestedFixes(code))
}

// NewWithFixes creates a SemdiffError with explicit fixes.
func NewWithFixes(code ErrorCode, message string, cause error, fixes []FixAction) *SemdiffError {
	return &SemdiffError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: fixes,
	}
}

// Error implements the error interface
func (e *SemdiffError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *SemdiffError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *SemdiffError) WithDetails(details interface{}) *SemdiffError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first SemdiffError in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var se *SemdiffError
	if errors.As(err, &se) {
		return se.Code
	}
	return InternalError
}

// IsConfigError reports whether err was raised before any comparison ran
// because of bad flags or configuration.
func IsConfigError(err error) bool {
	switch CodeOf(err) {
	case InvalidThreshold, UnsupportedFormat, ProviderNotFound, ProviderInvalid, ConfigInvalid:
		return true
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	InvalidThreshold: {
		{
			Type:        EditConfig,
			Key:         "preventChange",
			Description: "Use one of none, patch, minor, major",
		},
	},
	UnsupportedFormat: {
		{
			Type:        RunCommand,
			Command:     "semdiff formats",
			Safe:        true,
			Description: "List the available output formats",
		},
	},
	ProviderNotFound: {
		{
			Type:        RunCommand,
			Command:     "semdiff providers",
			Safe:        true,
			Description: "List the available providers",
		},
	},
	ProviderInvalid: {
		{
			Type:        RunCommand,
			Command:     "semdiff providers",
			Safe:        true,
			Description: "Provider specs take the form name|argument",
		},
	},
	EngineFailed: {
		{
			Type:        EditConfig,
			Key:         "engine.command",
			Description: "Check the external diff engine command",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "semdiff config show",
			Safe:        true,
			Description: "Inspect the effective configuration",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
