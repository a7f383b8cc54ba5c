// Package errors provides error types with actionable suggestions for
// mtb-deps. Errors carry the path or command that failed so the console
// message points the user at the right folder.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel kinds for use with errors.Is().
var (
	// ErrWorkspace indicates the workspace layout could not be discovered.
	ErrWorkspace = errors.New("workspace error")
	// ErrDescriptor indicates a malformed dependency descriptor file.
	ErrDescriptor = errors.New("descriptor error")
	// ErrGit indicates a version-control query failure.
	ErrGit = errors.New("git error")
	// ErrConfig indicates a configuration error.
	ErrConfig = errors.New("configuration error")
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("not found")
)

// DepError is the base error type for mtb-deps errors.
type DepError struct {
	// Kind is the category of error (e.g., ErrWorkspace, ErrDescriptor).
	Kind error
	// Message is the human-readable error message.
	Message string
	// Suggestion provides actionable advice for resolving the error.
	Suggestion string
	// Cause is the underlying error that caused this error.
	Cause error
	// Details provides additional context (e.g., file path, line).
	Details map[string]string
}

// Error implements the error interface.
func (e *DepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *DepError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return e.Kind
}

// Is reports whether the error's kind matches the target.
func (e *DepError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// Format returns a formatted error message with details and suggestion.
func (e *DepError) Format() string {
	var sb strings.Builder

	sb.WriteString("Error: ")
	sb.WriteString(e.Error())
	sb.WriteString("\n")

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("\nDetails:\n")
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, e.Details[k]))
		}
	}

	if e.Suggestion != "" {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(e.Suggestion)
		sb.WriteString("\n")
	}

	return sb.String()
}

// WithDetails adds details to the error.
func (e *DepError) WithDetails(key, value string) *DepError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause of the error.
func (e *DepError) WithCause(cause error) *DepError {
	e.Cause = cause
	return e
}

// New creates a new DepError with the given kind and message.
func New(kind error, message string) *DepError {
	return &DepError{
		Kind:    kind,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, kind error, message string) *DepError {
	return &DepError{
		Kind:    kind,
		Message: message,
		Cause:   err,
	}
}

// WithSuggestion creates a new error with a suggestion.
func WithSuggestion(kind error, message, suggestion string) *DepError {
	return &DepError{
		Kind:       kind,
		Message:    message,
		Suggestion: suggestion,
	}
}

// AsDepError extracts a *DepError from err's chain.
func AsDepError(err error) (*DepError, bool) {
	var de *DepError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// FormatError returns the formatted message for err. Errors that are not a
// *DepError are rendered as a plain "Error: ..." line.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	if de, ok := AsDepError(err); ok {
		return de.Format()
	}
	return "Error: " + err.Error() + "\n"
}

// Is is a passthrough to the standard library errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a passthrough to the standard library errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
