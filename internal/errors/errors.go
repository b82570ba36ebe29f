package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ToolExecErrorType represents a cost tool that ran but exited non-zero
	ToolExecErrorType ErrorType = "TOOL_EXEC"
	// ToolNotFoundErrorType represents a cost tool executable that could not be located
	ToolNotFoundErrorType ErrorType = "TOOL_NOT_FOUND"
	// ParseErrorType represents tool output that is not a valid breakdown
	ParseErrorType ErrorType = "PARSE"
	// FileErrorType represents file system-related errors
	FileErrorType ErrorType = "FILE"
	// ConfigErrorType represents settings file errors
	ConfigErrorType ErrorType = "CONFIG"
	// ValidationErrorType represents invalid flag or setting values
	ValidationErrorType ErrorType = "VALIDATION"
)

// ReportError is the base error type for all application errors
type ReportError struct {
	Type        ErrorType
	Message     string
	Context     map[string]interface{}
	Cause       error
	Suggestions []string
}

// Error implements the error interface
func (e *ReportError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s]", e.Type))
	parts = append(parts, e.Message)

	if len(e.Context) > 0 {
		var contextParts []string
		for _, key := range e.contextKeys() {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", key, e.Context[key]))
		}
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(contextParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("caused by: %v", e.Cause))
	}

	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause error
func (e *ReportError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error type
func (e *ReportError) Is(target error) bool {
	if targetErr, ok := target.(*ReportError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *ReportError) WithContext(key string, value interface{}) *ReportError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion to help resolve the error
func (e *ReportError) WithSuggestion(suggestion string) *ReportError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// GetSuggestions returns formatted suggestions for resolving the error
func (e *ReportError) GetSuggestions() string {
	if len(e.Suggestions) == 0 {
		return ""
	}

	var result strings.Builder
	result.WriteString("Suggestions:\n")
	for i, suggestion := range e.Suggestions {
		result.WriteString(fmt.Sprintf("  %d. %s\n", i+1, suggestion))
	}
	return result.String()
}

// contextKeys returns context keys in a stable order so messages are reproducible.
func (e *ReportError) contextKeys() []string {
	keys := make([]string, 0, len(e.Context))
	for key := range e.Context {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func newError(errorType ErrorType, message string, cause error) *ReportError {
	return &ReportError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// ToolExecError creates an error for a cost tool that exited unsuccessfully
func ToolExecError(message string, cause error) *ReportError {
	return newError(ToolExecErrorType, message, cause)
}

// ToolNotFoundError creates an error for a missing cost tool executable
func ToolNotFoundError(message string, cause error) *ReportError {
	return newError(ToolNotFoundErrorType, message, cause)
}

// ParseError creates a new parse error
func ParseError(message string) *ReportError {
	return newError(ParseErrorType, message, nil)
}

// ParseErrorWithCause creates a new parse error with a cause
func ParseErrorWithCause(message string, cause error) *ReportError {
	return newError(ParseErrorType, message, cause)
}

// FileError creates a new file system error
func FileError(message string) *ReportError {
	return newError(FileErrorType, message, nil)
}

// FileErrorWithCause creates a new file system error with a cause
func FileErrorWithCause(message string, cause error) *ReportError {
	return newError(FileErrorType, message, cause)
}

// ConfigError creates a new settings error
func ConfigError(message string) *ReportError {
	return newError(ConfigErrorType, message, nil)
}

// ConfigErrorf creates a new settings error with formatting
func ConfigErrorf(format string, args ...interface{}) *ReportError {
	return newError(ConfigErrorType, fmt.Sprintf(format, args...), nil)
}

// ConfigErrorWithCause creates a new settings error with a cause
func ConfigErrorWithCause(message string, cause error) *ReportError {
	return newError(ConfigErrorType, message, cause)
}

// ValidationError creates a new validation error
func ValidationError(message string) *ReportError {
	return newError(ValidationErrorType, message, nil)
}

// ValidationErrorf creates a new validation error with formatting
func ValidationErrorf(format string, args ...interface{}) *ReportError {
	return newError(ValidationErrorType, fmt.Sprintf(format, args...), nil)
}

// WrapError wraps an existing error with additional context
func WrapError(err error, errorType ErrorType, message string) *ReportError {
	if err == nil {
		return nil
	}

	// Keep the original type unless one is given explicitly
	if reportErr, ok := err.(*ReportError); ok && errorType == "" {
		return &ReportError{
			Type:        reportErr.Type,
			Message:     message,
			Context:     reportErr.Context,
			Cause:       reportErr,
			Suggestions: reportErr.Suggestions,
		}
	}

	return &ReportError{
		Type:    errorType,
		Message: message,
		Cause:   err,
	}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if reportErr, ok := err.(*ReportError); ok {
		return reportErr.Type == errorType
	}
	return false
}

// GetErrorType returns the error type of an error, or empty string if not a ReportError
func GetErrorType(err error) ErrorType {
	if reportErr, ok := err.(*ReportError); ok {
		return reportErr.Type
	}
	return ""
}

// FormatErrorForUser formats an error in a user-friendly way.
// Tool failures print only their message so the output matches what
// users of the cost tool expect to see.
func FormatErrorForUser(err error) string {
	if err == nil {
		return ""
	}

	reportErr, ok := err.(*ReportError)
	if !ok {
		return fmt.Sprintf("Error: %v\n", err)
	}

	var result strings.Builder

	switch reportErr.Type {
	case ToolExecErrorType, ToolNotFoundErrorType:
		result.WriteString(reportErr.Message + "\n")
	default:
		result.WriteString(fmt.Sprintf("Error: %s\n", reportErr.Message))
	}

	if len(reportErr.Context) > 0 {
		result.WriteString("Details:\n")
		for _, key := range reportErr.contextKeys() {
			result.WriteString(fmt.Sprintf("  %s: %v\n", key, reportErr.Context[key]))
		}
	}

	if len(reportErr.Suggestions) > 0 {
		result.WriteString("\n")
		result.WriteString(reportErr.GetSuggestions())
	}

	return result.String()
}

// GetExitCode returns an appropriate exit code based on error type
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	reportErr, ok := err.(*ReportError)
	if !ok {
		return 1
	}

	switch reportErr.Type {
	case ToolExecErrorType, ToolNotFoundErrorType:
		return 1
	case ParseErrorType:
		return 2
	case FileErrorType:
		return 3
	case ConfigErrorType:
		return 4
	case ValidationErrorType:
		return 5
	default:
		return 1
	}
}
