package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile           ErrorCategory = "file"
	CategoryParse          ErrorCategory = "parse"
	CategoryValidation     ErrorCategory = "validation"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryReconciliation ErrorCategory = "reconciliation"
	CategoryTransfer       ErrorCategory = "transfer"
	CategoryInternal       ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeDirectoryError ErrorCode = "directory_error"
	CodeFileCorrupted  ErrorCode = "file_corrupted"

	// Parse errors
	CodeEmptyFile     ErrorCode = "empty_file"
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"
	CodeInvalidData   ErrorCode = "invalid_data"

	// Validation errors
	CodeInvalidDate  ErrorCode = "invalid_date"
	CodeMissingField ErrorCode = "missing_field"
	CodeEmptyDataset ErrorCode = "empty_dataset"

	// Configuration errors
	CodeInvalidConfig      ErrorCode = "invalid_config"
	CodeMissingConfig      ErrorCode = "missing_config"
	CodeUnknownEnvironment ErrorCode = "unknown_environment"

	// Reconciliation errors
	CodeLinkageFailed    ErrorCode = "linkage_failed"
	CodeResolutionFailed ErrorCode = "resolution_failed"
	CodeReportFailed     ErrorCode = "report_failed"

	// Transfer errors
	CodeConnectionFailed ErrorCode = "connection_failed"
	CodeDownloadFailed   ErrorCode = "download_failed"
	CodeUploadFailed     ErrorCode = "upload_failed"
	CodeNotifyFailed     ErrorCode = "notify_failed"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// RunError is the base error type for all application errors
type RunError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *RunError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *RunError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *RunError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryReconciliation, CategoryInternal:
		return 5
	case CategoryTransfer:
		return 6
	default:
		return 1
	}
}

// Fatal reports whether the error must abort the run. Transfer failures are
// recoverable: the reports are still produced and persisted locally even when
// the upload or notification leg fails.
func (e *RunError) Fatal() bool {
	return e.Category != CategoryTransfer
}

// WithContext adds context information to the error
func (e *RunError) WithContext(key string, value interface{}) *RunError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *RunError) WithSuggestion(suggestion string) *RunError {
	e.Suggestion = suggestion
	return e
}

// FormatWithStack returns the message followed by the captured stack trace,
// suitable for the body of an operator failure notification.
func (e *RunError) FormatWithStack() string {
	var b strings.Builder
	b.WriteString(e.Error())
	if e.Cause != nil {
		fmt.Fprintf(&b, "\ncause: %v", e.Cause)
	}
	if e.StackTrace != nil {
		fmt.Fprintf(&b, "\n%+v", e.StackTrace)
	}
	return b.String()
}

// New creates a new RunError
func New(category ErrorCategory, code ErrorCode, message string) *RunError {
	return &RunError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with RunError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *RunError {
	if err == nil {
		return nil
	}

	return &RunError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *RunError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeDirectoryError:
		message = fmt.Sprintf("directory error: %s", path)
		suggestion = "ensure the directory exists and is accessible"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file could not be read: %s", path)
		suggestion = "the file may be truncated or in an unexpected format"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *RunError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, file string, line int, column string, err error) *RunError {
	var message string
	var suggestion string

	switch code {
	case CodeEmptyFile:
		message = fmt.Sprintf("file %s is empty", file)
		suggestion = "verify the upstream extract ran and produced data before this pipeline"
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in file %s at line %d", file, line)
		suggestion = "check the data format and ensure it matches the expected structure"
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in file %s", column, file)
		suggestion = "verify the file has all required columns with correct headers"
	case CodeInvalidData:
		message = fmt.Sprintf("invalid data in file %s at line %d, column '%s'", file, line, column)
		suggestion = "correct the data format or remove the invalid entry"
	default:
		message = fmt.Sprintf("parse error in file %s at line %d", file, line)
		suggestion = "check the file format and data integrity"
	}

	var result *RunError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("line", line).
		WithContext("column", column)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *RunError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeEmptyDataset:
		message = fmt.Sprintf("dataset '%s' contains no usable rows", field)
		suggestion = "verify the input extracts cover the reporting period"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *RunError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *RunError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this setting in the environment config file"
	case CodeUnknownEnvironment:
		message = fmt.Sprintf("unknown environment: %v", value)
		suggestion = "use one of the configured deployment environments"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *RunError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// ReconciliationError creates a reconciliation-related error
func ReconciliationError(code ErrorCode, operation string, err error) *RunError {
	var message string
	var suggestion string

	switch code {
	case CodeLinkageFailed:
		message = fmt.Sprintf("identity linkage failed during %s", operation)
		suggestion = "check name and date-of-birth data quality on both sides"
	case CodeResolutionFailed:
		message = fmt.Sprintf("status resolution failed during %s", operation)
		suggestion = "verify status codes and contact dates in the event data"
	case CodeReportFailed:
		message = fmt.Sprintf("report generation failed during %s", operation)
		suggestion = "check the output directory and disk space"
	default:
		message = fmt.Sprintf("reconciliation error during %s", operation)
		suggestion = "review the data and configuration"
	}

	var result *RunError
	if err != nil {
		result = Wrap(err, CategoryReconciliation, code, message)
	} else {
		result = New(CategoryReconciliation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// TransferError creates a file-transfer or notification error. These are
// non-fatal to the run result: the caller reports them and continues.
func TransferError(code ErrorCode, endpoint string, err error) *RunError {
	var message string
	var suggestion string

	switch code {
	case CodeConnectionFailed:
		message = fmt.Sprintf("connection failed to %s", endpoint)
		suggestion = "check network connectivity and endpoint availability"
	case CodeDownloadFailed:
		message = fmt.Sprintf("download failed from %s", endpoint)
		suggestion = "verify the remote file exists and is readable"
	case CodeUploadFailed:
		message = fmt.Sprintf("upload failed to %s", endpoint)
		suggestion = "verify the remote directory exists and is writable"
	case CodeNotifyFailed:
		message = fmt.Sprintf("notification failed via %s", endpoint)
		suggestion = "check the mail relay configuration"
	default:
		message = fmt.Sprintf("transfer error: %s", endpoint)
		suggestion = "check the connection and try again"
	}

	var result *RunError
	if err != nil {
		result = Wrap(err, CategoryTransfer, code, message)
	} else {
		result = New(CategoryTransfer, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("endpoint", endpoint)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *RunError {
	message := fmt.Sprintf("unexpected error during %s", operation)
	suggestion := "this is likely a bug - please report it with the error details"

	var result *RunError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// Utility functions

// IsRunError checks if an error is a RunError
func IsRunError(err error) bool {
	_, ok := err.(*RunError)
	return ok
}

// AsRunError extracts a RunError from an error chain
func AsRunError(err error) (*RunError, bool) {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a RunError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *RunError {
	if err == nil {
		return nil
	}

	if runErr, ok := AsRunError(err); ok {
		return runErr
	}

	return Wrap(err, category, code, message)
}
