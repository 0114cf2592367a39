// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeProjectNotFound ErrorCode = "PROJECT_NOT_FOUND"
	ErrCodeNoCandidates    ErrorCode = "NO_CANDIDATES"

	ErrCodeCandidateFetchFailed     ErrorCode = "CANDIDATE_FETCH_FAILED"
	ErrCodeScorePersistFailed       ErrorCode = "SCORE_PERSIST_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeMatchingLockFailed       ErrorCode = "MATCHING_LOCK_FAILED"
	ErrCodeMalformedRecord          ErrorCode = "MALFORMED_RECORD"

	ErrCodeUnexpectedFailure ErrorCode = "UNEXPECTED_FAILURE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause so errors.Is keeps working across the wrap.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidInputError creates a non-retryable validation error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid matching request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProjectNotFoundError creates a non-retryable lookup error.
func NewProjectNotFoundError(projectID string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProjectNotFound,
		Message:   "Project not found",
		Details:   fmt.Sprintf("projectId: %s", projectID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewNoCandidatesError is raised when the candidate population is empty.
func NewNoCandidatesError(projectID, profileID string, cause error) *StandardError {
	details := fmt.Sprintf("projectId: %s", projectID)
	if profileID != "" {
		details = fmt.Sprintf("projectId: %s, profileId: %s", projectID, profileID)
	}
	return &StandardError{
		Code:      ErrCodeNoCandidates,
		Message:   "No candidate profiles to score",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewCandidateFetchFailedError creates a retryable store error.
func NewCandidateFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCandidateFetchFailed,
		Message:   "Failed to load project or candidates",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewScorePersistFailedError describes a single failed matching score write.
func NewScorePersistFailedError(profileID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScorePersistFailed,
		Message:   "Matching score write failed",
		Details:   fmt.Sprintf("profileId: %s, error: %s", profileID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewMatchingLockFailedError is returned when the per-project run lock cannot be taken.
func NewMatchingLockFailedError(projectID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchingLockFailed,
		Message:   "Could not acquire matching lock",
		Details:   fmt.Sprintf("projectId: %s, error: %s", projectID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewMalformedRecordError flags a stored record that could not be decoded.
func NewMalformedRecordError(kind, id string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedRecord,
		Message:   fmt.Sprintf("Malformed %s record", kind),
		Details:   fmt.Sprintf("id: %s, error: %s", id, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewUnexpectedFailureError wraps anything the matching run did not anticipate.
func NewUnexpectedFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnexpectedFailure,
		Message:   "Unexpected matching failure",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the codes caught by boundary events.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeProjectNotFound:          "PROJECT_NOT_FOUND",
	ErrCodeNoCandidates:             "NO_CANDIDATES",
	ErrCodeCandidateFetchFailed:     "CANDIDATE_FETCH_FAILED",
	ErrCodeScorePersistFailed:       "SCORE_PERSIST_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeMatchingLockFailed:       "MATCHING_LOCK_FAILED",
	ErrCodeMalformedRecord:          "MALFORMED_RECORD",
	ErrCodeUnexpectedFailure:        "UNEXPECTED_FAILURE",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCandidateFetchFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeUnexpectedFailure:
		return 3

	case ErrCodeMatchingLockFailed,
		ErrCodeScorePersistFailed:
		return 2

	default:
		return 0 // business errors
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := 0
	if stdErr.Retryable && IsRetryableErrorCode(stdErr.Code) {
		retries = GetRetryCount(stdErr.Code)
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err looking for a *StandardError.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of a wrapped StandardError, or UNEXPECTED_FAILURE.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Code
	}
	return ErrCodeUnexpectedFailure
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// IsBusinessError reports whether a code is surfaced to callers as a request outcome
// rather than treated as an infrastructure failure.
func IsBusinessError(code ErrorCode) bool {
	switch code {
	case ErrCodeInvalidInput, ErrCodeProjectNotFound, ErrCodeNoCandidates:
		return true
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PROJECT") || strings.Contains(codeStr, "CANDIDATE"):
		return "MATCHING"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "PERSIST") || strings.Contains(codeStr, "RECORD"):
		return "DATABASE"
	case strings.Contains(codeStr, "LOCK"):
		return "COORDINATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
