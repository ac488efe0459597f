package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the base interface for all application errors
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// NotFoundError represents a pipeline, stage, entity or catalog item that was not found
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

func (e *NotFoundError) Code() string {
	return "NOT_FOUND"
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents invalid input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *ValidationError) Code() string {
	return "VALIDATION_ERROR"
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// TypeMismatchError is returned when an entity type does not match the
// pipeline's declared manage type
type TypeMismatchError struct {
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("Invalid entity type. Pipeline accepts '%s' only.", e.Expected)
}

func (e *TypeMismatchError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *TypeMismatchError) Code() string {
	return "TYPE_MISMATCH"
}

// NewTypeMismatchError creates a new TypeMismatchError
func NewTypeMismatchError(expected, actual string) *TypeMismatchError {
	return &TypeMismatchError{Expected: expected, Actual: actual}
}

// InvalidStateError represents a structurally forbidden operation
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

func (e *InvalidStateError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *InvalidStateError) Code() string {
	return "INVALID_STATE"
}

// NewInvalidStateError creates a new InvalidStateError
func NewInvalidStateError(message string) *InvalidStateError {
	return &InvalidStateError{Message: message}
}

// DuplicateNameError represents a name collision within a scope
type DuplicateNameError struct {
	Resource string
	Name     string
	Scope    string
}

func (e *DuplicateNameError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("%s name '%s' already exists in this %s", e.Resource, e.Name, e.Scope)
	}
	return fmt.Sprintf("%s name '%s' already exists", e.Resource, e.Name)
}

func (e *DuplicateNameError) HTTPStatus() int {
	return http.StatusConflict
}

func (e *DuplicateNameError) Code() string {
	return "DUPLICATE_NAME"
}

// NewDuplicateNameError creates a new DuplicateNameError
func NewDuplicateNameError(resource, name, scope string) *DuplicateNameError {
	return &DuplicateNameError{Resource: resource, Name: name, Scope: scope}
}

// StorageConflictError is returned when a conditional write loses against a
// concurrent writer. Callers may retry with fresh state.
type StorageConflictError struct {
	Resource string
	ID       string
}

func (e *StorageConflictError) Error() string {
	return fmt.Sprintf("%s '%s' was modified concurrently", e.Resource, e.ID)
}

func (e *StorageConflictError) HTTPStatus() int {
	return http.StatusConflict
}

func (e *StorageConflictError) Code() string {
	return "STORAGE_CONFLICT"
}

// NewStorageConflictError creates a new StorageConflictError
func NewStorageConflictError(resource, id string) *StorageConflictError {
	return &StorageConflictError{Resource: resource, ID: id}
}

// UnauthorizedError represents authentication failures
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unauthorized: %s", e.Reason)
	}
	return "unauthorized"
}

func (e *UnauthorizedError) HTTPStatus() int {
	return http.StatusUnauthorized
}

func (e *UnauthorizedError) Code() string {
	return "UNAUTHORIZED"
}

// NewUnauthorizedError creates a new UnauthorizedError
func NewUnauthorizedError(reason string) *UnauthorizedError {
	return &UnauthorizedError{Reason: reason}
}

// InternalError represents unexpected server errors
type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("internal error: %s (caused by: %v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("internal error: %s", e.Message)
}

func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}

func (e *InternalError) Code() string {
	return "INTERNAL_ERROR"
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{Message: message, Cause: cause}
}

// Helper functions for error checking

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}

// IsTypeMismatch checks if an error is a TypeMismatchError
func IsTypeMismatch(err error) bool {
	var mismatch *TypeMismatchError
	return errors.As(err, &mismatch)
}

// IsInvalidState checks if an error is an InvalidStateError
func IsInvalidState(err error) bool {
	var invalid *InvalidStateError
	return errors.As(err, &invalid)
}

// IsDuplicateName checks if an error is a DuplicateNameError
func IsDuplicateName(err error) bool {
	var duplicate *DuplicateNameError
	return errors.As(err, &duplicate)
}

// IsStorageConflict checks if an error is a StorageConflictError
func IsStorageConflict(err error) bool {
	var conflict *StorageConflictError
	return errors.As(err, &conflict)
}

// IsUnauthorized checks if an error is an UnauthorizedError
func IsUnauthorized(err error) bool {
	var unauthorized *UnauthorizedError
	return errors.As(err, &unauthorized)
}

// GetHTTPStatus returns the HTTP status code for an error
// Returns 500 if the error doesn't implement AppError
func GetHTTPStatus(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// GetErrorCode returns the error code for an error
// Returns "UNKNOWN_ERROR" if the error doesn't implement AppError
func GetErrorCode(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return "UNKNOWN_ERROR"
}
