package errors

import (
	"errors"
	"fmt"
)

const (
	ErrorFailedToConnectToTheDatabase = "Failed to connect to the database"
	ErrorFailedToRunTheServer         = "Failed to run the server"
	ErrorFailedToShutdownTheServer    = "Failed to shutdown the server"
	ErrFailedDecodeRequestBody        = "Failed to decode request body"
	ErrInvalidRequestBody             = "Invalid request body"
	ErrFailedCreateTransfer           = "Failed to create transfer"
	ErrFailedApproveTransfer          = "Failed to approve transfer"
	ErrFailedRejectTransfer           = "Failed to reject transfer"
	ErrFailedSettleTransfer           = "Failed to settle transfer"
	ErrUserIDRequired                 = "User ID is required"
	ErrInvalidUserID                  = "Invalid User ID"
	ErrAdminIDRequired                = "Admin ID is required"
	ErrAdminRoleRequired              = "Admin role is required"
)

// ValidationError covers malformed caller input: bad amounts, malformed
// recipient details, missing rejection reason.
type ValidationError struct {
	Message string
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

type BadRequestError struct {
	Message string
}

func NewBadRequestError(message string) *BadRequestError {
	return &BadRequestError{Message: message}
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("Bad request: %s", e.Message)
}

type InsufficientFundsError struct{}

func NewInsufficientFundsError() *InsufficientFundsError {
	return &InsufficientFundsError{}
}

func (e *InsufficientFundsError) Error() string {
	return "insufficient balance"
}

type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// InvalidStateError reports an attempted transition on a transfer that is
// not in the required status. The record is left untouched.
type InvalidStateError struct {
	Current  string
	Required string
}

func NewInvalidStateError(current, required string) *InvalidStateError {
	return &InvalidStateError{Current: current, Required: required}
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("transfer is %s, expected %s", e.Current, e.Required)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
