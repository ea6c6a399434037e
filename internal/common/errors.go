package common

import "errors"

// Error codes shared by the pricing and finalization packages.
const (
	CodeInvalidQuantity         = "invalid_quantity"
	CodeNotPriced               = "not_priced"
	CodeInsufficientPayment     = "insufficient_payment"
	CodeAlreadyFinalized        = "already_finalized"
	CodeUnknownItem             = "unknown_item"
	CodeUnknownCustomer         = "unknown_customer"
	CodeCollaboratorUnavailable = "collaborator_unavailable"
	CodeSaleCompleted           = "sale_completed"
)

// AppError represents an error with an attached code and the step that produced it.
type AppError struct {
	Code    string
	Message string
	Step    string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Step != "" {
		return e.Step + ": " + msg
	}
	return msg
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message, step string, err error) *AppError {
	return &AppError{Code: code, Message: message, Step: step, Err: err}
}

// CodeOf returns the code of the first AppError in the chain, or "" when none is present.
func CodeOf(err error) string {
	var target *AppError
	if errors.As(err, &target) {
		return target.Code
	}
	return ""
}
