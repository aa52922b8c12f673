package services

import (
	"errors"
	"fmt"
)

// Stable machine codes for business outcomes. Handlers branch on these to pick
// HTTP statuses and user-facing messages.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
	CodeDelivered         = "DELIVERED"
	CodePaidOnline        = "PAID_ONLINE"
	CodeShipped           = "SHIPPED"
	CodeProcessing        = "PROCESSING"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeOutOfStock        = "OUT_OF_STOCK"
	CodePriceChanged      = "PRICE_CHANGED"
	CodeValidation        = "VALIDATION"
	CodeConflict          = "CONFLICT"
)

// ServiceError is an expected business outcome, not an infrastructure failure.
type ServiceError struct {
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewServiceError builds a ServiceError with a formatted message.
func NewServiceError(code, format string, args ...any) *ServiceError {
	return &ServiceError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsServiceError unwraps err into a ServiceError if it is one.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
