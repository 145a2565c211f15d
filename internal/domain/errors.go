// internal/domain/errors.go
package domain

import "errors"

// Sentinel errors for the order/notification core. Handlers match these with
// errors.Is and map them to HTTP status codes, so callers can tell an
// out-of-stock rejection from a permissions failure without parsing strings.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("caller is not allowed to perform this action")
	ErrInvalidTransition  = errors.New("order status transition not allowed")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrProductUnavailable = errors.New("product is not available for ordering")
	ErrValidation         = errors.New("invalid input")
	ErrConflict           = errors.New("conflicting concurrent update")
)
