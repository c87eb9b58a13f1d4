package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrProductNotFound signals a lookup for a product id that does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound signals a lookup for an order that does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrUserNotFound signals a reference to a user that does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken signals a registration against an already-used email.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrSKUTaken signals a product write that collides on SKU.
	ErrSKUTaken = errors.New("a product with this SKU already exists")
	// ErrProductReferenced blocks deletion of products present on order lines.
	ErrProductReferenced = errors.New("product is referenced by existing orders")
	// ErrPhoneMismatch gates the tracking lookup: the supplied phone must
	// match the order's stored phone exactly.
	ErrPhoneMismatch = errors.New("phone number does not match this order")
	// ErrInvalidCredentials covers unknown usernames, wrong passwords and
	// deactivated accounts alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrIdentifierExhausted is returned when bounded regeneration of a
	// unique identifier keeps colliding.
	ErrIdentifierExhausted = errors.New("could not allocate a unique identifier")
)

// ValidationError reports the first violated input rule.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ProductMissingError identifies an order line whose product id resolves to
// nothing. A single missing product aborts the whole order.
type ProductMissingError struct {
	ProductID uuid.UUID
}

func (e *ProductMissingError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError names the first product whose stock cannot cover
// the requested quantity.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: %d available, %d requested", e.ProductName, e.Available, e.Requested)
}
