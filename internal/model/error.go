package model

import (
	"fmt"
	"strings"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Message string `json:"message"`
}

// ShortageResponse is returned when one or more products cannot be supplied.
type ShortageResponse struct {
	Message      string     `json:"message"`
	Insufficient []Shortage `json:"insufficient"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeEmptyCart         = "EMPTY_CART"
	ErrCodeProductNotFound   = "PRODUCT_NOT_FOUND"
	ErrCodeQuantityTooLarge  = "QUANTITY_TOO_LARGE"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeDuplicateCheckout = "DUPLICATE_CHECKOUT"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrEmptyCart         = NewDomainError(ErrCodeEmptyCart, "Cart must contain at least one item")
	ErrProductNotFound   = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrDuplicateCheckout = NewDomainError(ErrCodeDuplicateCheckout, "Duplicate checkout request")
	ErrQuantityTooLarge  = NewDomainError(ErrCodeQuantityTooLarge, "Requested quantity is too large")
)

// Shortage describes a per-product deficit between requested and available stock.
type Shortage struct {
	ProductID int64 `json:"productId"`
	Requested int   `json:"requested"`
	Available int   `json:"stock"`
}

// InsufficientStockError is returned by the availability check when at least
// one product in the cart cannot be covered by its stock batches.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("product %d: requested %d, available %d", s.ProductID, s.Requested, s.Available)
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// AllocationRaceError means the allocator could not find stock that the
// availability check had already counted. Another transaction consumed it in between.
//
// Allocated is the quantity the allocator could account for. When the listed
// batches fall short before any decrement, it is their sum as read inside the
// transaction. When a decrement fails midway, it is the units already deducted,
// which the rollback restores. Neither is a fresh read of the stock left.
type AllocationRaceError struct {
	ProductID int64
	Requested int
	Allocated int
}

func (e *AllocationRaceError) Error() string {
	return fmt.Sprintf("allocation race on product %d: requested %d, allocated %d",
		e.ProductID, e.Requested, e.Allocated)
}

// Shortage reports the race the same way a pre-allocation shortage is reported.
// Its stock field carries Allocated.
func (e *AllocationRaceError) Shortage() Shortage {
	return Shortage{
		ProductID: e.ProductID,
		Requested: e.Requested,
		Available: e.Allocated,
	}
}
