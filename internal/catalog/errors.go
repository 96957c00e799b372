package catalog

import (
	"errors"
	"fmt"
	"strings"

	"catalog-admin/internal/models"
)

// Error codes
const (
	CodeNotFound              = "NOT_FOUND"
	CodeDependencyExists      = "DEPENDENCY_EXISTS"
	CodeInsufficientInventory = "INSUFFICIENT_INVENTORY"
	CodeValidation            = "VALIDATION_ERROR"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeInternal              = "INTERNAL"
)

// DomainError is an expected failure of a catalog command
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is
var (
	ErrNotFound              = &DomainError{Code: CodeNotFound, Message: "resource not found"}
	ErrDependencyExists      = &DomainError{Code: CodeDependencyExists, Message: "resource is still referenced"}
	ErrInsufficientInventory = &DomainError{Code: CodeInsufficientInventory, Message: "insufficient inventory"}
	ErrValidation            = &DomainError{Code: CodeValidation, Message: "validation failed"}
	ErrInvalidTransition     = &DomainError{Code: CodeInvalidTransition, Message: "invalid status transition"}
)

func notFound(entity models.EntityType, id string) error {
	return &DomainError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

func invalidTransition(orderID string, from, to models.OrderStatus) error {
	return &DomainError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("order %s cannot move from %s to %s", orderID, from, to),
	}
}

// DependencyError reports why a delete was refused
type DependencyError struct {
	Entity models.EntityType `json:"entity"`
	ID     string            `json:"id"`
	DependentCount
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("cannot delete %s %s: referenced by %d subcategories and %d products",
		e.Entity, e.ID, e.Subcategories, e.Products)
}

// Is matches ErrDependencyExists
func (e *DependencyError) Is(target error) bool {
	return target == ErrDependencyExists
}

// Shortage describes one under-stocked product of an order
type Shortage struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// InsufficientInventoryError rejects a fulfillment as a whole
type InsufficientInventoryError struct {
	OrderID   string     `json:"order_id"`
	Shortages []Shortage `json:"shortages"`
}

func (e *InsufficientInventoryError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("%s (requested %d, available %d)", s.ProductID, s.Requested, s.Available)
	}
	return fmt.Sprintf("insufficient inventory for order %s: %s", e.OrderID, strings.Join(parts, ", "))
}

// Is matches ErrInsufficientInventory
func (e *InsufficientInventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}

// FieldError is a single invalid input field
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every invalid field of an input
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is matches ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalidField(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

// ErrorCode returns the domain code of err, or "INTERNAL" for anything unexpected
func ErrorCode(err error) string {
	for _, sentinel := range []*DomainError{
		ErrNotFound, ErrDependencyExists, ErrInsufficientInventory, ErrValidation, ErrInvalidTransition,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Code
		}
	}
	return CodeInternal
}
