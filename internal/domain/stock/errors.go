package stock

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Error codes produced by the stock core
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeAlreadyFinalized  = "ALREADY_FINALIZED"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeContention        = "CONTENTION"
)

var (
	// ErrAlreadyFinalized is returned when a document already left DRAFT
	ErrAlreadyFinalized = shared.NewDomainError(CodeAlreadyFinalized, "Document is already finalized")

	// ErrContention is returned when lot rows could not be locked or changed under us.
	// Nothing was committed; the caller may resubmit the identical request.
	ErrContention = shared.NewDomainError(CodeContention, "Stock is being changed by another operation, retry the request")

	// ErrValidation is the sentinel matched by errors.Is for any validation failure
	ErrValidation = shared.NewDomainError(CodeValidation, "Validation failed")
)

// NewValidationError creates a VALIDATION_ERROR with a formatted message
func NewValidationError(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// InsufficientStockError reports the first material a write-off could not cover
type InsufficientStockError struct {
	MaterialID uuid.UUID
	Requested  decimal.Decimal
	Available  decimal.Decimal
	Shortfall  decimal.Decimal
}

// NewInsufficientStockError creates the error from requested and available quantities
func NewInsufficientStockError(materialID uuid.UUID, requested, available decimal.Decimal) *InsufficientStockError {
	return &InsufficientStockError{
		MaterialID: materialID,
		Requested:  requested,
		Available:  available,
		Shortfall:  requested.Sub(available),
	}
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for material %s: requested %s, available %s, shortfall %s",
		e.MaterialID, e.Requested.String(), e.Available.String(), e.Shortfall.String())
}

// DomainError exposes the error in the shared taxonomy
func (e *InsufficientStockError) DomainError() *shared.DomainError {
	return shared.NewDomainError(CodeInsufficientStock, e.Error()).WithDetails(map[string]any{
		"material_id": e.MaterialID.String(),
		"requested":   e.Requested.String(),
		"available":   e.Available.String(),
		"shortfall":   e.Shortfall.String(),
	})
}

// As lets errors.As(err, **shared.DomainError) see the insufficient stock error
func (e *InsufficientStockError) As(target any) bool {
	if t, ok := target.(**shared.DomainError); ok {
		*t = e.DomainError()
		return true
	}
	return false
}

// Is matches the insufficient stock code
func (e *InsufficientStockError) Is(target error) bool {
	t, ok := target.(*shared.DomainError)
	return ok && t.Code == CodeInsufficientStock
}

// ErrInsufficientStock is the sentinel for errors.Is checks
var ErrInsufficientStock = shared.NewDomainError(CodeInsufficientStock, "Insufficient stock")
