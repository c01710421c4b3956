package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrValidation           = errors.New("invalid request")
	ErrEmptyOrder           = errors.New("items are required")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrInvalidPrice         = errors.New("price must not be negative")
	ErrAmountTooLarge       = errors.New("amount is too large")
	ErrInvalidPaymentMethod = errors.New("unsupported payment method")
	ErrTotalMismatch        = errors.New("submitted total does not match line items")

	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockConflict     = errors.New("stock changed concurrently, reload and retry")
	ErrDuplicateSKU      = errors.New("sku already exists")
	ErrDuplicateEmail    = errors.New("email already in use")
	ErrInvalidCredential = errors.New("invalid credentials")

	ErrCorruptSequenceState   = errors.New("invoice sequence state is corrupt")
	ErrDuplicateInvoiceNumber = errors.New("invoice number already allocated")

	ErrInvalidSaleData = errors.New("invalid sale data")
	ErrStorageTimeout  = errors.New("storage operation timed out")
)

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Err.Error())
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// LineItemError reports which line of a sale request failed and why.
type LineItemError struct {
	Index       int
	ProductID   string
	ProductName string
	Err         error
}

func (e *LineItemError) Error() string {
	switch {
	case errors.Is(e.Err, ErrInsufficientStock) && e.ProductName != "":
		return fmt.Sprintf("insufficient stock for %s", e.ProductName)
	case errors.Is(e.Err, ErrNotFound):
		return fmt.Sprintf("product %s not found", e.ProductID)
	case e.ProductID == "":
		return fmt.Sprintf("item %d: %s", e.Index, e.Err.Error())
	default:
		return fmt.Sprintf("item %d (product %s): %s", e.Index, e.ProductID, e.Err.Error())
	}
}

func (e *LineItemError) Unwrap() error {
	return e.Err
}

type ErrorKind string

const (
	KindValidation      ErrorKind = "validation_error"
	KindNotFound        ErrorKind = "not_found"
	KindInsufficient    ErrorKind = "insufficient_stock"
	KindCorruptSequence ErrorKind = "corrupt_sequence_state"
	KindDuplicateNumber ErrorKind = "duplicate_invoice_number"
	KindInvalidSaleData ErrorKind = "invalid_sale_data"
	KindTimeout         ErrorKind = "timeout"
	KindConflict        ErrorKind = "conflict"
	KindUnauthorized    ErrorKind = "unauthorized"
	KindInternal        ErrorKind = "internal"
)

// KindOf classifies err into a stable kind. Unknown errors are internal.
func KindOf(err error) ErrorKind {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStorageTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrInsufficientStock):
		return KindInsufficient
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrCorruptSequenceState):
		return KindCorruptSequence
	case errors.Is(err, ErrDuplicateInvoiceNumber):
		return KindDuplicateNumber
	case errors.Is(err, ErrInvalidSaleData):
		return KindInvalidSaleData
	case errors.Is(err, ErrDuplicateSKU), errors.Is(err, ErrDuplicateEmail), errors.Is(err, ErrStockConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidCredential):
		return KindUnauthorized
	case errors.As(err, &verr),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrEmptyOrder),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrAmountTooLarge),
		errors.Is(err, ErrInvalidPaymentMethod),
		errors.Is(err, ErrTotalMismatch):
		return KindValidation
	default:
		return KindInternal
	}
}

// IsSequenceRace reports whether err means another writer allocated the
// same invoice number, so a fresh allocation may succeed.
func IsSequenceRace(err error) bool {
	switch KindOf(err) {
	case KindCorruptSequence, KindDuplicateNumber:
		return true
	}
	return false
}
