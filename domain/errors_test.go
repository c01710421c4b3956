package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"empty order", ErrEmptyOrder, KindValidation},
		{"validation wrapper", &ValidationError{Field: "name", Err: errors.New("name is required")}, KindValidation},
		{"line quantity", &LineItemError{Index: 1, ProductID: "p1", Err: ErrInvalidQuantity}, KindValidation},
		{"line stock", &LineItemError{Index: 0, ProductID: "p1", Err: ErrInsufficientStock}, KindInsufficient},
		{"wrapped not found", fmt.Errorf("load sale: %w", ErrNotFound), KindNotFound},
		{"sequence", ErrCorruptSequenceState, KindCorruptSequence},
		{"duplicate", ErrDuplicateInvoiceNumber, KindDuplicateNumber},
		{"document", fmt.Errorf("%w: no items", ErrInvalidSaleData), KindInvalidSaleData},
		{"timeout", fmt.Errorf("debit: %w", ErrStorageTimeout), KindTimeout},
		{"sku", ErrDuplicateSKU, KindConflict},
		{"stock conflict", ErrStockConflict, KindConflict},
		{"amount", &ValidationError{Field: "price", Err: ErrAmountTooLarge}, KindValidation},
		{"unknown", errors.New("disk on fire"), KindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestLineItemErrorMessage(t *testing.T) {
	err := &LineItemError{Index: 0, ProductID: "p1", ProductName: "Gaming Mouse", Err: ErrInsufficientStock}
	assert.Equal(t, "insufficient stock for Gaming Mouse", err.Error())
	assert.ErrorIs(t, err, ErrInsufficientStock)

	err = &LineItemError{Index: 2, ProductID: "p9", Err: ErrNotFound}
	assert.Equal(t, "product p9 not found", err.Error())
}

func TestIsSequenceRace(t *testing.T) {
	assert.True(t, IsSequenceRace(ErrDuplicateInvoiceNumber))
	assert.True(t, IsSequenceRace(fmt.Errorf("x: %w", ErrCorruptSequenceState)))
	assert.False(t, IsSequenceRace(fmt.Errorf("x: %w", ErrStorageTimeout)))
	assert.False(t, IsSequenceRace(ErrInsufficientStock))
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod("")
	assert.NoError(t, err)
	assert.Equal(t, PaymentCash, m)

	m, err = ParsePaymentMethod("UPI")
	assert.NoError(t, err)
	assert.Equal(t, PaymentUPI, m)

	_, err = ParsePaymentMethod("cheque")
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
	assert.Equal(t, KindValidation, KindOf(err))
}
