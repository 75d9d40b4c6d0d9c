package entities

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewReceiptComputesSubtotal(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	lines := []ReceiptLine{
		{ProductID: "SKU-A", Quantity: 2, UnitPrice: decimal.RequireFromString("2.49"), LineTotal: decimal.RequireFromString("4.98")},
		{ProductID: "SKU-B", Quantity: 1, UnitPrice: decimal.RequireFromString("3.79"), LineTotal: decimal.RequireFromString("3.79")},
	}

	receipt, err := NewReceipt("R1", "ST1", "CUST-1", issuedAt, lines)
	if err != nil {
		t.Fatalf("Expected valid receipt creation to succeed: %v", err)
	}
	if want := decimal.RequireFromString("8.77"); !receipt.Subtotal.Equal(want) {
		t.Errorf("Expected subtotal %s, got %s", want, receipt.Subtotal)
	}
	for _, line := range receipt.Lines {
		if line.ReceiptID != "R1" {
			t.Errorf("Expected line stamped with receipt id R1, got %s", line.ReceiptID)
		}
	}
}

func TestNewReceiptValidation(t *testing.T) {
	issuedAt := time.Now()
	validLines := []ReceiptLine{{ProductID: "SKU-A", Quantity: 1, LineTotal: decimal.RequireFromString("1.00")}}

	testCases := []struct {
		name        string
		id          string
		storeID     NodeID
		lines       []ReceiptLine
		expectError string
	}{
		{"empty id", "", "ST1", validLines, "receipt id cannot be empty"},
		{"empty store", "R1", "", validLines, "store id cannot be empty"},
		{"no lines", "R1", "ST1", nil, "receipt must have at least one line"},
		{
			"zero quantity", "R1", "ST1",
			[]ReceiptLine{{ProductID: "SKU-A", Quantity: 0}},
			"line quantity must be positive, got 0 for product SKU-A",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewReceipt(tc.id, tc.storeID, "CUST-1", issuedAt, tc.lines)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}
