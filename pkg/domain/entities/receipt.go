package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptLine represents a single line item on a customer receipt
type ReceiptLine struct {
	ReceiptID string
	ProductID ProductID
	Quantity  Quantity
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Receipt represents the header of a customer purchase, with its lines
type Receipt struct {
	ID         string
	StoreID    NodeID
	CustomerID string
	IssuedAt   time.Time
	Subtotal   decimal.Decimal
	Lines      []ReceiptLine
}

// NewReceipt creates a validated Receipt whose subtotal is computed from its lines
func NewReceipt(id string, storeID NodeID, customerID string, issuedAt time.Time, lines []ReceiptLine) (*Receipt, error) {
	if id == "" {
		return nil, fmt.Errorf("receipt id cannot be empty")
	}
	if storeID == "" {
		return nil, fmt.Errorf("store id cannot be empty")
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("receipt must have at least one line")
	}

	subtotal := decimal.Zero
	for i := range lines {
		if lines[i].Quantity <= 0 {
			return nil, fmt.Errorf(
				"line quantity must be positive, got %d for product %s",
				lines[i].Quantity, lines[i].ProductID,
			)
		}
		lines[i].ReceiptID = id
		subtotal = subtotal.Add(lines[i].LineTotal)
	}

	return &Receipt{
		ID:         id,
		StoreID:    storeID,
		CustomerID: customerID,
		IssuedAt:   issuedAt,
		Subtotal:   subtotal,
		Lines:      lines,
	}, nil
}
