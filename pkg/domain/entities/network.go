package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents retail product master data
type Product struct {
	ID           ProductID
	Name         string
	Category     string
	UnitPrice    decimal.Decimal
	ReorderPoint Quantity
}

// NewProduct creates a validated Product
func NewProduct(id ProductID, name, category string, unitPrice decimal.Decimal, reorderPoint Quantity) (*Product, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("product id cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("product name cannot be empty")
	}
	if unitPrice.IsNegative() {
		return nil, fmt.Errorf("unit price cannot be negative, got %s", unitPrice)
	}
	if reorderPoint < 0 {
		return nil, fmt.Errorf("reorder point cannot be negative, got %d", reorderPoint)
	}

	return &Product{
		ID:           id,
		Name:         name,
		Category:     category,
		UnitPrice:    unitPrice,
		ReorderPoint: reorderPoint,
	}, nil
}

// Store represents retail store master data
type Store struct {
	ID     NodeID
	Name   string
	Region string
}

// DistributionCenter represents DC master data
type DistributionCenter struct {
	ID     NodeID
	Name   string
	Region string
}

// Customer represents customer master data
type Customer struct {
	ID   string
	Name string
}

// Truck represents a delivery truck in the fleet. A truck with an empty
// HomeDC belongs to the shared pool and may serve any distribution center.
type Truck struct {
	ID     string
	HomeDC NodeID
}

// TruckAvailability records the earliest time a truck can accept a new shipment
type TruckAvailability struct {
	TruckID     string
	AvailableAt time.Time
}
