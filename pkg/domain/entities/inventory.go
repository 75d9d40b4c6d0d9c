package entities

import (
	"time"
)

// AdjustmentReason represents the business reason for an inventory adjustment
type AdjustmentReason int

const (
	ReasonReceive AdjustmentReason = iota
	ReasonSale
	ReasonShipmentLoad
	ReasonShipmentUnload
	ReasonReturn
	ReasonReturnDisposal
	ReasonDamage
	ReasonAdjustment
	ReasonLost
	ReasonStockoutCheck
)

// String method for AdjustmentReason enum
func (r AdjustmentReason) String() string {
	switch r {
	case ReasonReceive:
		return "RECEIVE"
	case ReasonSale:
		return "SALE"
	case ReasonShipmentLoad:
		return "SHIPMENT_LOAD"
	case ReasonShipmentUnload:
		return "SHIPMENT_UNLOAD"
	case ReasonReturn:
		return "RETURN"
	case ReasonReturnDisposal:
		return "RETURN_DISPOSAL"
	case ReasonDamage:
		return "DAMAGE"
	case ReasonAdjustment:
		return "ADJUSTMENT"
	case ReasonLost:
		return "LOST"
	case ReasonStockoutCheck:
		return "STOCKOUT_CHECK"
	default:
		return "Unknown"
	}
}

// IsDestructive reports whether an adjustment with this reason clamps the
// resulting balance at zero instead of applying the full delta.
func (r AdjustmentReason) IsDestructive() bool {
	return r == ReasonReturnDisposal || r == ReasonDamage
}

// AllowsNegative reports whether this reason may legitimately drive a balance
// below zero (acknowledged shrink).
func (r AdjustmentReason) AllowsNegative() bool {
	return r == ReasonAdjustment || r == ReasonLost
}

// InventoryTransaction is the record emitted for every ledger adjustment
type InventoryTransaction struct {
	ID         string
	NodeType   NodeType
	NodeID     NodeID
	ProductID  ProductID
	Delta      Quantity
	Reason     AdjustmentReason
	Balance    Quantity
	OccurredAt time.Time
}

// ReorderCandidate represents a (store, product) pair whose effective
// inventory has fallen to or below the product's reorder point
type ReorderCandidate struct {
	StoreID      NodeID
	ProductID    ProductID
	EffectiveQty Quantity
	TargetQty    Quantity
}
