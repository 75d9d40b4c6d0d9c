package validation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/retailsim/retailsim/pkg/application/dto"
	"github.com/retailsim/retailsim/pkg/domain/entities"
)

// oneCent is the tolerance for receipt reconciliation
var oneCent = decimal.New(1, -2)

type balanceKey struct {
	nodeType  entities.NodeType
	nodeID    entities.NodeID
	productID entities.ProductID
}

// Validator runs post-hoc invariant checks over already-generated records.
// It accumulates errors and warnings and never mutates simulation state.
type Validator struct {
	openings map[balanceKey]entities.Quantity
	errors   []string
	warnings []string
}

// New creates an empty validator
func New() *Validator {
	return &Validator{
		openings: make(map[balanceKey]entities.Quantity),
	}
}

// SeedBalance records an opening balance for the transaction replay to start
// from. Opening stock never appears in the transaction stream, so without it
// every first sale would look like an oversell.
func (v *Validator) SeedBalance(nodeType entities.NodeType, nodeID entities.NodeID, productID entities.ProductID, qty entities.Quantity) {
	v.openings[balanceKey{nodeType, nodeID, productID}] = qty
}

// CheckReceipts verifies each receipt's line totals reconcile with its
// header subtotal within one cent.
func (v *Validator) CheckReceipts(receipts []*entities.Receipt) {
	for _, receipt := range receipts {
		lineTotal := decimal.Zero
		for _, line := range receipt.Lines {
			lineTotal = lineTotal.Add(line.LineTotal)
		}
		diff := receipt.Subtotal.Sub(lineTotal).Abs()
		if diff.GreaterThan(oneCent) {
			v.errors = append(v.errors, fmt.Sprintf(
				"receipt %s: subtotal %s does not reconcile with line total %s",
				receipt.ID, receipt.Subtotal, lineTotal,
			))
		}
	}
}

// CheckInventoryTransactions replays transactions per (node, product),
// starting from the seeded opening balances, and flags any non-adjustment
// transaction that drives the balance below zero.
func (v *Validator) CheckInventoryTransactions(txns []*entities.InventoryTransaction) {
	balances := make(map[balanceKey]entities.Quantity, len(v.openings))
	for k, qty := range v.openings {
		balances[k] = qty
	}

	for _, txn := range txns {
		k := balanceKey{txn.NodeType, txn.NodeID, txn.ProductID}
		balance := balances[k] + txn.Delta
		if balance < 0 && !txn.Reason.AllowsNegative() {
			v.errors = append(v.errors, fmt.Sprintf(
				"transaction %s: %s %s/%s driven to %d by %s",
				txn.ID, txn.NodeType, txn.NodeID, txn.ProductID, balance, txn.Reason,
			))
		}
		if balance < 0 && txn.Reason.IsDestructive() {
			balance = 0
		}
		balances[k] = balance
	}
}

// CheckShipmentTiming verifies a truck's estimated departure-after-unload
// never precedes its estimated arrival.
func (v *Validator) CheckShipmentTiming(shipments []*entities.Shipment) {
	for _, shipment := range shipments {
		if shipment.ETD.Before(shipment.ETA) {
			v.errors = append(v.errors, fmt.Sprintf(
				"shipment %s: ETD %s precedes ETA %s",
				shipment.ID, shipment.ETD, shipment.ETA,
			))
		}
		if shipment.TimeoutRecovered {
			v.warnings = append(v.warnings, fmt.Sprintf(
				"shipment %s: completed via timeout recovery", shipment.ID,
			))
		}
	}
}

// Warn records an advisory finding from a caller
func (v *Validator) Warn(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

// Summary returns the accumulated pass/fail result. Validation results are
// advisory: a failed summary does not abort a completed run.
func (v *Validator) Summary() *dto.ValidationSummary {
	return &dto.ValidationSummary{
		Passed:       len(v.errors) == 0,
		ErrorCount:   len(v.errors),
		WarningCount: len(v.warnings),
		Errors:       append([]string(nil), v.errors...),
		Warnings:     append([]string(nil), v.warnings...),
	}
}
