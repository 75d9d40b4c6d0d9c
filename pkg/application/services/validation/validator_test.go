package validation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retailsim/retailsim/pkg/domain/entities"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("Expected valid decimal %q: %v", s, err)
	}
	return d
}

func TestCheckReceipts(t *testing.T) {
	testCases := []struct {
		name       string
		subtotal   string
		lineTotals []string
		wantErrors int
	}{
		{"exact reconciliation", "10.00", []string{"6.00", "4.00"}, 0},
		{"within one cent", "10.00", []string{"6.00", "4.01"}, 0},
		{"off by two cents", "10.00", []string{"6.00", "4.02"}, 1},
		{"grossly off", "10.00", []string{"1.00"}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lines := make([]entities.ReceiptLine, 0, len(tc.lineTotals))
			for _, total := range tc.lineTotals {
				lines = append(lines, entities.ReceiptLine{
					ProductID: "SKU-A",
					Quantity:  1,
					LineTotal: mustDecimal(t, total),
				})
			}
			receipt := &entities.Receipt{
				ID:       "R1",
				StoreID:  "ST1",
				Subtotal: mustDecimal(t, tc.subtotal),
				Lines:    lines,
			}

			v := New()
			v.CheckReceipts([]*entities.Receipt{receipt})
			summary := v.Summary()
			if summary.ErrorCount != tc.wantErrors {
				t.Errorf("Expected %d errors, got %d: %v", tc.wantErrors, summary.ErrorCount, summary.Errors)
			}
		})
	}
}

func TestCheckInventoryTransactions(t *testing.T) {
	at := time.Now()

	txn := func(delta entities.Quantity, reason entities.AdjustmentReason) *entities.InventoryTransaction {
		return &entities.InventoryTransaction{
			ID:         "T",
			NodeType:   entities.NodeStore,
			NodeID:     "ST1",
			ProductID:  "SKU-A",
			Delta:      delta,
			Reason:     reason,
			OccurredAt: at,
		}
	}

	testCases := []struct {
		name       string
		txns       []*entities.InventoryTransaction
		wantErrors int
	}{
		{
			"balanced history",
			[]*entities.InventoryTransaction{
				txn(100, entities.ReasonReceive),
				txn(-60, entities.ReasonSale),
				txn(-40, entities.ReasonSale),
			},
			0,
		},
		{
			"sale oversells",
			[]*entities.InventoryTransaction{
				txn(10, entities.ReasonReceive),
				txn(-15, entities.ReasonSale),
			},
			1,
		},
		{
			"adjustment may go negative",
			[]*entities.InventoryTransaction{
				txn(10, entities.ReasonReceive),
				txn(-15, entities.ReasonAdjustment),
			},
			0,
		},
		{
			"destructive clamp does not cascade",
			[]*entities.InventoryTransaction{
				txn(10, entities.ReasonReceive),
				txn(-15, entities.ReasonDamage),
				txn(5, entities.ReasonReceive),
				txn(-4, entities.ReasonSale),
			},
			1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := New()
			v.CheckInventoryTransactions(tc.txns)
			summary := v.Summary()
			if summary.ErrorCount != tc.wantErrors {
				t.Errorf("Expected %d errors, got %d: %v", tc.wantErrors, summary.ErrorCount, summary.Errors)
			}
		})
	}
}

func TestCheckInventoryTransactionsStartsFromOpeningBalances(t *testing.T) {
	at := time.Now()
	sale := &entities.InventoryTransaction{
		ID:         "T1",
		NodeType:   entities.NodeStore,
		NodeID:     "ST1",
		ProductID:  "SKU-A",
		Delta:      -150,
		Reason:     entities.ReasonSale,
		OccurredAt: at,
	}

	// Selling from seeded opening stock is legitimate
	v := New()
	v.SeedBalance(entities.NodeStore, "ST1", "SKU-A", 200)
	v.CheckInventoryTransactions([]*entities.InventoryTransaction{sale})
	if summary := v.Summary(); summary.ErrorCount != 0 {
		t.Errorf("Expected no errors selling from opening stock, got %v", summary.Errors)
	}

	// The same sale without the opening balance really is an oversell
	v = New()
	v.CheckInventoryTransactions([]*entities.InventoryTransaction{sale})
	if summary := v.Summary(); summary.ErrorCount != 1 {
		t.Errorf("Expected 1 error without opening stock, got %d: %v", summary.ErrorCount, summary.Errors)
	}

	// Openings apply per (node, product): another store is unaffected
	v = New()
	v.SeedBalance(entities.NodeStore, "ST2", "SKU-A", 200)
	v.CheckInventoryTransactions([]*entities.InventoryTransaction{sale})
	if summary := v.Summary(); summary.ErrorCount != 1 {
		t.Errorf("Expected 1 error with only another store seeded, got %d: %v", summary.ErrorCount, summary.Errors)
	}
}

func TestCheckShipmentTiming(t *testing.T) {
	departure := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

	valid := &entities.Shipment{
		ID:  "S1",
		ETA: departure.Add(2 * time.Hour),
		ETD: departure.Add(3 * time.Hour),
	}
	inverted := &entities.Shipment{
		ID:  "S2",
		ETA: departure.Add(3 * time.Hour),
		ETD: departure.Add(2 * time.Hour),
	}
	recovered := &entities.Shipment{
		ID:               "S3",
		ETA:              departure.Add(2 * time.Hour),
		ETD:              departure.Add(3 * time.Hour),
		TimeoutRecovered: true,
	}

	v := New()
	v.CheckShipmentTiming([]*entities.Shipment{valid, inverted, recovered})
	summary := v.Summary()

	if summary.ErrorCount != 1 {
		t.Errorf("Expected 1 timing error, got %d: %v", summary.ErrorCount, summary.Errors)
	}
	if summary.WarningCount != 1 {
		t.Errorf("Expected 1 timeout-recovery warning, got %d: %v", summary.WarningCount, summary.Warnings)
	}
	if summary.Passed {
		t.Error("Expected summary to fail with a timing error present")
	}
}

func TestSummaryPassesWhenOnlyWarnings(t *testing.T) {
	v := New()
	v.Warn("advisory: %d stockouts observed", 3)

	summary := v.Summary()
	if !summary.Passed {
		t.Error("Expected warnings alone to leave the summary passing")
	}
	if summary.WarningCount != 1 {
		t.Errorf("Expected 1 warning, got %d", summary.WarningCount)
	}
}
