package orchestration

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/retailsim/retailsim/pkg/domain/entities"
	"github.com/retailsim/retailsim/pkg/domain/repositories"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// rowFromRecord converts a typed record to the sink's generic row format.
// Typed records exist everywhere else; rows only at this boundary.
func rowFromRecord(record any) (repositories.Row, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var row repositories.Row
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, err
	}
	return row, nil
}

// write issues one table-homogeneous batch and tallies inserted records
func (o *Orchestrator) write(ctx context.Context, table string, rows []repositories.Row) error {
	if len(rows) == 0 {
		return nil
	}
	inserted, err := o.sink.WriteBatch(ctx, table, rows)
	if err != nil {
		return err
	}
	o.counts[table] += inserted
	return nil
}

// receiptHeader is the receipts-table projection of a receipt record
type receiptHeader struct {
	ID         string
	StoreID    entities.NodeID
	CustomerID string
	IssuedAt   time.Time
	Subtotal   decimal.Decimal
}

// persistReceipts writes receipt headers before their dependent lines. When
// a header batch fails, the dependent line rows are skipped rather than
// orphaned, and the run continues.
func (o *Orchestrator) persistReceipts(ctx context.Context, receipts []*entities.Receipt) {
	if len(receipts) == 0 {
		return
	}

	headerRows := make([]repositories.Row, 0, len(receipts))
	var lineRows []repositories.Row
	for _, receipt := range receipts {
		headerRow, err := rowFromRecord(receiptHeader{
			ID:         receipt.ID,
			StoreID:    receipt.StoreID,
			CustomerID: receipt.CustomerID,
			IssuedAt:   receipt.IssuedAt,
			Subtotal:   receipt.Subtotal,
		})
		if err != nil {
			o.degrade("encode receipt %s: %v", receipt.ID, err)
			continue
		}
		headerRows = append(headerRows, headerRow)

		for i := range receipt.Lines {
			lineRow, err := rowFromRecord(receipt.Lines[i])
			if err != nil {
				o.degrade("encode receipt line %s/%s: %v", receipt.ID, receipt.Lines[i].ProductID, err)
				continue
			}
			lineRows = append(lineRows, lineRow)
		}
	}

	if err := o.write(ctx, TableReceipts, headerRows); err != nil {
		o.degrade("write receipts: %v (skipping %d dependent lines)", err, len(lineRows))
		return
	}
	if err := o.write(ctx, TableReceiptLines, lineRows); err != nil {
		o.degrade("write receipt lines: %v", err)
	}
}

// writeTxns writes inventory transactions, returning the sink error for
// callers with their own skip semantics.
func (o *Orchestrator) writeTxns(ctx context.Context, txns []*entities.InventoryTransaction) error {
	rows := make([]repositories.Row, 0, len(txns))
	for _, txn := range txns {
		row, err := rowFromRecord(txn)
		if err != nil {
			o.degrade("encode transaction %s: %v", txn.ID, err)
			continue
		}
		rows = append(rows, row)
	}
	return o.write(ctx, TableInventoryTxns, rows)
}

func (o *Orchestrator) persistTxns(ctx context.Context, txns []*entities.InventoryTransaction) {
	if len(txns) == 0 {
		return
	}
	if err := o.writeTxns(ctx, txns); err != nil {
		o.degrade("write inventory transactions: %v", err)
	}
}

func (o *Orchestrator) persistShipments(ctx context.Context, shipments []*entities.Shipment) {
	if len(shipments) == 0 {
		return
	}
	rows := make([]repositories.Row, 0, len(shipments))
	for _, shipment := range shipments {
		row, err := rowFromRecord(shipment)
		if err != nil {
			o.degrade("encode shipment %s: %v", shipment.ID, err)
			continue
		}
		rows = append(rows, row)
	}
	if err := o.write(ctx, TableShipments, rows); err != nil {
		o.degrade("write shipments: %v", err)
	}
}

func (o *Orchestrator) persistDisruptionEvents(ctx context.Context, events []*entities.DisruptionEvent) {
	if len(events) == 0 {
		return
	}
	rows := make([]repositories.Row, 0, len(events))
	for _, event := range events {
		row, err := rowFromRecord(event)
		if err != nil {
			o.degrade("encode disruption event %s: %v", event.ID, err)
			continue
		}
		rows = append(rows, row)
	}
	if err := o.write(ctx, TableDisruptionEvents, rows); err != nil {
		o.degrade("write disruption events: %v", err)
	}
}
