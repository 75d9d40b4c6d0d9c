package orchestration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/retailsim/retailsim/pkg/application/services/fleet"
	"github.com/retailsim/retailsim/pkg/domain/entities"
)

// runDay generates one calendar day: 24 hourly passes followed by the daily
// sections. Section failures degrade the run rather than aborting it.
func (o *Orchestrator) runDay(ctx context.Context, day time.Time, dayIdx, totalDays int) {
	for hour := 0; hour < 24; hour++ {
		hourStart := day.Add(time.Duration(hour) * time.Hour)

		// Store activity first: the sections below read the transactions
		// and balances it produces.
		o.runStoreActivity(ctx, hourStart, dayIdx, hour, totalDays)
		o.runTruckMovement(ctx, hourStart, dayIdx, hour, totalDays)
		o.runOnlineOrders(ctx, hourStart, dayIdx, hour, totalDays)
		o.runStockoutChecks(hourStart)
	}

	o.runDailySections(ctx, day, dayIdx, totalDays)
}

// runStoreActivity asks the basket collaborator for each store's receipts
// this hour and absorbs the resulting sales into the ledger.
func (o *Orchestrator) runStoreActivity(ctx context.Context, hourStart time.Time, dayIdx, hour, totalDays int) {
	var receipts []*entities.Receipt
	var txns []*entities.InventoryTransaction

	for _, store := range o.stores {
		generated, err := o.baskets.GenerateStoreHour(ctx, store, hourStart)
		if err != nil {
			o.degrade("store activity %s %s: %v", store.ID, hourStart.Format("2006-01-02T15"), err)
			continue
		}
		for _, receipt := range generated {
			receipts = append(receipts, receipt)
			for _, line := range receipt.Lines {
				// Demand beyond on-hand stock is a lost sale; the shelf
				// cannot go negative.
				sell := line.Quantity
				if available := o.ledger.Balance(entities.NodeStore, store.ID, line.ProductID); sell > available {
					sell = available
				}
				if sell <= 0 {
					continue
				}
				_, txn := o.ledger.Adjust(
					entities.NodeStore, store.ID, line.ProductID,
					-sell, entities.ReasonSale, receipt.IssuedAt,
				)
				txns = append(txns, txn)
				o.soldToday[saleKey{store.ID, line.ProductID}] += sell
			}
		}
	}

	o.persistReceipts(ctx, receipts)
	o.persistTxns(ctx, txns)
	o.allReceipts = append(o.allReceipts, receipts...)
	o.allTxns = append(o.allTxns, txns...)

	o.tracker.Update(TableReceipts, dayIdx, hour, totalDays)
	o.tracker.Update(TableReceiptLines, dayIdx, hour, totalDays)
	o.tracker.Update(TableInventoryTxns, dayIdx, hour, totalDays)
}

// runTruckMovement advances every active shipment one lifecycle evaluation
// at this hour, in chronological departure order.
func (o *Orchestrator) runTruckMovement(ctx context.Context, hourStart time.Time, dayIdx, hour, totalDays int) {
	results := o.fleet.AdvanceAll(hourStart)

	var txns []*entities.InventoryTransaction
	for _, result := range results {
		txns = append(txns, result.Transactions...)
	}
	o.persistTxns(ctx, txns)
	o.allTxns = append(o.allTxns, txns...)

	o.tracker.Update(TableShipments, dayIdx, hour, totalDays)
}

// runOnlineOrders generates a light stream of online sales against store
// inventory, reusing the balances store activity just produced.
func (o *Orchestrator) runOnlineOrders(ctx context.Context, hourStart time.Time, dayIdx, hour, totalDays int) {
	var txns []*entities.InventoryTransaction

	for _, store := range o.stores {
		if o.rng.Float64() > 0.25 {
			continue
		}
		product := o.products[o.rng.Intn(len(o.products))]
		available := o.ledger.Balance(entities.NodeStore, store.ID, product.ID)
		if available <= 0 {
			continue
		}
		qty := entities.Quantity(1 + o.rng.Intn(3))
		if qty > available {
			qty = available
		}
		_, txn := o.ledger.Adjust(
			entities.NodeStore, store.ID, product.ID,
			-qty, entities.ReasonSale, hourStart,
		)
		txns = append(txns, txn)
		o.soldToday[saleKey{store.ID, product.ID}] += qty
	}

	o.persistTxns(ctx, txns)
	o.allTxns = append(o.allTxns, txns...)
}

// runStockoutChecks surveys store balances after the hour's sales; advisory
func (o *Orchestrator) runStockoutChecks(hourStart time.Time) {
	stockouts := 0
	for _, store := range o.stores {
		for _, product := range o.products {
			if o.ledger.Balance(entities.NodeStore, store.ID, product.ID) <= 0 {
				stockouts++
			}
		}
	}
	if stockouts > 0 {
		o.logFn("orchestrator: %d store/product stockouts at %s", stockouts, hourStart.Format("2006-01-02T15"))
	}
}

// runDailySections runs the once-per-day passes after all 24 hours
func (o *Orchestrator) runDailySections(ctx context.Context, day time.Time, dayIdx, totalDays int) {
	o.runDisruptionTick(ctx, day, dayIdx, totalDays)
	o.runDCReceiving(ctx, day)
	o.runReplenishment(ctx, day)
	o.runReturns(ctx, day)
}

// runDisruptionTick evolves the disruption set and persists its events
func (o *Orchestrator) runDisruptionTick(ctx context.Context, day time.Time, dayIdx, totalDays int) {
	events := o.disruptions.DailyTick(day, o.dcs, o.products)
	o.persistDisruptionEvents(ctx, events)

	// Daily-batch table: its whole day completes in one shot
	for hour := 0; hour < 24; hour++ {
		o.tracker.Update(TableDisruptionEvents, dayIdx, hour, totalDays)
	}
}

// runDCReceiving absorbs inbound supplier volume into each DC, scaled by
// the DC's disruption-adjusted capacity.
func (o *Orchestrator) runDCReceiving(ctx context.Context, day time.Time) {
	var txns []*entities.InventoryTransaction

	for _, dc := range o.dcs {
		multiplier := o.disruptions.CapacityMultiplier(dc.ID, day)
		for _, product := range o.products {
			qty := entities.Quantity(float64(o.cfg.DailyReceivingUnits) * multiplier)
			if qty <= 0 {
				continue
			}
			_, txn := o.ledger.Adjust(
				entities.NodeDC, dc.ID, product.ID,
				qty, entities.ReasonReceive, day,
			)
			txns = append(txns, txn)
		}
	}

	o.persistTxns(ctx, txns)
	o.allTxns = append(o.allTxns, txns...)
}

// runReplenishment evaluates reorder needs and turns them into shipments,
// splitting across trucks where an order exceeds capacity.
func (o *Orchestrator) runReplenishment(ctx context.Context, day time.Time) {
	candidates := o.ledger.ReorderCandidates(o.stores, o.products)
	if len(candidates) == 0 {
		return
	}

	// One request per store, all of its short products as lines
	linesByStore := make(map[entities.NodeID][]entities.ShipmentLine)
	var storeOrder []entities.NodeID
	for _, candidate := range candidates {
		needed := candidate.TargetQty - candidate.EffectiveQty
		if needed <= 0 {
			continue
		}
		if _, seen := linesByStore[candidate.StoreID]; !seen {
			storeOrder = append(storeOrder, candidate.StoreID)
		}
		linesByStore[candidate.StoreID] = append(linesByStore[candidate.StoreID], entities.ShipmentLine{
			ProductID: candidate.ProductID,
			Quantity:  needed,
		})
	}

	// Trucks roll out the following morning
	departure := day.Add(30 * time.Hour)

	for _, storeID := range storeOrder {
		dcID, ok := o.storeDC[storeID]
		if !ok {
			o.degrade("replenishment %s: no distribution center assigned", storeID)
			continue
		}

		req := fleet.ShipmentRequest{
			SourceDC:           dcID,
			DestStore:          storeID,
			Departure:          departure,
			Lines:              linesByStore[storeID],
			CapacityMultiplier: o.disruptions.CapacityMultiplier(dcID, day),
		}

		shipments, err := o.fleet.CreateShipments(req)
		if errors.Is(err, fleet.ErrNoTruckAvailable) {
			// Re-issue only the unshipped remainder when the first truck
			// comes back; the loads already dispatched stay dispatched.
			remainder := unshippedLines(req.Lines, shipments)
			if returnAt, found := o.fleet.EarliestReturn(); found && len(remainder) > 0 {
				retry := req
				retry.Departure = returnAt
				retry.Lines = remainder
				var more []*entities.Shipment
				more, err = o.fleet.CreateShipments(retry)
				shipments = append(shipments, more...)
			}
		}
		if err != nil {
			o.degrade("replenishment %s -> %s: %v", dcID, storeID, err)
		}

		o.persistShipments(ctx, shipments)
		o.allShipments = append(o.allShipments, shipments...)
	}
}

// unshippedLines subtracts the quantities already carried by shipments from
// the requested lines, returning what still needs a truck.
func unshippedLines(requested []entities.ShipmentLine, shipments []*entities.Shipment) []entities.ShipmentLine {
	shipped := make(map[entities.ProductID]entities.Quantity)
	for _, shipment := range shipments {
		for _, line := range shipment.Lines {
			shipped[line.ProductID] += line.Quantity
		}
	}

	var remainder []entities.ShipmentLine
	for _, line := range requested {
		qty := line.Quantity
		if done := shipped[line.ProductID]; done > 0 {
			if done >= qty {
				shipped[line.ProductID] = done - qty
				continue
			}
			qty -= done
			shipped[line.ProductID] = 0
		}
		remainder = append(remainder, entities.ShipmentLine{ProductID: line.ProductID, Quantity: qty})
	}
	return remainder
}

// runReturns converts a fraction of the day's sold units back into store
// stock. A failure here skips this day's returns only.
func (o *Orchestrator) runReturns(ctx context.Context, day time.Time) {
	sold := o.soldToday
	o.soldToday = make(map[saleKey]entities.Quantity)

	if o.cfg.ReturnRate <= 0 {
		return
	}

	var txns []*entities.InventoryTransaction
	for key, qty := range sold {
		returned := entities.Quantity(float64(qty) * o.cfg.ReturnRate)
		if returned <= 0 {
			continue
		}
		at := day.Add(23 * time.Hour)
		_, txn := o.ledger.Adjust(
			entities.NodeStore, key.storeID, key.productID,
			returned, entities.ReasonReturn, at,
		)
		txns = append(txns, txn)

		// Roughly a fifth of returns come back unsellable
		if disposed := returned / 5; disposed > 0 {
			_, disposal := o.ledger.Adjust(
				entities.NodeStore, key.storeID, key.productID,
				-disposed, entities.ReasonReturnDisposal, at,
			)
			txns = append(txns, disposal)
		}
	}

	if err := o.writeTxns(ctx, txns); err != nil {
		// Undo the ledger movements so balances stay in step with the
		// persisted transaction stream.
		for i := len(txns) - 1; i >= 0; i-- {
			txn := txns[i]
			o.ledger.Adjust(txn.NodeType, txn.NodeID, txn.ProductID, -txn.Delta, txn.Reason, txn.OccurredAt)
		}
		o.logFn("orchestrator: returns for %s skipped: %v", day.Format("2006-01-02"), err)
		return
	}
	o.allTxns = append(o.allTxns, txns...)
}

// degrade records a recoverable section failure and logs it with context
func (o *Orchestrator) degrade(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	o.logFn("orchestrator: %s", msg)
	o.degraded = append(o.degraded, msg)
}
