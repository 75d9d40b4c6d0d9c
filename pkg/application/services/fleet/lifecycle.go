package fleet

import (
	"time"

	"github.com/retailsim/retailsim/pkg/domain/entities"
)

// AdvanceResult reports the outcome of one lifecycle evaluation for one
// shipment.
type AdvanceResult struct {
	ShipmentID   string
	From         entities.ShipmentState
	To           entities.ShipmentState
	Advanced     bool
	Completed    bool
	TimedOut     bool
	Transactions []*entities.InventoryTransaction
}

// Advance evaluates one shipment against the current simulation time and
// moves it at most one state toward the state its milestones imply, applying
// the inventory side effects of the state it enters. Shipments stuck past
// their per-state dwell timeout are force-completed instead of advancing.
// The bool result is false when the id is not in the active registry, which
// is an expected condition after completion.
func (f *Fleet) Advance(shipmentID string, now time.Time) (*AdvanceResult, bool) {
	entry, ok := f.active[shipmentID]
	if !ok {
		return nil, false
	}
	return f.advance(entry, now), true
}

// AdvanceAll evaluates every active shipment in chronological departure
// order, returning the inventory transactions generated this step.
func (f *Fleet) AdvanceAll(now time.Time) []*AdvanceResult {
	var results []*AdvanceResult
	for _, entry := range f.activeByDeparture() {
		result := f.advance(entry, now)
		if result.Advanced || result.TimedOut {
			results = append(results, result)
		}
	}
	return results
}

func (f *Fleet) advance(entry *activeShipment, now time.Time) *AdvanceResult {
	s := entry.shipment
	result := &AdvanceResult{
		ShipmentID: s.ID,
		From:       s.State,
		To:         s.State,
	}

	// Timeout recovery keeps pathological timings from deadlocking the run
	if dwell := s.State.MaxDwell(); dwell > 0 && now.Sub(s.StateEnteredAt) > dwell {
		f.logFn("fleet: shipment %s stuck in %s for %s, force-completing",
			s.ID, s.State, now.Sub(s.StateEnteredAt))
		f.forceComplete(entry, now, result)
		return result
	}

	target := targetStateAt(s, now)
	if target <= s.State {
		return result
	}

	next, ok := s.State.Next()
	if !ok || !s.State.CanTransitionTo(next) {
		// Blocked rather than corrupted: the shipment simply does not
		// advance this tick.
		f.logFn("fleet: invalid transition %s -> %s for shipment %s, blocked", s.State, next, s.ID)
		return result
	}

	result.Transactions = f.enterState(entry, next, now)
	s.State = next
	s.StateEnteredAt = now
	result.To = next
	result.Advanced = true

	if next == entities.ShipmentCompleted {
		result.Completed = true
		delete(f.active, s.ID)
	}
	return result
}

// targetStateAt computes the state the shipment's milestones imply at the
// given simulation time. Advancement still moves one step per call.
func targetStateAt(s *entities.Shipment, now time.Time) entities.ShipmentState {
	switch {
	case now.Before(s.DepartureTime):
		return entities.ShipmentScheduled
	case now.Before(s.ETA):
		return entities.ShipmentInTransit
	case now.Before(s.ETD):
		return entities.ShipmentUnloading
	default:
		return entities.ShipmentCompleted
	}
}

// enterState applies the inventory side effects of entering a state
func (f *Fleet) enterState(entry *activeShipment, state entities.ShipmentState, now time.Time) []*entities.InventoryTransaction {
	switch state {
	case entities.ShipmentLoading:
		return f.generateOutbound(entry, now)
	case entities.ShipmentArrived, entities.ShipmentUnloading:
		// Defensively on ARRIVED as well as UNLOADING; the flag keeps it
		// from applying twice.
		return f.generateInbound(entry, now)
	default:
		return nil
	}
}

// forceComplete flushes any outstanding inventory effects so no units are
// lost, marks the shipment timeout-recovered, and removes it from the
// registry.
func (f *Fleet) forceComplete(entry *activeShipment, now time.Time, result *AdvanceResult) {
	result.Transactions = append(result.Transactions, f.generateOutbound(entry, now)...)
	result.Transactions = append(result.Transactions, f.generateInbound(entry, now)...)

	s := entry.shipment
	s.State = entities.ShipmentCompleted
	s.StateEnteredAt = now
	s.TimeoutRecovered = true
	result.To = entities.ShipmentCompleted
	result.Completed = true
	result.TimedOut = true
	delete(f.active, s.ID)
}

// generateOutbound decrements DC stock for the load
func (f *Fleet) generateOutbound(entry *activeShipment, now time.Time) []*entities.InventoryTransaction {
	if entry.outboundDone {
		return nil
	}
	entry.outboundDone = true

	s := entry.shipment
	txns := make([]*entities.InventoryTransaction, 0, len(s.Lines))
	for _, line := range s.Lines {
		_, txn := f.ledger.Adjust(
			entities.NodeDC, s.SourceDC, line.ProductID,
			-line.Quantity, entities.ReasonShipmentLoad, now,
		)
		txns = append(txns, txn)
	}
	return txns
}

// generateInbound increments store stock for the load and releases the
// matching in-transit quantities.
func (f *Fleet) generateInbound(entry *activeShipment, now time.Time) []*entities.InventoryTransaction {
	if entry.inboundDone {
		return nil
	}
	entry.inboundDone = true

	s := entry.shipment
	txns := make([]*entities.InventoryTransaction, 0, len(s.Lines))
	for _, line := range s.Lines {
		_, txn := f.ledger.Adjust(
			entities.NodeStore, s.DestStore, line.ProductID,
			line.Quantity, entities.ReasonShipmentUnload, now,
		)
		f.ledger.ReduceInTransit(s.DestStore, line.ProductID, line.Quantity)
		txns = append(txns, txn)
	}
	return txns
}
