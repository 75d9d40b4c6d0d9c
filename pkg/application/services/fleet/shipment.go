package fleet

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/retailsim/retailsim/pkg/domain/entities"
)

// ShipmentRequest describes an order to move product from a DC to a store.
// CapacityMultiplier carries the source DC's disruption-adjusted throughput
// factor (1.0 when undisrupted).
type ShipmentRequest struct {
	SourceDC           entities.NodeID
	DestStore          entities.NodeID
	Departure          time.Time
	Lines              []entities.ShipmentLine
	CapacityMultiplier float64
}

func (r *ShipmentRequest) totalUnits() (entities.Quantity, error) {
	var total entities.Quantity
	for _, line := range r.Lines {
		if line.Quantity < 0 {
			return 0, fmt.Errorf(
				"negative quantity %d requested for product %s",
				line.Quantity, line.ProductID,
			)
		}
		total += line.Quantity
	}
	return total, nil
}

// CreateShipment creates a single truck load for the request. Requests whose
// total exceeds truck capacity are truncated to capacity with a warning; use
// CreateShipments to split large orders across trucks instead.
func (f *Fleet) CreateShipment(req ShipmentRequest) (*entities.Shipment, error) {
	total, err := req.totalUnits()
	if err != nil {
		return nil, err
	}

	lines := req.Lines
	if total > f.cfg.TruckCapacity {
		lines, total = truncateToCapacity(lines, f.cfg.TruckCapacity)
		f.logFn("fleet: request %s -> %s exceeds truck capacity, truncated to %d units",
			req.SourceDC, req.DestStore, total)
	}

	return f.dispatch(req, lines, total, req.Departure)
}

// CreateShipments splits the request into successive truck loads with
// staggered departures so large reorders are never silently dropped. The sum
// of quantities across the resulting shipments equals the requested total.
func (f *Fleet) CreateShipments(req ShipmentRequest) ([]*entities.Shipment, error) {
	if _, err := req.totalUnits(); err != nil {
		return nil, err
	}

	var shipments []*entities.Shipment
	remaining := req.Lines
	departure := req.Departure

	for len(remaining) > 0 {
		load, rest := takeTruckLoad(remaining, f.cfg.TruckCapacity)
		if len(load) == 0 {
			break
		}
		var total entities.Quantity
		for _, line := range load {
			total += line.Quantity
		}

		shipment, err := f.dispatch(req, load, total, departure)
		if err != nil {
			return shipments, err
		}
		shipments = append(shipments, shipment)

		remaining = rest
		departure = departure.Add(f.cfg.SplitDepartureOffset)
	}

	return shipments, nil
}

// dispatch selects a truck, computes timings, registers the shipment, and
// reflects the load into the destination store's in-transit quantities.
func (f *Fleet) dispatch(
	req ShipmentRequest,
	lines []entities.ShipmentLine,
	total entities.Quantity,
	departure time.Time,
) (*entities.Shipment, error) {
	truckID, err := f.selectTruck(req.SourceDC, departure)
	if err != nil {
		return nil, fmt.Errorf("dispatch %s -> %s: %w", req.SourceDC, req.DestStore, err)
	}

	travel := f.travelTime(req.CapacityMultiplier)
	unload := f.unloadDuration(total)
	eta := departure.Add(travel)
	etd := eta.Add(unload)

	shipment, err := entities.NewShipment(
		uuid.NewString(),
		truckID,
		req.SourceDC,
		req.DestStore,
		departure,
		eta,
		etd,
		lines,
		unload,
	)
	if err != nil {
		return nil, fmt.Errorf("create shipment %s -> %s: %w", req.SourceDC, req.DestStore, err)
	}

	// Truck is busy until it completes the round trip back to its DC
	if !isSynthetic(truckID) {
		f.availability[truckID] = etd.Add(travel)
	}

	for _, line := range lines {
		f.ledger.AddInTransit(req.DestStore, line.ProductID, line.Quantity)
	}

	f.active[shipment.ID] = &activeShipment{shipment: shipment}
	return shipment, nil
}

// travelTime draws a base one-way duration and scales it by the disruption
// factor: full-severity disruptions roughly double the delay.
func (f *Fleet) travelTime(capacityMultiplier float64) time.Duration {
	if capacityMultiplier <= 0 || capacityMultiplier > 1 {
		capacityMultiplier = 1.0
	}
	span := f.cfg.TravelTimeMax - f.cfg.TravelTimeMin
	base := f.cfg.TravelTimeMin
	if span > 0 {
		base += time.Duration(f.rng.Int63n(int64(span)))
	}
	return time.Duration(float64(base) * (2.0 - capacityMultiplier))
}

// unloadDuration scales with the load's fraction of truck capacity
func (f *Fleet) unloadDuration(total entities.Quantity) time.Duration {
	fraction := float64(total) / float64(f.cfg.TruckCapacity)
	if fraction > 1 {
		fraction = 1
	}
	span := f.cfg.UnloadTimeMax - f.cfg.UnloadTimeMin
	return f.cfg.UnloadTimeMin + time.Duration(float64(span)*fraction)
}

// truncateToCapacity shrinks lines in order until the total fits one truck
func truncateToCapacity(lines []entities.ShipmentLine, capacity entities.Quantity) ([]entities.ShipmentLine, entities.Quantity) {
	var kept []entities.ShipmentLine
	var total entities.Quantity
	for _, line := range lines {
		if total >= capacity {
			break
		}
		qty := line.Quantity
		if total+qty > capacity {
			qty = capacity - total
		}
		if qty > 0 {
			kept = append(kept, entities.ShipmentLine{ProductID: line.ProductID, Quantity: qty})
			total += qty
		}
	}
	return kept, total
}

// takeTruckLoad removes up to one truck's worth of units from the front of
// lines, returning the load and whatever remains.
func takeTruckLoad(lines []entities.ShipmentLine, capacity entities.Quantity) (load, rest []entities.ShipmentLine) {
	var total entities.Quantity
	for i, line := range lines {
		if total >= capacity {
			rest = append(rest, lines[i:]...)
			break
		}
		qty := line.Quantity
		if total+qty > capacity {
			qty = capacity - total
		}
		if qty > 0 {
			load = append(load, entities.ShipmentLine{ProductID: line.ProductID, Quantity: qty})
			total += qty
		}
		if leftover := line.Quantity - qty; leftover > 0 {
			rest = append(rest, entities.ShipmentLine{ProductID: line.ProductID, Quantity: leftover})
		}
	}
	return load, rest
}

func isSynthetic(truckID string) bool {
	return len(truckID) > 10 && truckID[:10] == "TRUCK-SYN-"
}
