package entities

import (
	"fmt"
	"time"
)

// ShipmentState represents the lifecycle state of a shipment
type ShipmentState int

const (
	ShipmentScheduled ShipmentState = iota
	ShipmentLoading
	ShipmentInTransit
	ShipmentArrived
	ShipmentUnloading
	ShipmentCompleted
)

// String method for ShipmentState enum
func (s ShipmentState) String() string {
	switch s {
	case ShipmentScheduled:
		return "SCHEDULED"
	case ShipmentLoading:
		return "LOADING"
	case ShipmentInTransit:
		return "IN_TRANSIT"
	case ShipmentArrived:
		return "ARRIVED"
	case ShipmentUnloading:
		return "UNLOADING"
	case ShipmentCompleted:
		return "COMPLETED"
	default:
		return "Unknown"
	}
}

// shipmentTransitions is the adjacency table of allowed forward transitions
var shipmentTransitions = map[ShipmentState]ShipmentState{
	ShipmentScheduled: ShipmentLoading,
	ShipmentLoading:   ShipmentInTransit,
	ShipmentInTransit: ShipmentArrived,
	ShipmentArrived:   ShipmentUnloading,
	ShipmentUnloading: ShipmentCompleted,
}

// Next returns the single allowed successor state, or false for COMPLETED
func (s ShipmentState) Next() (ShipmentState, bool) {
	next, ok := shipmentTransitions[s]
	return next, ok
}

// CanTransitionTo validates a transition against the adjacency table
func (s ShipmentState) CanTransitionTo(target ShipmentState) bool {
	next, ok := shipmentTransitions[s]
	return ok && next == target
}

// MaxDwell returns the maximum simulated time a shipment may remain in this
// state before timeout recovery force-completes it.
func (s ShipmentState) MaxDwell() time.Duration {
	switch s {
	case ShipmentScheduled:
		return 24 * time.Hour
	case ShipmentLoading:
		return 8 * time.Hour
	case ShipmentInTransit:
		return 48 * time.Hour
	case ShipmentArrived:
		return 4 * time.Hour
	case ShipmentUnloading:
		return 8 * time.Hour
	default:
		return 0
	}
}

// ShipmentLine represents one (product, quantity) entry on a shipment
type ShipmentLine struct {
	ProductID ProductID
	Quantity  Quantity
}

// Shipment represents a single truck load from a DC to a store
type Shipment struct {
	ID               string
	TruckID          string
	SourceDC         NodeID
	DestStore        NodeID
	DepartureTime    time.Time
	ETA              time.Time
	ETD              time.Time
	State            ShipmentState
	StateEnteredAt   time.Time
	Lines            []ShipmentLine
	TotalUnits       Quantity
	UnloadDuration   time.Duration
	TimeoutRecovered bool
}

// NewShipment creates a validated Shipment in the SCHEDULED state
func NewShipment(
	id, truckID string,
	sourceDC, destStore NodeID,
	departure, eta, etd time.Time,
	lines []ShipmentLine,
	unloadDuration time.Duration,
) (*Shipment, error) {
	if id == "" {
		return nil, fmt.Errorf("shipment id cannot be empty")
	}
	if sourceDC == "" {
		return nil, fmt.Errorf("source DC cannot be empty")
	}
	if destStore == "" {
		return nil, fmt.Errorf("destination store cannot be empty")
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("shipment must have at least one line")
	}

	var total Quantity
	for _, line := range lines {
		if line.Quantity < 0 {
			return nil, fmt.Errorf(
				"negative quantity %d for product %s",
				line.Quantity, line.ProductID,
			)
		}
		total += line.Quantity
	}

	return &Shipment{
		ID:             id,
		TruckID:        truckID,
		SourceDC:       sourceDC,
		DestStore:      destStore,
		DepartureTime:  departure,
		ETA:            eta,
		ETD:            etd,
		State:          ShipmentScheduled,
		StateEnteredAt: departure,
		Lines:          lines,
		TotalUnits:     total,
		UnloadDuration: unloadDuration,
	}, nil
}
