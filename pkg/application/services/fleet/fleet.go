package fleet

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"

	"github.com/retailsim/retailsim/pkg/domain/entities"
)

// LogFunc is the logging callback used by the fleet
type LogFunc func(format string, args ...any)

// ErrNoTruckAvailable is returned when every real truck is busy at the
// requested departure time. Callers may query EarliestReturn and re-issue
// the shipment request at that time.
var ErrNoTruckAvailable = errors.New("no truck available")

// InventoryAdjuster is the narrow ledger surface the fleet mutates as
// shipments move through their lifecycle.
type InventoryAdjuster interface {
	Adjust(
		nodeType entities.NodeType,
		nodeID entities.NodeID,
		productID entities.ProductID,
		delta entities.Quantity,
		reason entities.AdjustmentReason,
		at time.Time,
	) (entities.Quantity, *entities.InventoryTransaction)
	AddInTransit(storeID entities.NodeID, productID entities.ProductID, qty entities.Quantity)
	ReduceInTransit(storeID entities.NodeID, productID entities.ProductID, qty entities.Quantity)
}

// Config holds fleet and shipment timing tuning
type Config struct {
	// TruckCapacity is the maximum units a single truck load carries.
	TruckCapacity entities.Quantity
	// TravelTimeMin/Max bound the base one-way travel time before disruption
	// scaling is applied.
	TravelTimeMin time.Duration
	TravelTimeMax time.Duration
	// UnloadTimeMin/Max bound unload duration; actual duration scales with
	// the load's fraction of truck capacity.
	UnloadTimeMin time.Duration
	UnloadTimeMax time.Duration
	// SplitDepartureOffset staggers successive truck loads of a split order.
	SplitDepartureOffset time.Duration
}

// DefaultConfig returns the standard fleet configuration
func DefaultConfig() Config {
	return Config{
		TruckCapacity:        15000,
		TravelTimeMin:        2 * time.Hour,
		TravelTimeMax:        6 * time.Hour,
		UnloadTimeMin:        30 * time.Minute,
		UnloadTimeMax:        2 * time.Hour,
		SplitDepartureOffset: 30 * time.Minute,
	}
}

// activeShipment wraps a registered shipment with the side-effect flags that
// keep inventory transactions from being applied twice.
type activeShipment struct {
	shipment     *entities.Shipment
	outboundDone bool
	inboundDone  bool
}

// Fleet owns the trucks, their availability records, and the registry of
// active shipments. All mutation happens on the single simulation thread;
// parallel day generation would need to serialize access to these maps.
type Fleet struct {
	trucks       []*entities.Truck
	byDC         map[entities.NodeID][]*entities.Truck
	pool         []*entities.Truck
	availability map[string]time.Time
	rrCursor     map[entities.NodeID]int
	active       map[string]*activeShipment
	ledger       InventoryAdjuster
	cfg          Config
	rng          *rand.Rand
	logFn        LogFunc
	synthCount   int
}

// New creates a fleet from truck master data
func New(trucks []*entities.Truck, ledger InventoryAdjuster, cfg Config, rng *rand.Rand, logFn LogFunc) *Fleet {
	if cfg.TruckCapacity <= 0 {
		cfg = DefaultConfig()
	}
	if logFn == nil {
		logFn = log.Printf
	}

	f := &Fleet{
		trucks:       trucks,
		byDC:         make(map[entities.NodeID][]*entities.Truck),
		availability: make(map[string]time.Time),
		rrCursor:     make(map[entities.NodeID]int),
		active:       make(map[string]*activeShipment),
		ledger:       ledger,
		cfg:          cfg,
		rng:          rng,
		logFn:        logFn,
	}
	for _, truck := range trucks {
		if truck.HomeDC == "" {
			f.pool = append(f.pool, truck)
			continue
		}
		f.byDC[truck.HomeDC] = append(f.byDC[truck.HomeDC], truck)
	}
	return f
}

// Reset clears availability, the active registry, and synthetic-truck state
// for a new run.
func (f *Fleet) Reset() {
	f.availability = make(map[string]time.Time)
	f.rrCursor = make(map[entities.NodeID]int)
	f.active = make(map[string]*activeShipment)
	f.synthCount = 0
}

// selectTruck picks a truck able to depart at the requested time: a
// DC-assigned truck round-robin first, then a random available pool truck.
// With no truck master data at all it synthesizes a placeholder identity so
// generation never stalls; synthetic trucks are not availability-tracked.
func (f *Fleet) selectTruck(dcID entities.NodeID, departure time.Time) (string, error) {
	if len(f.trucks) == 0 {
		f.synthCount++
		return fmt.Sprintf("TRUCK-SYN-%d", f.synthCount), nil
	}

	if assigned := f.byDC[dcID]; len(assigned) > 0 {
		start := f.rrCursor[dcID]
		for i := range assigned {
			truck := assigned[(start+i)%len(assigned)]
			if !f.availability[truck.ID].After(departure) {
				f.rrCursor[dcID] = (start + i + 1) % len(assigned)
				return truck.ID, nil
			}
		}
	}

	var available []*entities.Truck
	for _, truck := range f.pool {
		if !f.availability[truck.ID].After(departure) {
			available = append(available, truck)
		}
	}
	if len(available) > 0 {
		return available[f.rng.Intn(len(available))].ID, nil
	}

	return "", ErrNoTruckAvailable
}

// EarliestReturn reports the soonest availability time across the fleet
func (f *Fleet) EarliestReturn() (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, truck := range f.trucks {
		at := f.availability[truck.ID]
		if !found || at.Before(earliest) {
			earliest = at
			found = true
		}
	}
	return earliest, found
}

// Active returns the registered shipment for an id. Missing ids are an
// expected condition, not an error.
func (f *Fleet) Active(id string) (*entities.Shipment, bool) {
	entry, ok := f.active[id]
	if !ok {
		return nil, false
	}
	return entry.shipment, true
}

// ActiveCount returns the number of shipments in the registry
func (f *Fleet) ActiveCount() int {
	return len(f.active)
}

// activeByDeparture returns registry entries in chronological departure order
// so lifecycle evaluation sees monotonic time progression.
func (f *Fleet) activeByDeparture() []*activeShipment {
	entries := make([]*activeShipment, 0, len(f.active))
	for _, entry := range f.active {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].shipment, entries[j].shipment
		if !a.DepartureTime.Equal(b.DepartureTime) {
			return a.DepartureTime.Before(b.DepartureTime)
		}
		return a.ID < b.ID
	})
	return entries
}
