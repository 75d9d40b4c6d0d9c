package fleet

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/retailsim/retailsim/pkg/application/services/ledger"
	"github.com/retailsim/retailsim/pkg/domain/entities"
)

func fixedTimingConfig() Config {
	return Config{
		TruckCapacity:        15000,
		TravelTimeMin:        2 * time.Hour,
		TravelTimeMax:        2 * time.Hour,
		UnloadTimeMin:        1 * time.Hour,
		UnloadTimeMax:        1 * time.Hour,
		SplitDepartureOffset: 30 * time.Minute,
	}
}

func newTestFleet(t *testing.T, trucks []*entities.Truck, cfg Config) (*Fleet, *ledger.Ledger) {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	led := ledger.New(ledger.DefaultConfig(), rng)
	f := New(trucks, led, cfg, rng, func(format string, args ...any) {})
	return f, led
}

func TestShipmentMovesStockFromDCToStore(t *testing.T) {
	f, led := newTestFleet(t, []*entities.Truck{{ID: "TRUCK-1", HomeDC: "DC1"}}, fixedTimingConfig())

	led.Seed(entities.NodeDC, "DC1", "SKU-A", 500)
	led.Seed(entities.NodeStore, "ST1", "SKU-A", 50)

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	led.Adjust(entities.NodeDC, "DC1", "SKU-A", 200, entities.ReasonReceive, day)
	if got := led.Balance(entities.NodeDC, "DC1", "SKU-A"); got != 700 {
		t.Fatalf("Expected DC balance 700 after receiving, got %d", got)
	}

	departure := day.Add(6 * time.Hour)
	shipment, err := f.CreateShipment(ShipmentRequest{
		SourceDC:           "DC1",
		DestStore:          "ST1",
		Departure:          departure,
		Lines:              []entities.ShipmentLine{{ProductID: "SKU-A", Quantity: 150}},
		CapacityMultiplier: 1.0,
	})
	if err != nil {
		t.Fatalf("Expected shipment creation to succeed: %v", err)
	}
	if shipment.State != entities.ShipmentScheduled {
		t.Errorf("Expected new shipment in SCHEDULED, got %s", shipment.State)
	}

	// Load is reserved against the store the moment the shipment exists
	if got := led.EffectiveStoreInventory("ST1", "SKU-A"); got != 200 {
		t.Errorf("Expected effective store inventory 200 (50 on hand + 150 in transit), got %d", got)
	}
	// DC stock is untouched until loading begins
	if got := led.Balance(entities.NodeDC, "DC1", "SKU-A"); got != 700 {
		t.Errorf("Expected DC balance still 700 before loading, got %d", got)
	}

	result, ok := f.Advance(shipment.ID, departure)
	if !ok {
		t.Fatal("Expected shipment to be in the active registry")
	}
	if !result.Advanced || result.To != entities.ShipmentLoading {
		t.Fatalf("Expected advancement to LOADING, got %s (advanced=%v)", result.To, result.Advanced)
	}
	if got := led.Balance(entities.NodeDC, "DC1", "SKU-A"); got != 550 {
		t.Errorf("Expected DC balance 550 after loading, got %d", got)
	}
	if len(result.Transactions) != 1 || result.Transactions[0].Reason != entities.ReasonShipmentLoad {
		t.Errorf("Expected one SHIPMENT_LOAD transaction, got %v", result.Transactions)
	}
}

func TestShipmentLifecycleAdvancesOneStepPerEvaluation(t *testing.T) {
	f, led := newTestFleet(t, []*entities.Truck{{ID: "TRUCK-1", HomeDC: "DC1"}}, fixedTimingConfig())
	led.Seed(entities.NodeDC, "DC1", "SKU-A", 1000)

	departure := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	shipment, err := f.CreateShipment(ShipmentRequest{
		SourceDC:           "DC1",
		DestStore:          "ST1",
		Departure:          departure,
		Lines:              []entities.ShipmentLine{{ProductID: "SKU-A", Quantity: 100}},
		CapacityMultiplier: 1.0,
	})
	if err != nil {
		t.Fatalf("Expected shipment creation to succeed: %v", err)
	}

	// Before departure nothing moves
	if result, _ := f.Advance(shipment.ID, departure.Add(-time.Hour)); result.Advanced {
		t.Errorf("Expected no advancement before departure, got %s", result.To)
	}

	// Well past the ETD milestone, yet each evaluation moves one state only
	late := shipment.ETD.Add(time.Hour)
	wantStates := []entities.ShipmentState{
		entities.ShipmentLoading,
		entities.ShipmentInTransit,
		entities.ShipmentArrived,
		entities.ShipmentUnloading,
		entities.ShipmentCompleted,
	}
	for _, want := range wantStates {
		result, ok := f.Advance(shipment.ID, late)
		if !ok {
			t.Fatalf("Expected shipment active before reaching %s", want)
		}
		if !result.Advanced || result.To != want {
			t.Fatalf("Expected single-step advancement to %s, got %s", want, result.To)
		}
	}

	if _, ok := f.Advance(shipment.ID, late); ok {
		t.Error("Expected completed shipment to leave the active registry")
	}
	if got := led.Balance(entities.NodeStore, "ST1", "SKU-A"); got != 100 {
		t.Errorf("Expected store balance 100 after delivery, got %d", got)
	}
	if got := led.InTransit("ST1", "SKU-A"); got != 0 {
		t.Errorf("Expected in-transit cleared after delivery, got %d", got)
	}
}

func TestCreateShipmentsSplitsLargeOrders(t *testing.T) {
	f, led := newTestFleet(t, []*entities.Truck{
		{ID: "TRUCK-1", HomeDC: "DC1"},
		{ID: "TRUCK-2", HomeDC: "DC1"},
	}, fixedTimingConfig())
	led.Seed(entities.NodeDC, "DC1", "SKU-A", 50000)

	departure := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	shipments, err := f.CreateShipments(ShipmentRequest{
		SourceDC:           "DC1",
		DestStore:          "ST1",
		Departure:          departure,
		Lines:              []entities.ShipmentLine{{ProductID: "SKU-A", Quantity: 20000}},
		CapacityMultiplier: 1.0,
	})
	if err != nil {
		t.Fatalf("Expected split shipment creation to succeed: %v", err)
	}
	if len(shipments) != 2 {
		t.Fatalf("Expected 2 shipments for a 20000-unit order against 15000 capacity, got %d", len(shipments))
	}

	var total entities.Quantity
	for _, s := range shipments {
		total += s.TotalUnits
	}
	if total != 20000 {
		t.Errorf("Expected shipments to sum to the requested 20000 units, got %d", total)
	}
	if shipments[0].TotalUnits != 15000 || shipments[1].TotalUnits != 5000 {
		t.Errorf("Expected loads [15000, 5000], got [%d, %d]", shipments[0].TotalUnits, shipments[1].TotalUnits)
	}

	wantSecond := departure.Add(30 * time.Minute)
	if !shipments[1].DepartureTime.Equal(wantSecond) {
		t.Errorf("Expected second departure %s, got %s", wantSecond, shipments[1].DepartureTime)
	}
	if got := led.InTransit("ST1", "SKU-A"); got != 20000 {
		t.Errorf("Expected full order of 20000 units in transit, got %d", got)
	}
}

func TestTimeoutRecoveryForceCompletes(t *testing.T) {
	f, led := newTestFleet(t, []*entities.Truck{{ID: "TRUCK-1", HomeDC: "DC1"}}, fixedTimingConfig())
	led.Seed(entities.NodeDC, "DC1", "SKU-A", 1000)

	departure := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	shipment, err := f.CreateShipment(ShipmentRequest{
		SourceDC:           "DC1",
		DestStore:          "ST1",
		Departure:          departure,
		Lines:              []entities.ShipmentLine{{ProductID: "SKU-A", Quantity: 100}},
		CapacityMultiplier: 1.0,
	})
	if err != nil {
		t.Fatalf("Expected shipment creation to succeed: %v", err)
	}

	// Stuck in SCHEDULED past the 24h dwell allowance
	stuck := departure.Add(25 * time.Hour)
	result, ok := f.Advance(shipment.ID, stuck)
	if !ok {
		t.Fatal("Expected shipment to be in the active registry")
	}
	if !result.TimedOut || !result.Completed {
		t.Fatalf("Expected timeout recovery to complete the shipment, got %+v", result)
	}
	if shipment.State != entities.ShipmentCompleted || !shipment.TimeoutRecovered {
		t.Errorf("Expected COMPLETED with TimeoutRecovered set, got %s (recovered=%v)",
			shipment.State, shipment.TimeoutRecovered)
	}

	// No units lost: DC debited, store credited, in-transit cleared
	if got := led.Balance(entities.NodeDC, "DC1", "SKU-A"); got != 900 {
		t.Errorf("Expected DC balance 900 after force-complete, got %d", got)
	}
	if got := led.Balance(entities.NodeStore, "ST1", "SKU-A"); got != 100 {
		t.Errorf("Expected store balance 100 after force-complete, got %d", got)
	}
	if got := led.InTransit("ST1", "SKU-A"); got != 0 {
		t.Errorf("Expected in-transit cleared after force-complete, got %d", got)
	}
	if _, stillActive := f.Active(shipment.ID); stillActive {
		t.Error("Expected force-completed shipment removed from registry")
	}
}

func TestSideEffectsApplyExactlyOnce(t *testing.T) {
	f, led := newTestFleet(t, []*entities.Truck{{ID: "TRUCK-1", HomeDC: "DC1"}}, fixedTimingConfig())
	led.Seed(entities.NodeDC, "DC1", "SKU-A", 1000)

	departure := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	shipment, err := f.CreateShipment(ShipmentRequest{
		SourceDC:           "DC1",
		DestStore:          "ST1",
		Departure:          departure,
		Lines:              []entities.ShipmentLine{{ProductID: "SKU-A", Quantity: 100}},
		CapacityMultiplier: 1.0,
	})
	if err != nil {
		t.Fatalf("Expected shipment creation to succeed: %v", err)
	}

	// Walk into LOADING, then force a timeout from there. The load effect
	// already applied and must not apply again during recovery.
	f.Advance(shipment.ID, departure)
	if got := led.Balance(entities.NodeDC, "DC1", "SKU-A"); got != 900 {
		t.Fatalf("Expected DC balance 900 after loading, got %d", got)
	}

	stuck := departure.Add(9 * time.Hour)
	result, _ := f.Advance(shipment.ID, stuck)
	if !result.TimedOut {
		t.Fatalf("Expected LOADING dwell timeout at +9h, got %+v", result)
	}
	if got := led.Balance(entities.NodeDC, "DC1", "SKU-A"); got != 900 {
		t.Errorf("Expected DC balance unchanged at 900 after recovery, got %d", got)
	}
	if got := led.Balance(entities.NodeStore, "ST1", "SKU-A"); got != 100 {
		t.Errorf("Expected store balance 100 after recovery, got %d", got)
	}
}

func TestSelectTruckPrefersHomeDCRoundRobin(t *testing.T) {
	f, _ := newTestFleet(t, []*entities.Truck{
		{ID: "TRUCK-A", HomeDC: "DC1"},
		{ID: "TRUCK-B", HomeDC: "DC1"},
		{ID: "TRUCK-P"},
	}, fixedTimingConfig())

	departure := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

	first, err := f.selectTruck("DC1", departure)
	if err != nil {
		t.Fatalf("Expected truck selection to succeed: %v", err)
	}
	second, err := f.selectTruck("DC1", departure)
	if err != nil {
		t.Fatalf("Expected truck selection to succeed: %v", err)
	}
	if first != "TRUCK-A" || second != "TRUCK-B" {
		t.Errorf("Expected round-robin [TRUCK-A, TRUCK-B], got [%s, %s]", first, second)
	}
}

func TestSelectTruckFallsBackToPool(t *testing.T) {
	f, led := newTestFleet(t, []*entities.Truck{
		{ID: "TRUCK-A", HomeDC: "DC1"},
		{ID: "TRUCK-P"},
	}, fixedTimingConfig())
	led.Seed(entities.NodeDC, "DC1", "SKU-A", 1000)

	departure := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	// Occupy the DC-assigned truck with a real shipment
	_, err := f.CreateShipment(ShipmentRequest{
		SourceDC:           "DC1",
		DestStore:          "ST1",
		Departure:          departure,
		Lines:              []entities.ShipmentLine{{ProductID: "SKU-A", Quantity: 100}},
		CapacityMultiplier: 1.0,
	})
	if err != nil {
		t.Fatalf("Expected first shipment to succeed: %v", err)
	}

	truckID, err := f.selectTruck("DC1", departure.Add(time.Hour))
	if err != nil {
		t.Fatalf("Expected pool fallback to succeed: %v", err)
	}
	if truckID != "TRUCK-P" {
		t.Errorf("Expected pool truck TRUCK-P, got %s", truckID)
	}
}

func TestNoTruckAvailable(t *testing.T) {
	f, led := newTestFleet(t, []*entities.Truck{{ID: "TRUCK-A", HomeDC: "DC1"}}, fixedTimingConfig())
	led.Seed(entities.NodeDC, "DC1", "SKU-A", 1000)

	departure := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	first, err := f.CreateShipment(ShipmentRequest{
		SourceDC:           "DC1",
		DestStore:          "ST1",
		Departure:          departure,
		Lines:              []entities.ShipmentLine{{ProductID: "SKU-A", Quantity: 100}},
		CapacityMultiplier: 1.0,
	})
	if err != nil {
		t.Fatalf("Expected first shipment to succeed: %v", err)
	}

	_, err = f.CreateShipment(ShipmentRequest{
		SourceDC:           "DC1",
		DestStore:          "ST2",
		Departure:          departure.Add(time.Hour),
		Lines:              []entities.ShipmentLine{{ProductID: "SKU-A", Quantity: 100}},
		CapacityMultiplier: 1.0,
	})
	if !errors.Is(err, ErrNoTruckAvailable) {
		t.Fatalf("Expected ErrNoTruckAvailable while the only truck is out, got %v", err)
	}

	returnAt, found := f.EarliestReturn()
	if !found {
		t.Fatal("Expected an earliest-return time for a tracked fleet")
	}
	// Round trip: travel out, unload, travel back
	wantReturn := first.ETD.Add(2 * time.Hour)
	if !returnAt.Equal(wantReturn) {
		t.Errorf("Expected earliest return %s, got %s", wantReturn, returnAt)
	}

	// Re-issuing at the return time succeeds
	if _, err := f.CreateShipment(ShipmentRequest{
		SourceDC:           "DC1",
		DestStore:          "ST2",
		Departure:          returnAt,
		Lines:              []entities.ShipmentLine{{ProductID: "SKU-A", Quantity: 100}},
		CapacityMultiplier: 1.0,
	}); err != nil {
		t.Errorf("Expected re-issued shipment at return time to succeed: %v", err)
	}
}

func TestSyntheticTrucksWhenFleetEmpty(t *testing.T) {
	f, led := newTestFleet(t, nil, fixedTimingConfig())
	led.Seed(entities.NodeDC, "DC1", "SKU-A", 1000)

	departure := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		shipment, err := f.CreateShipment(ShipmentRequest{
			SourceDC:           "DC1",
			DestStore:          "ST1",
			Departure:          departure,
			Lines:              []entities.ShipmentLine{{ProductID: "SKU-A", Quantity: 100}},
			CapacityMultiplier: 1.0,
		})
		if err != nil {
			t.Fatalf("Expected synthetic dispatch %d to succeed: %v", i, err)
		}
		if !isSynthetic(shipment.TruckID) {
			t.Errorf("Expected synthetic truck id, got %s", shipment.TruckID)
		}
	}
	if _, found := f.EarliestReturn(); found {
		t.Error("Expected no availability tracking for synthetic trucks")
	}
}

func TestDisruptionSlowsTravel(t *testing.T) {
	f, led := newTestFleet(t, []*entities.Truck{{ID: "TRUCK-1", HomeDC: "DC1"}}, fixedTimingConfig())
	led.Seed(entities.NodeDC, "DC1", "SKU-A", 1000)

	departure := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	shipment, err := f.CreateShipment(ShipmentRequest{
		SourceDC:           "DC1",
		DestStore:          "ST1",
		Departure:          departure,
		Lines:              []entities.ShipmentLine{{ProductID: "SKU-A", Quantity: 100}},
		CapacityMultiplier: 0.5,
	})
	if err != nil {
		t.Fatalf("Expected shipment creation to succeed: %v", err)
	}

	// Base travel is a fixed 2h; a 0.5 multiplier scales it by 1.5
	wantETA := departure.Add(3 * time.Hour)
	if !shipment.ETA.Equal(wantETA) {
		t.Errorf("Expected disrupted ETA %s, got %s", wantETA, shipment.ETA)
	}
}

func TestCreateShipmentRejectsNegativeQuantities(t *testing.T) {
	f, _ := newTestFleet(t, []*entities.Truck{{ID: "TRUCK-1", HomeDC: "DC1"}}, fixedTimingConfig())

	_, err := f.CreateShipment(ShipmentRequest{
		SourceDC:           "DC1",
		DestStore:          "ST1",
		Departure:          time.Now(),
		Lines:              []entities.ShipmentLine{{ProductID: "SKU-A", Quantity: -5}},
		CapacityMultiplier: 1.0,
	})
	if err == nil {
		t.Fatal("Expected error for negative line quantity, but got none")
	}
}

func TestTakeTruckLoadSplitsLineAcrossLoads(t *testing.T) {
	lines := []entities.ShipmentLine{
		{ProductID: "SKU-A", Quantity: 10000},
		{ProductID: "SKU-B", Quantity: 8000},
	}
	load, rest := takeTruckLoad(lines, 15000)

	if len(load) != 2 || load[0].Quantity != 10000 || load[1].Quantity != 5000 {
		t.Errorf("Expected load [10000, 5000], got %v", load)
	}
	if len(rest) != 1 || rest[0].ProductID != "SKU-B" || rest[0].Quantity != 3000 {
		t.Errorf("Expected remainder [SKU-B 3000], got %v", rest)
	}
}
