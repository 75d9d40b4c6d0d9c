package orchestration

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/retailsim/retailsim/pkg/application/dto"
	"github.com/retailsim/retailsim/pkg/application/services/disruption"
	"github.com/retailsim/retailsim/pkg/application/services/fleet"
	"github.com/retailsim/retailsim/pkg/application/services/ledger"
	"github.com/retailsim/retailsim/pkg/application/services/progress"
	"github.com/retailsim/retailsim/pkg/application/services/validation"
	"github.com/retailsim/retailsim/pkg/config"
	"github.com/retailsim/retailsim/pkg/domain/entities"
	"github.com/retailsim/retailsim/pkg/domain/repositories"
)

// LogFunc is the logging callback used by the orchestrator
type LogFunc func(format string, args ...any)

// ProgressConsumer receives progress snapshots during a run. Absent
// consumers are tolerated; emission is a no-op.
type ProgressConsumer func(dto.ProgressSnapshot)

// Fact table names, in parent-before-dependent order where linked
const (
	TableReceipts         = "receipts"
	TableReceiptLines     = "receipt_lines"
	TableInventoryTxns    = "inventory_transactions"
	TableShipments        = "shipments"
	TableDisruptionEvents = "disruption_events"
)

var factTables = []string{
	TableReceipts,
	TableReceiptLines,
	TableInventoryTxns,
	TableShipments,
	TableDisruptionEvents,
}

// minEmitInterval throttles progress emission so consumers are not flooded
const minEmitInterval = 50 * time.Millisecond

// Config wires the orchestrator to its collaborators
type Config struct {
	Sim        *config.Config
	MasterData repositories.MasterDataRepository
	Baskets    repositories.BasketProvider
	Sink       repositories.RecordSink
	Progress   ProgressConsumer
	LogFunc    LogFunc
}

// Orchestrator drives the day/hour generation loop, invoking the ledger,
// fleet, disruption model, and progress tracker in dependency order and
// persisting generated records through the sink contract. It is the sole
// long-lived owner of simulation state for the run's duration.
type Orchestrator struct {
	cfg        *config.Config
	masterData repositories.MasterDataRepository
	baskets    repositories.BasketProvider
	sink       repositories.RecordSink
	progressFn ProgressConsumer
	logFn      LogFunc

	ledger      *ledger.Ledger
	fleet       *fleet.Fleet
	disruptions *disruption.Model
	tracker     *progress.Tracker
	rng         *rand.Rand

	// master data loaded at run start
	stores    []*entities.Store
	dcs       []*entities.DistributionCenter
	products  []*entities.Product
	customers []*entities.Customer
	storeDC   map[entities.NodeID]entities.NodeID

	// run accumulators
	counts       map[string]int
	degraded     []string
	lastEmit     time.Time
	allReceipts  []*entities.Receipt
	allTxns      []*entities.InventoryTransaction
	allShipments []*entities.Shipment
	soldToday    map[saleKey]entities.Quantity
	openings     map[openingKey]entities.Quantity
}

type saleKey struct {
	storeID   entities.NodeID
	productID entities.ProductID
}

type openingKey struct {
	nodeType  entities.NodeType
	nodeID    entities.NodeID
	productID entities.ProductID
}

// New creates an orchestrator. Simulation state is built when Run starts.
func New(c Config) *Orchestrator {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = log.Printf
	}
	sim := c.Sim
	if sim == nil {
		sim = config.Default()
	}
	return &Orchestrator{
		cfg:        sim,
		masterData: c.MasterData,
		baskets:    c.Baskets,
		sink:       c.Sink,
		progressFn: c.Progress,
		logFn:      logFn,
	}
}

// Tracker exposes the progress tracker for reporting consumers. It is safe
// to read concurrently with a running generation.
func (o *Orchestrator) Tracker() *progress.Tracker {
	return o.tracker
}

// Run generates data for every calendar day in [start, end] and returns a
// structured summary. The summary is returned even when individual sections
// degraded; only fatal conditions (missing master data, invalid range)
// return an error.
func (o *Orchestrator) Run(ctx context.Context, start, end time.Time) (*dto.RunSummary, error) {
	start = midnight(start)
	end = midnight(end)
	if end.Before(start) {
		return nil, fmt.Errorf("invalid date range: end %s before start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	if err := o.loadMasterData(); err != nil {
		return nil, err
	}
	o.buildSimulationState()

	totalDays := int(end.Sub(start)/(24*time.Hour)) + 1
	runStart := time.Now()

	for dayIdx := 0; dayIdx < totalDays; dayIdx++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled on day %d: %w", dayIdx, err)
		}
		day := start.Add(time.Duration(dayIdx) * 24 * time.Hour)
		o.runDay(ctx, day, dayIdx, totalDays)
		o.emitProgress(false)
	}

	// Transition every table to completed and emit the final snapshot
	for _, table := range factTables {
		o.tracker.Complete(table, totalDays)
	}
	o.emitProgress(true)

	summary := &dto.RunSummary{
		StartDate:   start,
		EndDate:     end,
		TableCounts: o.counts,
		Elapsed:     time.Since(runStart),
		Validation:  o.validate(),
		Degraded:    o.degraded,
	}
	for _, count := range o.counts {
		summary.TotalRecords += count
	}
	return summary, nil
}

// loadMasterData loads reference data and fails fast with one aggregated
// error listing every missing prerequisite.
func (o *Orchestrator) loadMasterData() error {
	var err error
	if o.stores, err = o.masterData.GetStores(); err != nil {
		return fmt.Errorf("load stores: %w", err)
	}
	if o.dcs, err = o.masterData.GetDistributionCenters(); err != nil {
		return fmt.Errorf("load distribution centers: %w", err)
	}
	if o.products, err = o.masterData.GetProducts(); err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	if o.customers, err = o.masterData.GetCustomers(); err != nil {
		return fmt.Errorf("load customers: %w", err)
	}

	var missing []string
	if len(o.stores) == 0 {
		missing = append(missing, "stores")
	}
	if len(o.customers) == 0 {
		missing = append(missing, "customers")
	}
	if len(o.products) == 0 {
		missing = append(missing, "products")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing master data: %s", strings.Join(missing, ", "))
	}
	return nil
}

// buildSimulationState constructs the owned components and seeds opening
// balances. Reset only happens here, at run start.
func (o *Orchestrator) buildSimulationState() {
	o.rng = rand.New(rand.NewSource(o.cfg.Seed))

	o.ledger = ledger.New(ledger.Config{
		ReorderTargetMinMultiple: o.cfg.Ledger.ReorderTargetMinMultiple,
		ReorderTargetMaxMultiple: o.cfg.Ledger.ReorderTargetMaxMultiple,
	}, o.rng)

	trucks, err := o.masterData.GetTrucks()
	if err != nil {
		// A fleet without truck master data still generates, using
		// synthetic placeholder identities.
		o.logFn("orchestrator: load trucks: %v, continuing with synthetic fleet", err)
		trucks = nil
	}
	o.fleet = fleet.New(trucks, o.ledger, fleet.Config{
		TruckCapacity:        entities.Quantity(o.cfg.Fleet.TruckCapacity),
		TravelTimeMin:        o.cfg.Fleet.TravelTimeMin.Std(),
		TravelTimeMax:        o.cfg.Fleet.TravelTimeMax.Std(),
		UnloadTimeMin:        o.cfg.Fleet.UnloadTimeMin.Std(),
		UnloadTimeMax:        o.cfg.Fleet.UnloadTimeMax.Std(),
		SplitDepartureOffset: o.cfg.Fleet.SplitDepartureOffset.Std(),
	}, o.rng, fleet.LogFunc(o.logFn))

	o.disruptions = disruption.New(disruption.Config{
		DailyStartProbability:  o.cfg.Disruption.DailyStartProbability,
		BaseResolveProbability: o.cfg.Disruption.BaseResolveProbability,
		MaxAffectedProducts:    o.cfg.Disruption.MaxAffectedProducts,
	}, o.rng, disruption.LogFunc(o.logFn))

	o.tracker = progress.New(factTables, progress.LogFunc(o.logFn))

	o.openings = make(map[openingKey]entities.Quantity)
	for _, dc := range o.dcs {
		for _, product := range o.products {
			o.seedOpening(entities.NodeDC, dc.ID, product.ID, entities.Quantity(o.cfg.Seeding.DCOpeningStock))
		}
	}
	for _, store := range o.stores {
		for _, product := range o.products {
			o.seedOpening(entities.NodeStore, store.ID, product.ID, entities.Quantity(o.cfg.Seeding.StoreOpeningStock))
		}
	}

	// Stores draw from DCs round-robin for the whole run
	o.storeDC = make(map[entities.NodeID]entities.NodeID, len(o.stores))
	for i, store := range o.stores {
		if len(o.dcs) > 0 {
			o.storeDC[store.ID] = o.dcs[i%len(o.dcs)].ID
		}
	}

	o.counts = make(map[string]int)
	o.degraded = nil
	o.lastEmit = time.Time{}
	o.soldToday = make(map[saleKey]entities.Quantity)
}

// emitProgress delivers a snapshot to the consumer, throttled to avoid
// flooding. Delivery failures are logged and never abort the run.
func (o *Orchestrator) emitProgress(force bool) {
	if o.progressFn == nil {
		return
	}
	now := time.Now()
	if !force && !o.lastEmit.IsZero() && now.Sub(o.lastEmit) < minEmitInterval {
		return
	}
	o.lastEmit = now

	snap := o.tracker.Snapshot()
	defer func() {
		if r := recover(); r != nil {
			o.logFn("orchestrator: progress consumer failed: %v", r)
		}
	}()
	o.progressFn(snap)
}

// seedOpening sets an opening balance in the ledger and remembers it so the
// validator's replay can start from the same stock.
func (o *Orchestrator) seedOpening(nodeType entities.NodeType, nodeID entities.NodeID, productID entities.ProductID, qty entities.Quantity) {
	o.ledger.Seed(nodeType, nodeID, productID, qty)
	o.openings[openingKey{nodeType, nodeID, productID}] = qty
}

// validate runs the business-rule auditor over everything generated
func (o *Orchestrator) validate() *dto.ValidationSummary {
	v := validation.New()
	for k, qty := range o.openings {
		v.SeedBalance(k.nodeType, k.nodeID, k.productID, qty)
	}
	v.CheckReceipts(o.allReceipts)
	v.CheckInventoryTransactions(o.allTxns)
	v.CheckShipmentTiming(o.allShipments)
	return v.Summary()
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
