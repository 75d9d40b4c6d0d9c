package disruption

import (
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/retailsim/retailsim/pkg/domain/entities"
)

// LogFunc is the logging callback used by the model
type LogFunc func(format string, args ...any)

// Config holds disruption probability tuning
type Config struct {
	// DailyStartProbability is the chance per DC per day that a new
	// disruption begins when none is active for that DC.
	DailyStartProbability float64
	// BaseResolveProbability is the minimum chance per day that an overdue
	// disruption resolves; it grows with overrun.
	BaseResolveProbability float64
	// MaxAffectedProducts bounds the affected-product sample size.
	MaxAffectedProducts int
}

// DefaultConfig returns the standard disruption configuration
func DefaultConfig() Config {
	return Config{
		DailyStartProbability:  0.02,
		BaseResolveProbability: 0.70,
		MaxAffectedProducts:    10,
	}
}

// severityProfile defines the impact and duration ranges for one severity tier
type severityProfile struct {
	severity    entities.DisruptionSeverity
	kind        string
	weight      float64
	impactMin   float64
	impactMax   float64
	durationMin time.Duration
	durationMax time.Duration
}

var severityProfiles = []severityProfile{
	{entities.SeverityMinor, "STAFF_SHORTAGE", 0.60, 10, 25, 24 * time.Hour, 48 * time.Hour},
	{entities.SeverityModerate, "EQUIPMENT_FAILURE", 0.30, 25, 50, 48 * time.Hour, 120 * time.Hour},
	{entities.SeveritySevere, "WEATHER_EVENT", 0.10, 50, 80, 120 * time.Hour, 240 * time.Hour},
}

// Model tracks at most one active disruption per DC and evolves the set with
// a NONE -> ACTIVE -> NONE state machine. Creation and resolution are pure
// probability-driven transitions with no external I/O.
type Model struct {
	active map[entities.NodeID]*entities.Disruption
	cfg    Config
	rng    *rand.Rand
	logFn  LogFunc
}

// New creates a disruption model with no active disruptions
func New(cfg Config, rng *rand.Rand, logFn LogFunc) *Model {
	if cfg.DailyStartProbability <= 0 {
		cfg = DefaultConfig()
	}
	if logFn == nil {
		logFn = log.Printf
	}
	return &Model{
		active: make(map[entities.NodeID]*entities.Disruption),
		cfg:    cfg,
		rng:    rng,
		logFn:  logFn,
	}
}

// Reset clears all active disruptions for a new run
func (m *Model) Reset() {
	m.active = make(map[entities.NodeID]*entities.Disruption)
}

// Active returns the active disruption for a DC, if any
func (m *Model) Active(dcID entities.NodeID) (*entities.Disruption, bool) {
	d, ok := m.active[dcID]
	return d, ok
}

// CapacityMultiplier returns the throughput factor for a DC on the given
// date: 1.0 when undisrupted, lower while a disruption is active.
func (m *Model) CapacityMultiplier(dcID entities.NodeID, date time.Time) float64 {
	d, ok := m.active[dcID]
	if !ok || date.Before(d.StartedAt) {
		return 1.0
	}
	return d.CapacityMultiplier()
}

// DailyTick rolls disruption creation for undisrupted DCs and resolution for
// overdue ones, returning the start/resolution event records for persistence.
func (m *Model) DailyTick(date time.Time, dcs []*entities.DistributionCenter, products []*entities.Product) []*entities.DisruptionEvent {
	var events []*entities.DisruptionEvent

	for _, dc := range dcs {
		if d, ok := m.active[dc.ID]; ok {
			if event := m.tryResolve(d, date); event != nil {
				events = append(events, event)
			}
			continue
		}
		if m.rng.Float64() < m.cfg.DailyStartProbability {
			events = append(events, m.start(dc.ID, date, products))
		}
	}

	return events
}

func (m *Model) start(dcID entities.NodeID, date time.Time, products []*entities.Product) *entities.DisruptionEvent {
	profile := m.drawProfile()

	impact := profile.impactMin + m.rng.Float64()*(profile.impactMax-profile.impactMin)
	durationSpan := profile.durationMax - profile.durationMin
	duration := profile.durationMin + time.Duration(m.rng.Int63n(int64(durationSpan)))

	d := &entities.Disruption{
		ID:               uuid.NewString(),
		DCID:             dcID,
		Type:             profile.kind,
		Severity:         profile.severity,
		ImpactPct:        impact,
		StartedAt:        date,
		ExpectedDuration: duration,
		AffectedProducts: m.sampleProducts(products),
	}
	m.active[dcID] = d
	m.logFn("disruption: %s started at %s (%.0f%% impact, ~%s)", d.Type, dcID, d.ImpactPct, d.ExpectedDuration)

	return &entities.DisruptionEvent{
		ID:               uuid.NewString(),
		DisruptionID:     d.ID,
		DCID:             dcID,
		EventType:        entities.DisruptionStarted,
		Type:             d.Type,
		Severity:         d.Severity,
		ImpactPct:        d.ImpactPct,
		OccurredAt:       date,
		ExpectedDuration: d.ExpectedDuration,
		AffectedProducts: d.AffectedProducts,
	}
}

// tryResolve rolls resolution once the disruption has outlived its expected
// duration. The resolve probability starts at the configured base and grows
// ten points per full day of overrun.
func (m *Model) tryResolve(d *entities.Disruption, date time.Time) *entities.DisruptionEvent {
	elapsed := date.Sub(d.StartedAt)
	if elapsed < d.ExpectedDuration {
		return nil
	}

	overrunDays := float64(elapsed-d.ExpectedDuration) / float64(24*time.Hour)
	probability := m.cfg.BaseResolveProbability + overrunDays*0.10
	if probability > 1.0 {
		probability = 1.0
	}
	if m.rng.Float64() >= probability {
		return nil
	}

	delete(m.active, d.DCID)
	m.logFn("disruption: %s resolved at %s after %s", d.Type, d.DCID, elapsed)

	return &entities.DisruptionEvent{
		ID:               uuid.NewString(),
		DisruptionID:     d.ID,
		DCID:             d.DCID,
		EventType:        entities.DisruptionResolved,
		Type:             d.Type,
		Severity:         d.Severity,
		ImpactPct:        d.ImpactPct,
		OccurredAt:       date,
		ExpectedDuration: d.ExpectedDuration,
		AffectedProducts: d.AffectedProducts,
	}
}

func (m *Model) drawProfile() severityProfile {
	roll := m.rng.Float64()
	cumulative := 0.0
	for _, profile := range severityProfiles {
		cumulative += profile.weight
		if roll < cumulative {
			return profile
		}
	}
	return severityProfiles[len(severityProfiles)-1]
}

// sampleProducts picks a random subset of products for reporting. The sample
// does not gate availability.
func (m *Model) sampleProducts(products []*entities.Product) []entities.ProductID {
	if len(products) == 0 {
		return nil
	}
	n := m.cfg.MaxAffectedProducts
	if n > len(products) {
		n = len(products)
	}
	n = 1 + m.rng.Intn(n)

	picked := m.rng.Perm(len(products))[:n]
	ids := make([]entities.ProductID, 0, n)
	for _, i := range picked {
		ids = append(ids, products[i].ID)
	}
	return ids
}
