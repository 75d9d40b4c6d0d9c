package entities

import (
	"time"
)

// DisruptionSeverity represents how badly a disruption reduces DC throughput
type DisruptionSeverity int

const (
	SeverityMinor DisruptionSeverity = iota
	SeverityModerate
	SeveritySevere
)

// String method for DisruptionSeverity enum
func (s DisruptionSeverity) String() string {
	switch s {
	case SeverityMinor:
		return "MINOR"
	case SeverityModerate:
		return "MODERATE"
	case SeveritySevere:
		return "SEVERE"
	default:
		return "Unknown"
	}
}

// Disruption represents an active capacity-reducing event at a DC
type Disruption struct {
	ID               string
	DCID             NodeID
	Type             string
	Severity         DisruptionSeverity
	ImpactPct        float64
	StartedAt        time.Time
	ExpectedDuration time.Duration
	AffectedProducts []ProductID
}

// CapacityMultiplier returns the throughput factor implied by this disruption
func (d *Disruption) CapacityMultiplier() float64 {
	return 1.0 - d.ImpactPct/100.0
}

// DisruptionEventType distinguishes start and resolution records
type DisruptionEventType int

const (
	DisruptionStarted DisruptionEventType = iota
	DisruptionResolved
)

// String method for DisruptionEventType enum
func (t DisruptionEventType) String() string {
	switch t {
	case DisruptionStarted:
		return "STARTED"
	case DisruptionResolved:
		return "RESOLVED"
	default:
		return "Unknown"
	}
}

// DisruptionEvent is the record emitted when a disruption starts or resolves
type DisruptionEvent struct {
	ID               string
	DisruptionID     string
	DCID             NodeID
	EventType        DisruptionEventType
	Type             string
	Severity         DisruptionSeverity
	ImpactPct        float64
	OccurredAt       time.Time
	ExpectedDuration time.Duration
	AffectedProducts []ProductID
}
