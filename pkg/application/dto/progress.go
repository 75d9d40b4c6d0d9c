package dto

import (
	"time"
)

// ProgressSnapshot is a point-in-time view of generation progress, safe to
// hand to external consumers.
type ProgressSnapshot struct {
	// Overall is the run-wide completion fraction in [0, 1]. Tables advance
	// together, so it is the furthest-advanced table's fraction.
	Overall float64
	// PerTable maps table name to its completion fraction in [0, 1].
	PerTable map[string]float64
	// CurrentDay and CurrentHour are the maxima across tables; -1 until the
	// first update arrives.
	CurrentDay  int
	CurrentHour int
	Completed   []string
	InProgress  []string
	Remaining   []string
	// ETA is the estimated time remaining, valid only when ETAAvailable.
	ETA          time.Duration
	ETAAvailable bool
	TakenAt      time.Time
}
