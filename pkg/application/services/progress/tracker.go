package progress

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/retailsim/retailsim/pkg/application/dto"
)

// LogFunc is the logging callback used by the tracker
type LogFunc func(format string, args ...any)

const etaSampleWindow = 10

// tableProgress tracks per-day, per-hour completion for one fact table
type tableProgress struct {
	completed      map[int]map[int]bool
	completedHours int
	currentDay     int
	currentHour    int
}

type etaSample struct {
	takenAt  time.Time
	fraction float64
}

// Tracker aggregates per-table, per-day, per-hour completion across every
// generation section. It is the one component shared with a reporting thread,
// so all state is guarded by a single mutex held for the duration of each
// read or write.
type Tracker struct {
	mu        sync.Mutex
	tables    map[string]*tableProgress
	order     []string
	totalDays int
	samples   []etaSample
	logFn     LogFunc
	nowFn     func() time.Time
}

// New creates a tracker for a known set of fact tables
func New(tables []string, logFn LogFunc) *Tracker {
	if logFn == nil {
		logFn = log.Printf
	}
	t := &Tracker{
		tables: make(map[string]*tableProgress, len(tables)),
		order:  append([]string(nil), tables...),
		logFn:  logFn,
		nowFn:  time.Now,
	}
	for _, table := range tables {
		t.tables[table] = newTableProgress()
	}
	return t
}

func newTableProgress() *tableProgress {
	return &tableProgress{
		completed:   make(map[int]map[int]bool),
		currentDay:  -1,
		currentHour: -1,
	}
}

// Reset clears all completion state for a new run
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for table := range t.tables {
		t.tables[table] = newTableProgress()
	}
	t.samples = nil
	t.totalDays = 0
}

// Update marks (day, hour) complete for a table and advances the table's
// current position. Unknown tables and out-of-range hours are logged and
// ignored rather than raised; they indicate a caller bug, not a run failure.
func (t *Tracker) Update(table string, day, hour, totalDays int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tp, ok := t.tables[table]
	if !ok {
		t.logFn("progress: unknown table %q, update ignored", table)
		return
	}
	if hour < 0 || hour > 23 {
		t.logFn("progress: hour %d out of range for table %q, update ignored", hour, table)
		return
	}
	if totalDays > 0 {
		t.totalDays = totalDays
	}

	if tp.completed[day] == nil {
		tp.completed[day] = make(map[int]bool)
	}
	if !tp.completed[day][hour] {
		tp.completed[day][hour] = true
		tp.completedHours++
	}

	if day > tp.currentDay || (day == tp.currentDay && hour > tp.currentHour) {
		tp.currentDay = day
		tp.currentHour = hour
	}
}

// Complete marks every hour of the run complete for a table
func (t *Tracker) Complete(table string, totalDays int) {
	for day := 0; day < totalDays; day++ {
		for hour := 0; hour < 24; hour++ {
			t.Update(table, day, hour, totalDays)
		}
	}
}

// Snapshot computes the externally visible progress view. Tables advance
// together, so overall progress is the furthest-advanced table's fraction:
// the laggard may not understate overall progress.
func (t *Tracker) Snapshot() dto.ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := dto.ProgressSnapshot{
		PerTable:    make(map[string]float64, len(t.tables)),
		CurrentDay:  -1,
		CurrentHour: -1,
		TakenAt:     t.nowFn(),
	}

	totalHours := float64(t.totalDays * 24)
	maxCompleted := 0

	for _, table := range t.order {
		tp := t.tables[table]

		fraction := 0.0
		if totalHours > 0 {
			fraction = float64(tp.completedHours) / totalHours
			if fraction > 1 {
				fraction = 1
			}
		}
		snap.PerTable[table] = fraction

		switch {
		case fraction >= 1:
			snap.Completed = append(snap.Completed, table)
		case fraction > 0:
			snap.InProgress = append(snap.InProgress, table)
		default:
			snap.Remaining = append(snap.Remaining, table)
		}

		if tp.completedHours > maxCompleted {
			maxCompleted = tp.completedHours
		}
		if tp.currentDay > snap.CurrentDay ||
			(tp.currentDay == snap.CurrentDay && tp.currentHour > snap.CurrentHour) {
			snap.CurrentDay = tp.currentDay
			snap.CurrentHour = tp.currentHour
		}
	}
	sort.Strings(snap.Completed)
	sort.Strings(snap.InProgress)
	sort.Strings(snap.Remaining)

	if totalHours > 0 {
		snap.Overall = float64(maxCompleted) / totalHours
		if snap.Overall > 1 {
			snap.Overall = 1
		}
	}

	t.recordSample(snap.TakenAt, snap.Overall)
	snap.ETA, snap.ETAAvailable = t.estimateETA(snap.Overall)

	return snap
}

// recordSample keeps a rolling window of (timestamp, fraction) observations
func (t *Tracker) recordSample(at time.Time, fraction float64) {
	t.samples = append(t.samples, etaSample{takenAt: at, fraction: fraction})
	if len(t.samples) > etaSampleWindow {
		t.samples = t.samples[len(t.samples)-etaSampleWindow:]
	}
}

// estimateETA derives remaining time from the rolling sample window.
// Unavailable until the rate is positive.
func (t *Tracker) estimateETA(current float64) (time.Duration, bool) {
	if len(t.samples) < 2 || current >= 1 {
		return 0, false
	}
	oldest := t.samples[0]
	newest := t.samples[len(t.samples)-1]

	deltaFraction := newest.fraction - oldest.fraction
	deltaTime := newest.takenAt.Sub(oldest.takenAt)
	if deltaFraction <= 0 || deltaTime <= 0 {
		return 0, false
	}

	rate := deltaFraction / deltaTime.Seconds()
	remaining := (1 - current) / rate
	return time.Duration(remaining * float64(time.Second)), true
}
