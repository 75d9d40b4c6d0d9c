package progress

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func discard(format string, args ...any) {}

func newTestTracker() *Tracker {
	return New([]string{"receipts", "shipments", "events"}, discard)
}

func TestSnapshotBeforeAnyUpdate(t *testing.T) {
	tracker := newTestTracker()

	snap := tracker.Snapshot()
	if snap.Overall != 0 {
		t.Errorf("Expected overall 0 before updates, got %f", snap.Overall)
	}
	if snap.CurrentDay != -1 || snap.CurrentHour != -1 {
		t.Errorf("Expected current position (-1, -1), got (%d, %d)", snap.CurrentDay, snap.CurrentHour)
	}
	if len(snap.Remaining) != 3 {
		t.Errorf("Expected all 3 tables remaining, got %v", snap.Remaining)
	}
}

func TestUpdateAdvancesFractions(t *testing.T) {
	tracker := newTestTracker()

	// 2 days x 24 hours. Complete day 0 for receipts only.
	for hour := 0; hour < 24; hour++ {
		tracker.Update("receipts", 0, hour, 2)
	}
	tracker.Update("shipments", 0, 0, 2)

	snap := tracker.Snapshot()
	if snap.PerTable["receipts"] != 0.5 {
		t.Errorf("Expected receipts at 0.5, got %f", snap.PerTable["receipts"])
	}
	if snap.PerTable["events"] != 0 {
		t.Errorf("Expected events at 0, got %f", snap.PerTable["events"])
	}

	// Overall follows the furthest-advanced table
	if snap.Overall != 0.5 {
		t.Errorf("Expected overall 0.5, got %f", snap.Overall)
	}
	if snap.CurrentDay != 0 || snap.CurrentHour != 23 {
		t.Errorf("Expected current position (0, 23), got (%d, %d)", snap.CurrentDay, snap.CurrentHour)
	}

	if len(snap.InProgress) != 2 || len(snap.Remaining) != 1 {
		t.Errorf("Expected 2 in progress and 1 remaining, got %v / %v", snap.InProgress, snap.Remaining)
	}
}

func TestDuplicateUpdatesAreIdempotent(t *testing.T) {
	tracker := newTestTracker()

	for i := 0; i < 5; i++ {
		tracker.Update("receipts", 0, 3, 1)
	}

	snap := tracker.Snapshot()
	want := 1.0 / 24.0
	if snap.PerTable["receipts"] != want {
		t.Errorf("Expected fraction %f after duplicate updates, got %f", want, snap.PerTable["receipts"])
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	tracker := newTestTracker()

	last := 0.0
	for day := 0; day < 3; day++ {
		for hour := 0; hour < 24; hour++ {
			tracker.Update("receipts", day, hour, 3)
			tracker.Update("shipments", day, hour, 3)
			snap := tracker.Snapshot()
			if snap.Overall < last {
				t.Fatalf("Expected monotonic progress, dropped from %f to %f at day %d hour %d",
					last, snap.Overall, day, hour)
			}
			last = snap.Overall
		}
	}
	if last != 1.0 {
		t.Errorf("Expected overall 1.0 at the end, got %f", last)
	}
}

func TestUnknownTableAndBadHourIgnored(t *testing.T) {
	var logged []string
	tracker := New([]string{"receipts"}, func(format string, args ...any) {
		logged = append(logged, fmt.Sprintf(format, args...))
	})

	tracker.Update("nonexistent", 0, 0, 1)
	tracker.Update("receipts", 0, -1, 1)
	tracker.Update("receipts", 0, 24, 1)

	snap := tracker.Snapshot()
	if snap.Overall != 0 {
		t.Errorf("Expected invalid updates to be ignored, overall %f", snap.Overall)
	}
	if len(logged) != 3 {
		t.Errorf("Expected 3 logged ignores, got %d: %v", len(logged), logged)
	}
}

func TestCompleteFillsEveryHour(t *testing.T) {
	tracker := newTestTracker()

	tracker.Complete("receipts", 2)
	tracker.Complete("shipments", 2)
	tracker.Complete("events", 2)

	snap := tracker.Snapshot()
	if snap.Overall != 1.0 {
		t.Errorf("Expected overall 1.0, got %f", snap.Overall)
	}
	if len(snap.Completed) != 3 {
		t.Errorf("Expected all 3 tables completed, got %v", snap.Completed)
	}
}

func TestETAEstimate(t *testing.T) {
	tracker := newTestTracker()

	// Drive the clock manually so the rate is exact
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker.nowFn = func() time.Time { return now }

	// First snapshot at 25% done
	for hour := 0; hour < 6; hour++ {
		tracker.Update("receipts", 0, hour, 1)
	}
	snap := tracker.Snapshot()
	if snap.ETAAvailable {
		t.Error("Expected no ETA from a single sample")
	}

	// 25% more after 10 seconds: rate is 2.5%/s, 50% remain
	now = now.Add(10 * time.Second)
	for hour := 6; hour < 12; hour++ {
		tracker.Update("receipts", 0, hour, 1)
	}
	snap = tracker.Snapshot()
	if !snap.ETAAvailable {
		t.Fatal("Expected an ETA once the rate is known")
	}
	if snap.ETA != 20*time.Second {
		t.Errorf("Expected ETA 20s, got %s", snap.ETA)
	}
}

func TestETAUnavailableWhenDone(t *testing.T) {
	tracker := newTestTracker()
	tracker.Complete("receipts", 1)
	tracker.Complete("shipments", 1)
	tracker.Complete("events", 1)

	tracker.Snapshot()
	snap := tracker.Snapshot()
	if snap.ETAAvailable {
		t.Errorf("Expected no ETA for a finished run, got %s", snap.ETA)
	}
}

func TestResetClearsState(t *testing.T) {
	tracker := newTestTracker()
	tracker.Complete("receipts", 1)

	tracker.Reset()

	snap := tracker.Snapshot()
	if snap.Overall != 0 || snap.CurrentDay != -1 {
		t.Errorf("Expected cleared state after reset, got overall %f day %d", snap.Overall, snap.CurrentDay)
	}
}

func TestConcurrentUpdatesAndSnapshots(t *testing.T) {
	tracker := newTestTracker()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for day := 0; day < 10; day++ {
				for hour := 0; hour < 24; hour++ {
					tracker.Update("receipts", day, hour, 10)
					tracker.Update("shipments", day, hour, 10)
				}
			}
		}(w)
	}

	// A reporting goroutine reads snapshots while writers run
	var outOfRange []float64
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			snap := tracker.Snapshot()
			if snap.Overall < 0 || snap.Overall > 1 {
				outOfRange = append(outOfRange, snap.Overall)
			}
		}
	}()

	wg.Wait()
	require.Empty(t, outOfRange)

	snap := tracker.Snapshot()
	require.Equal(t, 1.0, snap.Overall)
	require.Equal(t, 9, snap.CurrentDay)
	require.Equal(t, 23, snap.CurrentHour)
}
