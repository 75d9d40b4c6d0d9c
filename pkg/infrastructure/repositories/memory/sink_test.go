package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/retailsim/retailsim/pkg/domain/repositories"
)

func TestSinkWriteBatch(t *testing.T) {
	sink := NewSink()

	inserted, err := sink.WriteBatch(context.Background(), "receipts", []repositories.Row{
		{"id": "R1"}, {"id": "R2"},
	})
	if err != nil {
		t.Fatalf("Expected write to succeed: %v", err)
	}
	if inserted != 2 {
		t.Errorf("Expected 2 inserted, got %d", inserted)
	}
	if sink.Count("receipts") != 2 {
		t.Errorf("Expected count 2, got %d", sink.Count("receipts"))
	}
	if sink.Count("shipments") != 0 {
		t.Errorf("Expected empty table count 0, got %d", sink.Count("shipments"))
	}

	rows := sink.Rows("receipts")
	if len(rows) != 2 || rows[0]["id"] != "R1" {
		t.Errorf("Expected stored rows back, got %v", rows)
	}
}

func TestSinkFailTables(t *testing.T) {
	sink := NewSink()
	wantErr := errors.New("disk full")
	sink.FailTables = map[string]error{"receipts": wantErr}

	_, err := sink.WriteBatch(context.Background(), "receipts", []repositories.Row{{"id": "R1"}})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected injected failure, got %v", err)
	}
	if sink.Count("receipts") != 0 {
		t.Errorf("Expected no rows stored on failure, got %d", sink.Count("receipts"))
	}
}

func TestSinkHonorsCancellation(t *testing.T) {
	sink := NewSink()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := sink.WriteBatch(ctx, "receipts", nil); err == nil {
		t.Fatal("Expected error from a cancelled context, but got none")
	}
}
