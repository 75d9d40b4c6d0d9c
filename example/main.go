package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/retailsim/retailsim/pkg/application/services/orchestration"
	"github.com/retailsim/retailsim/pkg/config"
	"github.com/retailsim/retailsim/pkg/infrastructure/baskets"
	"github.com/retailsim/retailsim/pkg/infrastructure/repositories/memory"
	scenario "github.com/retailsim/retailsim/pkg/infrastructure/testing"
)

func main() {
	ctx := context.Background()

	// Build the sample retail network
	masterData := scenario.BuildRetailScenario()
	products, _ := masterData.GetProducts()
	customers, _ := masterData.GetCustomers()

	cfg := config.Default()
	cfg.Seed = 42

	sink := memory.NewSink()
	orchestrator := orchestration.New(orchestration.Config{
		Sim:        cfg,
		MasterData: masterData,
		Baskets:    baskets.NewSynthetic(products, customers, rand.New(rand.NewSource(cfg.Seed+1)), 5),
		Sink:       sink,
	})

	fmt.Println("🏪 Generating three days of retail operations...")

	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	summary, err := orchestrator.Run(ctx, start, start.Add(2*24*time.Hour))
	if err != nil {
		fmt.Printf("❌ Generation failed: %v\n", err)
		return
	}

	fmt.Println(summary.GetSummary())
	fmt.Printf("  Shipments written: %d\n", sink.Count(orchestration.TableShipments))
}
