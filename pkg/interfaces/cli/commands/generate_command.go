package commands

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/retailsim/retailsim/pkg/application/dto"
	"github.com/retailsim/retailsim/pkg/application/services/orchestration"
	"github.com/retailsim/retailsim/pkg/config"
	"github.com/retailsim/retailsim/pkg/domain/repositories"
	"github.com/retailsim/retailsim/pkg/infrastructure/baskets"
	"github.com/retailsim/retailsim/pkg/infrastructure/repositories/csv"
	"github.com/retailsim/retailsim/pkg/infrastructure/repositories/memory"
	scenario "github.com/retailsim/retailsim/pkg/infrastructure/testing"
)

// Config holds configuration for the generate command
type Config struct {
	ConfigFile  string
	ScenarioDir string
	StartDate   string
	EndDate     string
	Days        int
	Seed        int64
	Verbose     bool
	Help        bool
}

// GenerateCommand handles the dataset generation logic
type GenerateCommand struct {
	config Config
}

// NewGenerateCommand creates a new generate command with the given configuration
func NewGenerateCommand(config Config) *GenerateCommand {
	return &GenerateCommand{
		config: config,
	}
}

// Execute runs the generate command
func (c *GenerateCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	simCfg, err := c.loadSimConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	start, end, err := c.resolveDateRange()
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	masterData, err := c.loadMasterData()
	if err != nil {
		return fmt.Errorf("error loading master data: %w", err)
	}

	products, err := masterData.GetProducts()
	if err != nil {
		return fmt.Errorf("error loading products: %w", err)
	}
	customers, err := masterData.GetCustomers()
	if err != nil {
		return fmt.Errorf("error loading customers: %w", err)
	}

	basketRng := rand.New(rand.NewSource(simCfg.Seed + 1))
	sink := memory.NewSink()

	var progressFn orchestration.ProgressConsumer
	if c.config.Verbose {
		progressFn = printProgress
	}

	orchestrator := orchestration.New(orchestration.Config{
		Sim:        simCfg,
		MasterData: masterData,
		Baskets:    baskets.NewSynthetic(products, customers, basketRng, 5),
		Sink:       sink,
		Progress:   progressFn,
	})

	if c.config.Verbose {
		fmt.Printf("🏪 Generating retail operations data %s to %s...\n",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	summary, err := orchestrator.Run(ctx, start, end)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	fmt.Println(summary.GetSummary())
	if len(summary.Degraded) > 0 {
		fmt.Printf("⚠️  %d sections degraded during the run\n", len(summary.Degraded))
	}
	return nil
}

// loadSimConfig reads the YAML config when provided, applying CLI overrides
func (c *GenerateCommand) loadSimConfig() (*config.Config, error) {
	cfg := config.Default()
	if c.config.ConfigFile != "" {
		loaded, err := config.Load(c.config.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if c.config.Seed != 0 {
		cfg.Seed = c.config.Seed
	}
	return cfg, nil
}

// resolveDateRange turns the flag combination into a concrete [start, end]
func (c *GenerateCommand) resolveDateRange() (time.Time, time.Time, error) {
	if c.config.StartDate == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start date is required (use -start YYYY-MM-DD)")
	}
	start, err := time.Parse("2006-01-02", c.config.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", c.config.StartDate, err)
	}

	if c.config.EndDate != "" {
		end, err := time.Parse("2006-01-02", c.config.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", c.config.EndDate, err)
		}
		return start, end, nil
	}

	days := c.config.Days
	if days <= 0 {
		days = 7
	}
	return start, start.Add(time.Duration(days-1) * 24 * time.Hour), nil
}

// loadMasterData loads from a scenario directory when given, falling back to
// the built-in retail scenario.
func (c *GenerateCommand) loadMasterData() (repositories.MasterDataRepository, error) {
	if c.config.ScenarioDir != "" {
		return csv.NewLoader().LoadRepository(c.config.ScenarioDir)
	}
	return scenario.BuildRetailScenario(), nil
}

func printProgress(snap dto.ProgressSnapshot) {
	eta := "n/a"
	if snap.ETAAvailable {
		eta = snap.ETA.Round(time.Second).String()
	}
	fmt.Printf("  progress: %.1f%% (day %d hour %d, eta %s)\n",
		snap.Overall*100, snap.CurrentDay, snap.CurrentHour, eta)
}

func (c *GenerateCommand) showHelp() {
	fmt.Println(`retailsim - synthetic retail operations dataset generator

Usage:
  retailsim -start 2024-01-01 -days 7 [options]

Options:
  -config    Path to YAML simulation config
  -scenario  Path to directory of master data CSV files
  -start     Start date (YYYY-MM-DD, required)
  -end       End date (YYYY-MM-DD; overrides -days)
  -days      Number of days to generate (default 7)
  -seed      Random seed override
  -verbose   Print progress while generating
  -help      Show this message`)
}
