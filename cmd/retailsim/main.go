package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/retailsim/retailsim/pkg/interfaces/cli/commands"
)

func main() {
	// Command line flags
	var (
		configFile  = flag.String("config", "", "Path to YAML simulation config")
		scenarioDir = flag.String("scenario", "", "Path to directory of master data CSV files")
		startDate   = flag.String("start", "", "Start date (YYYY-MM-DD)")
		endDate     = flag.String("end", "", "End date (YYYY-MM-DD; overrides -days)")
		days        = flag.Int("days", 7, "Number of days to generate")
		seed        = flag.Int64("seed", 0, "Random seed override")
		verbose     = flag.Bool("verbose", false, "Print progress while generating")
		help        = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	// Create command configuration
	config := commands.Config{
		ConfigFile:  *configFile,
		ScenarioDir: *scenarioDir,
		StartDate:   *startDate,
		EndDate:     *endDate,
		Days:        *days,
		Seed:        *seed,
		Verbose:     *verbose,
		Help:        *help,
	}

	// Create and execute command
	cmd := commands.NewGenerateCommand(config)
	ctx := context.Background()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
