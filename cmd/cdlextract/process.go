package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cdlextract/pkg/config"
	"cdlextract/pkg/logger"
	"cdlextract/pkg/pipeline"
	"cdlextract/pkg/ui"
)

var (
	// Process command flags
	sourceDir string
	outputDir string
	chunkSize int
	region    string
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <year> [year...]",
	Short: "Scan one or more years' grids into chunk files",
	Long: `Scan each year's land-cover grid window by window, filter pixels to the
configured region, and write the results as numbered compressed chunk
files under the output directory.

Progress is checkpointed after every chunk, so an interrupted run picks
up where it stopped. A year whose final artifact already exists is
skipped without reading the grid.`,
	Example: `  # Process a single year with default settings
  cdlextract process 2012

  # Process several years into a custom output directory
  cdlextract process 2010 2011 2012 --output ./processed

  # Smaller windows for a memory-constrained machine
  cdlextract process 2012 --chunk-size 500`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runProcess(args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&sourceDir, "source", "s", "", "base directory containing the yearly grids")
	processCmd.Flags().StringVarP(&outputDir, "output", "o", "", "base directory for processed output")
	processCmd.Flags().IntVar(&chunkSize, "chunk-size", 1000, "window size in cells per side")
	processCmd.Flags().StringVar(&region, "region", "", "region name for the output artifact")
}

func parseYears(args []string) ([]int, error) {
	years := make([]int, 0, len(args))
	for _, arg := range args {
		year, err := strconv.Atoi(arg)
		if err != nil || year < 1900 || year > 2100 {
			return nil, fmt.Errorf("invalid year %q", arg)
		}
		years = append(years, year)
	}
	return years, nil
}

func loadConfig() *config.Config {
	flags := make(map[string]interface{})
	if sourceDir != "" {
		flags["source"] = sourceDir
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if chunkSize != 1000 {
		flags["chunk-size"] = chunkSize
	}
	if region != "" {
		flags["region"] = region
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	return cfg
}

func runProcess(args []string) {
	years, err := parseYears(args)
	if err != nil {
		ui.PrintError("Invalid arguments", err.Error())
		os.Exit(1)
	}

	cfg := loadConfig()
	logger.Initialize(&cfg.Logging)
	log := logger.GetLogger()
	log.WithField("version", version).Info("cdlextract starting")

	runner := pipeline.NewRunner(cfg, log)

	failed := 0
	for _, year := range years {
		ui.PrintInfo("Processing year", strconv.Itoa(year))

		tracker := ui.NewStatusTracker(0)
		runner.OnProgress = func(chunksDone, totalChunks, records int) {
			tracker.TotalChunks = totalChunks
			tracker.Update(chunksDone, records)
			if chunksDone%cfg.Processing.ProgressInterval == 0 {
				ui.PrintInfo("Progress", fmt.Sprintf("%s ETA %s, mem %s",
					tracker.Bar(), tracker.ETA().Round(time.Second), tracker.MemoryUsage()))
			}
		}

		result, err := runner.ProcessYear(year)
		if err != nil {
			log.WithError(err).WithField("year", year).Error("Scan failed")
			ui.PrintError(fmt.Sprintf("Year %d failed", year), err.Error())
			failed++
			continue
		}

		if result.AlreadyProcessed {
			ui.PrintInfo("Already processed", cfg.FinalArtifactPath(year))
			continue
		}

		ui.PrintSuccess(fmt.Sprintf("Year %d: %d records in %d chunks (%d resumed)",
			year, result.TotalRecords, result.Processed, result.Skipped))
		ui.PrintInfo("Summary", tracker.Summary())
		ui.PrintInfo("Next step", fmt.Sprintf("cdlextract merge %d", year))
	}

	if failed > 0 {
		os.Exit(1)
	}
}
