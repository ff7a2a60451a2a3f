package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cdlextract/pkg/chunk"
	"cdlextract/pkg/consolidate"
	"cdlextract/pkg/logger"
	"cdlextract/pkg/ui"
)

// mergeCmd represents the merge command
var mergeCmd = &cobra.Command{
	Use:   "merge <year> [year...]",
	Short: "Consolidate a year's chunk files into its final artifact",
	Long: `Validate each year's chunk files, merge the valid ones into a single
SQLite artifact, verify the artifact's row count against the merge
total, and remove the chunk directory.

Corrupt chunk files are moved into a quarantine subdirectory and
excluded from the merge; they never abort it. The chunk directory is
only removed after verification succeeds.`,
	Example: `  # Merge one year's chunks
  cdlextract merge 2012

  # Merge several years
  cdlextract merge 2010 2011 2012`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runMerge(args)
		return nil
	},
}

var mergeInputDir string

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVarP(&mergeInputDir, "input", "i", "", "chunk directory to merge (default: derived from output directory)")
	mergeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "base directory for processed output")
}

func runMerge(args []string) {
	years, err := parseYears(args)
	if err != nil {
		ui.PrintError("Invalid arguments", err.Error())
		os.Exit(1)
	}

	cfg := loadConfig()
	logger.Initialize(&cfg.Logging)
	log := logger.GetLogger()

	failed := 0
	for _, year := range years {
		ui.PrintInfo("Merging year", strconv.Itoa(year))

		chunksDir := cfg.ChunksDir(year)
		if mergeInputDir != "" {
			chunksDir = mergeInputDir
		}
		store, err := chunk.NewStore(chunksDir, log)
		if err != nil {
			ui.PrintError(fmt.Sprintf("Year %d failed", year), err.Error())
			failed++
			continue
		}

		merger := consolidate.NewMerger(store, cfg.Processing.ProgressInterval, log)

		tracker := ui.NewStatusTracker(0)
		merger.SetProgressFunc(func(chunksDone, totalChunks int, records int64) {
			tracker.TotalChunks = totalChunks
			tracker.Update(chunksDone, int(records))
			if chunksDone%cfg.Processing.ProgressInterval == 0 {
				ui.PrintInfo("Progress", fmt.Sprintf("%s ETA %s, mem %s",
					tracker.Bar(), tracker.ETA().Round(time.Second), tracker.MemoryUsage()))
			}
		})

		result, err := merger.Merge(year, cfg.FinalArtifactPath(year))
		if err != nil {
			log.WithError(err).WithField("year", year).Error("Merge failed")
			ui.PrintError(fmt.Sprintf("Year %d failed", year), err.Error())
			failed++
			continue
		}

		if !result.Verified {
			ui.PrintWarning(fmt.Sprintf("Year %d merged but verification failed", year),
				"chunk directory preserved for inspection")
			failed++
			continue
		}

		ui.PrintSuccess(fmt.Sprintf("Year %d: %d records from %d chunks (%d quarantined)",
			year, result.TotalRecords, result.ChunksMerged, result.Quarantined))
		ui.PrintInfo("Artifact", result.ArtifactPath)
		ui.PrintInfo("Summary", tracker.Summary())
	}

	if failed > 0 {
		os.Exit(1)
	}
}
