package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"cdlextract/pkg/ui"
)

var (
	// Version information, overridable at build time
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cdlextract",
	Short: "Extract land-cover grids into per-year tabular artifacts",
	Long: `cdlextract scans yearly categorical land-cover grids, filters pixels to a
geographic region, and writes the classified pixels out as tabular data.

The pipeline runs in two stages:
  - process: windowed scan of a year's grid into compressed chunk files,
    checkpointed so an interrupted run resumes where it stopped
  - merge: validate the chunk files, consolidate them into a single
    SQLite artifact, verify the row count, and clean up the chunks

A year whose final artifact already exists is skipped entirely.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuiet(true)
		}
		ui.SetNoColor(noColor)

		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" {
			ui.PrintBanner(version)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.cdlextract.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`cdlextract {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
