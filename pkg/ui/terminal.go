package ui

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	labelColor   = color.New(color.FgCyan)
	valueColor   = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
	dimColor     = color.New(color.Faint)
)

var quiet bool

// SetQuiet suppresses everything except errors.
func SetQuiet(q bool) {
	quiet = q
}

// SetNoColor disables ANSI color output.
func SetNoColor(disable bool) {
	color.NoColor = disable
}

// PrintBanner prints the application header.
func PrintBanner(version string) {
	if quiet {
		return
	}
	labelColor.Println("cdlextract " + version)
	dimColor.Println("land-cover grid to table extraction")
	fmt.Println()
}

// PrintError prints an error message in red. Errors print even in quiet
// mode.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		errorColor.Println(msg + ": " + fmt.Sprintf("%v", args[0]))
	} else {
		errorColor.Println(msg)
	}
}

// PrintSuccess prints a success message in green.
func PrintSuccess(msg string) {
	if quiet {
		return
	}
	successColor.Println(msg)
}

// PrintWarning prints a warning message in yellow.
func PrintWarning(msg string, args ...interface{}) {
	if quiet {
		return
	}
	if len(args) > 0 {
		warnColor.Println(msg + ": " + fmt.Sprintf("%v", args[0]))
	} else {
		warnColor.Println(msg)
	}
}

// PrintInfo prints a labeled value.
func PrintInfo(label string, value string) {
	if quiet {
		return
	}
	fmt.Printf("%s: %s\n", labelColor.Sprint(label), valueColor.Sprint(value))
}
