package ui

import "os"

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

// Enabled turns the helpers below into no-ops when false. NO_COLOR disables it.
var Enabled = os.Getenv("NO_COLOR") == ""

func paint(style, s string) string {
	if !Enabled {
		return s
	}
	return style + s + ColorReset
}

func Bold(s string) string    { return paint(ColorBold, s) }
func Success(s string) string { return paint(ColorGreen, s) }
func Warn(s string) string    { return paint(ColorYellow, s) }
func Error(s string) string   { return paint(ColorRed, s) }

// Status colors a run outcome: ok, partial or failed
func Status(s string) string {
	switch s {
	case "ok":
		return Success(s)
	case "partial":
		return Warn(s)
	case "failed":
		return Error(s)
	}
	return s
}
