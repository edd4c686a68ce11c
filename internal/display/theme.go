package display

import "github.com/fatih/color"

// Box drawing characters
const (
	BoxTopLeft     = "┌"
	BoxTopRight    = "┐"
	BoxBottomLeft  = "└"
	BoxBottomRight = "┘"
	BoxHorizontal  = "─"
	BoxVertical    = "│"
	SectionBreak   = "━"
)

// Status symbols
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolPending = "○"
	SymbolPartial = "◐"
)

// Theme holds the color functions used across scan/propose/execute output.
type Theme struct {
	Border func(a ...interface{}) string
	Label  func(a ...interface{}) string
	Text   func(a ...interface{}) string

	// Risk-level coloring, used wherever a FileRecord or proposal entry
	// is listed.
	RiskLow    func(a ...interface{}) string
	RiskMedium func(a ...interface{}) string
	RiskHigh   func(a ...interface{}) string

	Success func(a ...interface{}) string
	Error   func(a ...interface{}) string
	Warning func(a ...interface{}) string
	Info    func(a ...interface{}) string

	Bold      func(a ...interface{}) string
	Dim       func(a ...interface{}) string
	Separator func(a ...interface{}) string
}

// DefaultTheme builds the color theme used on a TTY.
func DefaultTheme() *Theme {
	return &Theme{
		Border: color.New(color.FgCyan).SprintFunc(),
		Label:  color.New(color.FgCyan, color.Bold).SprintFunc(),
		Text:   color.New(color.FgWhite).SprintFunc(),

		RiskLow:    color.New(color.FgGreen).SprintFunc(),
		RiskMedium: color.New(color.FgYellow).SprintFunc(),
		RiskHigh:   color.New(color.FgRed, color.Bold).SprintFunc(),

		Success: color.New(color.FgGreen).SprintFunc(),
		Error:   color.New(color.FgRed).SprintFunc(),
		Warning: color.New(color.FgYellow).SprintFunc(),
		Info:    color.New(color.FgCyan).SprintFunc(),

		Bold:      color.New(color.Bold).SprintFunc(),
		Dim:       color.New(color.FgHiBlack).SprintFunc(),
		Separator: color.New(color.FgCyan).SprintFunc(),
	}
}

// NoColorTheme builds a theme with no ANSI escapes, for --no-color or a
// non-TTY stdout.
func NoColorTheme() *Theme {
	identity := func(a ...interface{}) string {
		if len(a) == 0 {
			return ""
		}
		if s, ok := a[0].(string); ok {
			return s
		}
		return ""
	}
	return &Theme{
		Border:     identity,
		Label:      identity,
		Text:       identity,
		RiskLow:    identity,
		RiskMedium: identity,
		RiskHigh:   identity,
		Success:    identity,
		Error:      identity,
		Warning:    identity,
		Info:       identity,
		Bold:       identity,
		Dim:        identity,
		Separator:  identity,
	}
}
