// Package display renders scan/propose/execute/rollback output for the
// CLI: boxed banners for summaries, single-line status updates for
// per-file progress, and risk-level coloring wherever a FileRecord or
// proposal entry is listed.
package display

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/types"
)

// Display handles all CLI output with a consistent visual hierarchy.
type Display struct {
	theme     *Theme
	termWidth int
	noColor   bool
}

// New creates a Display with the default theme.
func New() *Display {
	return NewWithOptions(false)
}

// NewWithOptions creates a Display, disabling color if noColor is set.
func NewWithOptions(noColor bool) *Display {
	d := &Display{
		termWidth: getTerminalWidth(),
		noColor:   noColor,
	}
	if noColor {
		d.theme = NoColorTheme()
	} else {
		d.theme = DefaultTheme()
	}
	return d
}

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 40 {
		return 80
	}
	if width > 120 {
		return 120
	}
	return width
}

// Box prints a boxed message with a title, e.g. the scan summary or
// proposal header.
func (d *Display) Box(title string, lines ...string) {
	if len(lines) == 0 {
		return
	}

	width := d.termWidth - 2
	titleLen := len(title) + 4
	remainingWidth := width - titleLen
	if remainingWidth < 0 {
		remainingWidth = 0
	}

	topLine := BoxTopLeft + BoxHorizontal + " " + title + " " + strings.Repeat(BoxHorizontal, remainingWidth) + BoxTopRight
	fmt.Println(d.theme.Border(topLine))

	for _, line := range lines {
		paddedLine := d.padRight(line, width-2)
		fmt.Println(d.theme.Border(BoxVertical) + " " + d.theme.Text(paddedLine) + " " + d.theme.Border(BoxVertical))
	}

	bottomLine := BoxBottomLeft + strings.Repeat(BoxHorizontal, width) + BoxBottomRight
	fmt.Println(d.theme.Border(bottomLine))
}

// Status prints a single-line, timestamped status update.
func (d *Display) Status(symbol, message string) {
	timestamp := time.Now().Format("[15:04:05]")
	fmt.Printf("%s %s %s\n", d.theme.Border(timestamp), symbol, d.theme.Text(message))
}

// Success prints a success message with a green checkmark.
func (d *Display) Success(message string) {
	d.Status(d.theme.Success(SymbolSuccess), message)
}

// Error prints an error message with a red X.
func (d *Display) Error(message string) {
	d.Status(d.theme.Error(SymbolError), message)
}

// Warning prints a warning message with a yellow triangle.
func (d *Display) Warning(message string) {
	d.Status(d.theme.Warning(SymbolWarning), message)
}

// Info prints a labeled info message.
func (d *Display) Info(label, message string) {
	d.Status(d.theme.Info(label+":"), message)
}

// SectionBreak prints a horizontal separator between CLI sections.
func (d *Display) SectionBreak() {
	fmt.Println(d.theme.Separator(strings.Repeat(SectionBreak, d.termWidth)))
}

// RiskBadge renders a risk level with its color and a numeric score.
func (d *Display) RiskBadge(level types.RiskLevel, score int) string {
	label := fmt.Sprintf("[%s %d]", strings.ToUpper(string(level)), score)
	switch level {
	case types.RiskLow:
		return d.theme.RiskLow(label)
	case types.RiskMedium:
		return d.theme.RiskMedium(label)
	default:
		return d.theme.RiskHigh(label)
	}
}

// ScanSummary prints the boxed result of a scan.
func (d *Display) ScanSummary(path string, fileCount int, elapsed time.Duration) {
	d.Box("SCAN",
		fmt.Sprintf("Path: %s", path),
		fmt.Sprintf("Files discovered: %d", fileCount),
		fmt.Sprintf("Elapsed: %s", elapsed.Round(time.Millisecond)),
	)
}

// ProposalLine prints one file's proposed move with a risk badge.
func (d *Display) ProposalLine(source, destination string, level types.RiskLevel, score int) {
	fmt.Printf("  %s %s -> %s\n", d.RiskBadge(level, score), d.theme.Dim(source), d.theme.Text(destination))
}

// ProposalSummary prints the boxed header for a generated proposal.
func (d *Display) ProposalSummary(proposalID int64, fileCount int, confidence float64, reasoning string) {
	d.Box("PROPOSAL",
		fmt.Sprintf("Proposal #%d: %d files", proposalID, fileCount),
		fmt.Sprintf("Confidence: %.0f%%", confidence*100),
		fmt.Sprintf("Reasoning: %s", reasoning),
	)
}

// ExecuteSummary prints the boxed result of an Executor run.
func (d *Display) ExecuteSummary(filesMoved int, success bool) {
	if success {
		d.Box("EXECUTE", fmt.Sprintf("Moved %d files successfully", filesMoved))
	} else {
		d.Box("EXECUTE", fmt.Sprintf("Finished with failures (%d files moved)", filesMoved))
	}
}

// RollbackSummary prints the boxed result of a rollback.
func (d *Display) RollbackSummary(proposalID int64, filesRestored int, unresolvable []string) {
	lines := []string{fmt.Sprintf("Proposal #%d: restored %d files", proposalID, filesRestored)}
	if len(unresolvable) > 0 {
		lines = append(lines, fmt.Sprintf("%d files could not be restored", len(unresolvable)))
	}
	d.Box("ROLLBACK", lines...)
}

// Theme returns the current theme for callers that need direct access
// (e.g. coloring a risk badge inline with other text).
func (d *Display) Theme() *Theme {
	return d.theme
}

func (d *Display) padRight(s string, width int) string {
	if width < 0 {
		width = 0
	}
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Truncate truncates text to max length with an ellipsis.
func Truncate(s string, max int) string {
	s = CleanText(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// CleanText removes newlines and collapses repeated spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}
