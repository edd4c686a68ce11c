package display

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/types"
)

func TestNoColorThemeStripsEscapes(t *testing.T) {
	d := NewWithOptions(true)
	assert.Equal(t, "[HIGH 92]", d.RiskBadge(types.RiskHigh, 92))
}

func TestRiskBadgePicksLevel(t *testing.T) {
	d := NewWithOptions(true)
	cases := []struct {
		level types.RiskLevel
		score int
		want  string
	}{
		{types.RiskLow, 10, "[LOW 10]"},
		{types.RiskMedium, 50, "[MEDIUM 50]"},
		{types.RiskHigh, 90, "[HIGH 90]"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, d.RiskBadge(c.level, c.score))
	}
}

func TestTruncateAddsEllipsis(t *testing.T) {
	assert.Equal(t, "this is...", Truncate("this is a long piece of text", 10))
	assert.Equal(t, "short", Truncate("short", 10), "text within the limit should be unchanged")
}

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "line one line two", CleanText("line one\nline   two  "))
}
