// Package risk scores a file's move risk in [0,100] from sensitive-content
// matches, size, extension class, and recency. Scoring is strictly
// additive and monotonic: adding a contributing factor never lowers the
// score.
package risk

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/redact"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/types"
)

const (
	largeFileBytes = 500 * 1024 * 1024
	recentWindow   = 24 * time.Hour
)

// sensitiveCategoryOrder fixes the order risk reasons are reported in, so
// audit log lines are reproducible across runs (map iteration order is not).
var sensitiveCategoryOrder = []redact.Category{
	redact.CategorySSN, redact.CategoryCreditCard,
	redact.CategoryPassword, redact.CategoryAPIKey,
	redact.CategoryEmail, redact.CategoryPhone,
}

var systemExtensions = map[string]bool{
	".dll":   true,
	".sys":   true,
	".exe":   true,
	".so":    true,
	".dylib": true,
}

// Assessor scores files against the fixed rule table in spec §4.4.
type Assessor struct{}

// New builds an Assessor.
func New() *Assessor {
	return &Assessor{}
}

// Score computes a clamped [0,100] risk score and an ordered list of
// human-readable reasons for path, given its preview text, size, and
// modification time.
func (a *Assessor) Score(path, preview string, size int64, mtime time.Time) (int, []string) {
	score := 0
	var reasons []string

	if preview != "" {
		matches := redact.DetectSensitive(preview)
		for _, category := range sensitiveCategoryOrder {
			if _, found := matches[category]; !found {
				continue
			}
			switch category {
			case redact.CategorySSN:
				score += 40
				reasons = append(reasons, "SSN pattern detected (+40)")
			case redact.CategoryCreditCard:
				score += 40
				reasons = append(reasons, "Credit card pattern detected (+40)")
			case redact.CategoryPassword:
				score += 50
				reasons = append(reasons, "Password field detected (+50)")
			case redact.CategoryAPIKey:
				score += 50
				reasons = append(reasons, "Potential API key detected (+50)")
			case redact.CategoryEmail:
				score += 10
				reasons = append(reasons, "Email address detected (+10)")
			case redact.CategoryPhone:
				score += 10
				reasons = append(reasons, "Phone number detected (+10)")
			}
		}
	}

	if size > largeFileBytes {
		score += 10
		reasons = append(reasons, "Large file (>500MB) (+10)")
	}

	ext := strings.ToLower(filepath.Ext(path))
	if systemExtensions[ext] {
		score += 30
		reasons = append(reasons, fmt.Sprintf("System file extension (%s) (+30)", ext))
	}

	if !mtime.IsZero() && time.Since(mtime) < recentWindow {
		score += 20
		reasons = append(reasons, "Recently modified (<24h) (+20)")
	}

	if score > 100 {
		score = 100
	}
	return score, reasons
}

// Level bands a score into low/medium/high.
func (a *Assessor) Level(score int) types.RiskLevel {
	return types.BandRisk(score)
}

// RequiresApproval reports whether score exceeds the configured
// auto-approve threshold.
func (a *Assessor) RequiresApproval(score, autoApproveThreshold int) bool {
	return score > autoApproveThreshold
}
