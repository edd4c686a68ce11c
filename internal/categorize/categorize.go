// Package categorize implements the deterministic 4-level file
// categorizer: type, context, time bucket, and a smart tag derived from
// the filename. The rule table is sourced from config and walked in a
// fixed order so the finance-before-generic-type requirement does not
// depend on Go's unspecified map iteration order.
package categorize

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/config"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/utils"
)

// Result is the categorizer's 4-tuple output for one file.
type Result struct {
	Type     string // L1
	Context  string // L2
	Time     string // L3
	SmartTag string // L4
}

var contextLexicon = []struct {
	category string
	words    []string
}{
	{"Work", []string{"work", "office", "business"}},
	{"Personal", []string{"personal", "home", "private"}},
	{"Projects", []string{"project", "dev", "code"}},
	{"Clients", []string{"client", "customer"}},
}

var filenameWorkWords = []string{"work", "office", "meeting", "report"}

var stemPrefixes = []string{"draft_", "final_", "copy_", "new_"}

// Categorizer maps (path, preview, mtime) to a category 4-tuple using
// cfg.Rules and cfg.RuleOrder.
type Categorizer struct {
	cfg *config.Config
}

// New builds a Categorizer bound to cfg.
func New(cfg *config.Config) *Categorizer {
	return &Categorizer{cfg: cfg}
}

// Categorize is deterministic: the same (path, preview, mtime, config)
// always yields the same 4-tuple.
func (c *Categorizer) Categorize(path, preview string, mtime time.Time) Result {
	return Result{
		Type:     c.categorizeByType(path, preview),
		Context:  categorizeByContext(path),
		Time:     c.categorizeByTime(mtime),
		SmartTag: categorizeSmart(path),
	}
}

func (c *Categorizer) categorizeByType(path, preview string) string {
	ext := strings.ToLower(filepath.Ext(path))
	name := strings.ToLower(filepath.Base(path))
	previewLower := strings.ToLower(preview)

	order := c.cfg.RuleOrder
	if len(order) == 0 {
		order = config.DefaultRuleOrder
	}

	if rule, ok := c.cfg.Rules["finance"]; ok && extensionMatches(ext, rule.Extensions) {
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(kw)
			if strings.Contains(name, kw) || strings.Contains(previewLower, kw) {
				return "Finance"
			}
		}
	}

	for _, category := range order {
		if category == "finance" {
			continue
		}
		rule, ok := c.cfg.Rules[category]
		if !ok {
			continue
		}
		if extensionMatches(ext, rule.Extensions) {
			if rule.Folder != "" {
				return rule.Folder
			}
			return strings.ToUpper(category[:1]) + category[1:]
		}
	}

	return "Other"
}

func extensionMatches(ext string, candidates []string) bool {
	for _, c := range candidates {
		if strings.EqualFold(ext, c) {
			return true
		}
	}
	return false
}

func categorizeByContext(path string) string {
	pathLower := strings.ToLower(path)
	for _, entry := range contextLexicon {
		for _, word := range entry.words {
			if strings.Contains(pathLower, word) {
				return entry.category
			}
		}
	}

	nameLower := strings.ToLower(filepath.Base(path))
	for _, word := range filenameWorkWords {
		if strings.Contains(nameLower, word) {
			return "Work"
		}
	}

	return "General"
}

func (c *Categorizer) categorizeByTime(mtime time.Time) string {
	if mtime.IsZero() {
		mtime = time.Now()
	}
	if c.cfg.Preferences.CreateDateFolders {
		return mtime.Format("2006-01-02")
	}
	return mtime.Format("2006")
}

func categorizeSmart(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	lower := strings.ToLower(stem)
	for _, prefix := range stemPrefixes {
		if strings.HasPrefix(lower, prefix) {
			stem = stem[len(prefix):]
			lower = lower[len(prefix):]
			break
		}
	}

	if parts := strings.Split(stem, "_"); len(parts) > 1 {
		return capitalize(parts[0])
	}
	if parts := strings.Split(stem, "-"); len(parts) > 1 {
		return capitalize(parts[0])
	}
	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// BuildPath concatenates non-empty category components onto base,
// dropping the "General" context and dropping the time bucket unless
// date folders are enabled.
func (c *Categorizer) BuildPath(base string, r Result) string {
	parts := []string{base}

	if r.Type != "" {
		parts = append(parts, r.Type)
	}
	if r.Context != "" && r.Context != "General" {
		parts = append(parts, r.Context)
	}
	if r.Time != "" && c.cfg.Preferences.CreateDateFolders {
		parts = append(parts, r.Time)
	}
	if r.SmartTag != "" {
		if slug := utils.Slugify(r.SmartTag); slug != "" {
			parts = append(parts, slug)
		}
	}

	return filepath.Join(parts...)
}
