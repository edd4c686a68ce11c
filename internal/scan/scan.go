// Package scan enumerates a directory and turns each file into a
// FileRecord by running Extractor, Categorizer, and RiskAssessor over it.
// Per-file analysis is independent, so it runs on a bounded worker pool;
// results are joined back into scan order once every worker finishes.
package scan

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/categorize"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/config"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/errors"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/extract"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/risk"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/types"
)

// extractSizeLimit is the cutoff above which Extractor is skipped and a
// file gets an empty preview, matching the "< 100 MiB" rule.
const extractSizeLimit = 100 * 1024 * 1024

// FileRecord is the Scanner's per-file output; read-only after creation.
type FileRecord struct {
	Path        string
	Size        int64
	MTime       time.Time
	Preview     string
	Metadata    map[string]any
	DocType     types.DocType
	Categories  categorize.Result
	RiskScore   int
	RiskReasons []string
}

// RiskLevel bands RiskScore for display/audit.
func (f FileRecord) RiskLevel() types.RiskLevel {
	return types.BandRisk(f.RiskScore)
}

// Scanner enumerates a directory and analyzes each file found.
type Scanner struct {
	cfg        *config.Config
	extractor  extract.Extractor
	categorize *categorize.Categorizer
	risk       *risk.Assessor
	ignoreGlobs []string
}

// New builds a Scanner. extractor may be nil, in which case
// extract.NewDefault() is used.
func New(cfg *config.Config, extractor extract.Extractor, ignoreGlobs []string) *Scanner {
	if extractor == nil {
		extractor = extract.NewDefault()
	}
	return &Scanner{
		cfg:         cfg,
		extractor:   extractor,
		categorize:  categorize.New(cfg),
		risk:        risk.New(),
		ignoreGlobs: ignoreGlobs,
	}
}

// Scan enumerates root (flat or recursive) and returns a FileRecord per
// eligible file, in listing order. Per-file errors are absorbed and
// skipped; they never abort the scan. Skips hidden entries (when
// configured), anything under a ".organizer" path segment, directories,
// and any path matching an ignore glob.
func (s *Scanner) Scan(ctx context.Context, root string, recursive bool) ([]FileRecord, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Filesystem("scan directory", root, err)
	}
	if !info.IsDir() {
		return nil, errors.Filesystem("scan directory", root, os.ErrInvalid)
	}

	paths, err := s.enumerate(root, recursive)
	if err != nil {
		return nil, errors.Filesystem("scan directory", root, err)
	}

	results := make([]FileRecord, len(paths))
	ok := make([]bool, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			rec, analyzeErr := s.analyze(p)
			if analyzeErr != nil {
				return nil
			}
			results[i] = rec
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]FileRecord, 0, len(results))
	for i, include := range ok {
		if include {
			out = append(out, results[i])
		}
	}
	return out, nil
}

func (s *Scanner) enumerate(root string, recursive bool) ([]string, error) {
	var paths []string

	walk := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			if containsOrganizerSegment(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if containsOrganizerSegment(path) {
			return nil
		}
		if s.cfg.Preferences.IgnoreHidden && strings.HasPrefix(filepath.Base(path), ".") {
			return nil
		}
		if s.matchesIgnoreGlob(root, path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	}

	if recursive {
		if err := filepath.WalkDir(root, walk); err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if err := walk(filepath.Join(root, e.Name()), e, nil); err != nil && err != filepath.SkipDir {
				return nil, err
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func containsOrganizerSegment(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".organizer" {
			return true
		}
	}
	return false
}

func (s *Scanner) matchesIgnoreGlob(root, path string) bool {
	if len(s.ignoreGlobs) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range s.ignoreGlobs {
		if match, _ := doublestar.Match(pattern, rel); match {
			return true
		}
	}
	return false
}

// AnalyzeOne runs the same per-file pipeline Scan uses (extract,
// categorize, risk-score) on a single path, outside of a directory walk —
// the entry point the external watcher uses for one newly-created file at
// a time.
func (s *Scanner) AnalyzeOne(path string) (FileRecord, error) {
	return s.analyze(path)
}

func (s *Scanner) analyze(path string) (FileRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileRecord{}, err
	}

	var result extract.Result
	if info.Size() < extractSizeLimit {
		result, _ = s.extractor.Extract(path)
	} else {
		result = extract.Result{DocType: types.DocTypeUnknown, Metadata: map[string]any{}}
	}

	cats := s.categorize.Categorize(path, result.Preview, info.ModTime())
	score, reasons := s.risk.Score(path, result.Preview, info.Size(), info.ModTime())

	return FileRecord{
		Path:        path,
		Size:        info.Size(),
		MTime:       info.ModTime(),
		Preview:     result.Preview,
		Metadata:    result.Metadata,
		DocType:     result.DocType,
		Categories:  cats,
		RiskScore:   score,
		RiskReasons: reasons,
	}, nil
}
