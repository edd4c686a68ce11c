package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/types"
)

func TestDefaultExtractorTextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	if err := os.WriteFile(path, []byte("Quarterly Report"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewDefault()
	res, err := e.Extract(path)
	if err != nil {
		t.Fatalf("Extract must never error, got %v", err)
	}
	if res.DocType != types.DocTypeText {
		t.Errorf("DocType = %q, want text", res.DocType)
	}
	if res.Preview != "Quarterly Report" {
		t.Errorf("Preview = %q, want %q", res.Preview, "Quarterly Report")
	}
}

func TestDefaultExtractorMissingFileNeverErrors(t *testing.T) {
	e := NewDefault()
	res, err := e.Extract("/nonexistent/path/does-not-exist.txt")
	if err != nil {
		t.Fatalf("Extract must never error even for a missing file, got %v", err)
	}
	if res.DocType != types.DocTypeUnknown {
		t.Errorf("DocType = %q, want unknown", res.DocType)
	}
	if res.Preview != "" {
		t.Errorf("Preview = %q, want empty", res.Preview)
	}
}

func TestDefaultExtractorExtensionClassification(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		want types.DocType
	}{
		{"photo.jpg", types.DocTypeImage},
		{"invoice.pdf", types.DocTypePDF},
		{"budget.xlsx", types.DocTypeSpreadsheet},
		{"script.go", types.DocTypeUnknown},
	}

	e := NewDefault()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
				t.Fatal(err)
			}
			res, err := e.Extract(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.DocType != tt.want {
				t.Errorf("DocType(%s) = %q, want %q", tt.name, res.DocType, tt.want)
			}
		})
	}
}

func TestPreviewBoundedTo1KiB(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	big := make([]byte, PreviewLimit*4)
	for i := range big {
		big[i] = 'a'
	}
	if err := os.WriteFile(path, big, 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewDefault()
	res, err := e.Extract(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Preview) > PreviewLimit {
		t.Errorf("Preview length = %d, want <= %d", len(res.Preview), PreviewLimit)
	}
}
