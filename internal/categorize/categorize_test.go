package categorize

import (
	"testing"
	"time"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/config"
)

func newTestCategorizer() *Categorizer {
	return New(config.DefaultConfig())
}

func TestCategorizeByTypeDefaultRules(t *testing.T) {
	c := newTestCategorizer()
	mtime := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		path string
		want string
	}{
		{"/home/alice/photo.jpg", "Images"},
		{"/home/alice/report.pdf", "Documents"},
		{"/home/alice/script.py", "Code"},
	}
	for _, tt := range tests {
		r := c.Categorize(tt.path, "", mtime)
		if r.Type != tt.want {
			t.Errorf("Categorize(%s).Type = %q, want %q", tt.path, r.Type, tt.want)
		}
	}
}

func TestCategorizeFinanceRequiresExtensionAndKeyword(t *testing.T) {
	c := newTestCategorizer()
	mtime := time.Now()

	r := c.Categorize("/home/alice/march_invoice.csv", "", mtime)
	if r.Type != "Finance" {
		t.Errorf("Type = %q, want Finance for csv+invoice keyword", r.Type)
	}

	r = c.Categorize("/home/alice/data.csv", "", mtime)
	if r.Type == "Finance" {
		t.Errorf("Type = %q, did not expect Finance without keyword match", r.Type)
	}
}

func TestCategorizeByTypeDefault(t *testing.T) {
	c := newTestCategorizer()
	r := c.Categorize("/home/alice/unknown.xyz", "", time.Now())
	if r.Type != "Other" {
		t.Errorf("Type = %q, want Other for unrecognized extension", r.Type)
	}
}

func TestCategorizeByContextPriority(t *testing.T) {
	c := newTestCategorizer()
	r := c.Categorize("/home/alice/work/client/notes.txt", "", time.Now())
	if r.Context != "Work" {
		t.Errorf("Context = %q, want Work (checked before Clients)", r.Context)
	}
}

func TestCategorizeByTimeRespectsDateFoldersFlag(t *testing.T) {
	cfg := config.DefaultConfig()
	mtime := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	c := New(cfg)
	r := c.Categorize("/x/file.txt", "", mtime)
	if r.Time != "2024" {
		t.Errorf("Time = %q, want year-only by default", r.Time)
	}

	cfg.Preferences.CreateDateFolders = true
	r = c.Categorize("/x/file.txt", "", mtime)
	if r.Time != "2024-12-31" {
		t.Errorf("Time = %q, want full date when create_date_folders enabled", r.Time)
	}
}

func TestCategorizeSmartStripsPrefixAndSplits(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/x/draft_ProjectX_report.docx", "Projectx"},
		{"/x/final_acme-invoice.pdf", "Acme"},
		{"/x/notes.txt", ""},
	}
	c := newTestCategorizer()
	for _, tt := range tests {
		r := c.Categorize(tt.path, "", time.Now())
		if r.SmartTag != tt.want {
			t.Errorf("Categorize(%s).SmartTag = %q, want %q", tt.path, r.SmartTag, tt.want)
		}
	}
}

func TestBuildPathDropsGeneralAndTimeByDefault(t *testing.T) {
	c := newTestCategorizer()
	got := c.BuildPath("/base", Result{Type: "Documents", Context: "General", Time: "2024", SmartTag: ""})
	want := "/base/Documents"
	if got != want {
		t.Errorf("BuildPath = %q, want %q", got, want)
	}
}

func TestBuildPathIncludesAllNonDefaultComponents(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Preferences.CreateDateFolders = true
	c := New(cfg)

	got := c.BuildPath("/base", Result{Type: "Documents", Context: "Work", Time: "2024-03-01", SmartTag: "Acme"})
	want := "/base/Documents/Work/2024-03-01/acme"
	if got != want {
		t.Errorf("BuildPath = %q, want %q", got, want)
	}
}

func TestCategorizeDeterministic(t *testing.T) {
	c := newTestCategorizer()
	mtime := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a := c.Categorize("/home/alice/work/invoice_march.csv", "payment due", mtime)
	b := c.Categorize("/home/alice/work/invoice_march.csv", "payment due", mtime)
	if a != b {
		t.Errorf("Categorize is not deterministic: %+v != %+v", a, b)
	}
}
