package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigRuleOrderStartsWithFinance(t *testing.T) {
	cfg := DefaultConfig()
	if len(cfg.RuleOrder) == 0 || cfg.RuleOrder[0] != "finance" {
		t.Fatalf("RuleOrder = %v, want finance first", cfg.RuleOrder)
	}
	if _, ok := cfg.Rules["finance"]; !ok {
		t.Fatal("expected a finance rule in defaults")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("Load of missing file should return defaults, not error: %v", err)
	}
	if cfg.Preferences.AutoApproveThreshold != 30 {
		t.Errorf("AutoApproveThreshold = %d, want default 30", cfg.Preferences.AutoApproveThreshold)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := DefaultConfig()
	cfg.Preferences.AutoApproveThreshold = 55

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Preferences.AutoApproveThreshold != 55 {
		t.Errorf("AutoApproveThreshold after round trip = %d, want 55", loaded.Preferences.AutoApproveThreshold)
	}
}

func TestResolvePathPriority(t *testing.T) {
	explicit := "/tmp/explicit-config.json"
	got, err := ResolvePath(explicit)
	if err != nil {
		t.Fatal(err)
	}
	if got != explicit {
		t.Errorf("ResolvePath with explicit path = %q, want %q", got, explicit)
	}

	envPath := filepath.Join(t.TempDir(), "env-config.json")
	t.Setenv(ConfigEnvVar, envPath)
	got, err = ResolvePath("")
	if err != nil {
		t.Fatal(err)
	}
	if got != envPath {
		t.Errorf("ResolvePath with env var set = %q, want %q", got, envPath)
	}
}

func TestGetDotNotation(t *testing.T) {
	cfg := DefaultConfig()
	v, ok := Get(cfg, "preferences.auto_approve_threshold")
	if !ok {
		t.Fatal("expected preferences.auto_approve_threshold to resolve")
	}
	if v.(float64) != 30 {
		t.Errorf("Get(preferences.auto_approve_threshold) = %v, want 30", v)
	}

	if _, ok := Get(cfg, "preferences.nonexistent"); ok {
		t.Error("expected lookup of nonexistent key to fail")
	}
}

func TestOrganizerDirUsedByResolvePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(ConfigEnvVar, "")
	os.Unsetenv(ConfigEnvVar)

	got, err := ResolvePath("")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(home, ".organizer", "config.json")
	if got != want {
		t.Errorf("ResolvePath() = %q, want %q", got, want)
	}
}
