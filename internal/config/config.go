package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/utils"
)

// ConfigEnvVar names the environment variable that can override the
// configuration file path.
const ConfigEnvVar = "SMARTFILE_CONFIG"

// Config is the organizer's configuration, loaded from config.json under
// $HOME/.organizer/ (or an override path/env var), matching the keys spec
// §6 recognizes.
type Config struct {
	Version     string            `mapstructure:"version" json:"version"`
	AI          AIConfig          `mapstructure:"ai" json:"ai"`
	Rules       map[string]Rule   `mapstructure:"rules" json:"rules"`
	RuleOrder   []string          `mapstructure:"-" json:"-"`
	Preferences PreferencesConfig `mapstructure:"preferences" json:"preferences"`
	Backup      BackupConfig      `mapstructure:"backup" json:"backup"`
	Privacy     PrivacyConfig     `mapstructure:"privacy" json:"privacy"`
	Watch       WatchConfig       `mapstructure:"watch" json:"watch"`
}

// AIConfig holds the Suggester's endpoint parameters.
type AIConfig struct {
	Primary  string               `mapstructure:"primary" json:"primary"`
	Fallback string               `mapstructure:"fallback" json:"fallback"`
	Models   map[string]AIModel   `mapstructure:"models" json:"models"`
}

// AIModel is one Suggester backend's connection parameters.
type AIModel struct {
	Endpoint      string `mapstructure:"endpoint" json:"endpoint,omitempty"`
	Model         string `mapstructure:"model" json:"model"`
	FallbackModel string `mapstructure:"fallback_model" json:"fallback_model,omitempty"`
	Timeout       int    `mapstructure:"timeout" json:"timeout,omitempty"`
	APIKey        string `mapstructure:"api_key" json:"api_key,omitempty"`
	Enabled       bool   `mapstructure:"enabled" json:"enabled,omitempty"`
}

// Rule is one Categorizer L1 rule: the set of extensions that map to a
// folder, plus optional keywords required for the Finance rule's
// keyword+extension match.
type Rule struct {
	Extensions []string `mapstructure:"extensions" json:"extensions"`
	Folder     string   `mapstructure:"folder" json:"folder"`
	Keywords   []string `mapstructure:"keywords,omitempty" json:"keywords,omitempty"`
}

// PreferencesConfig holds scan/propose-time knobs.
type PreferencesConfig struct {
	CreateDateFolders    bool `mapstructure:"create_date_folders" json:"create_date_folders"`
	BackupBeforeMove     bool `mapstructure:"backup_before_move" json:"backup_before_move"`
	DryRun               bool `mapstructure:"dry_run" json:"dry_run"`
	AutoApproveThreshold int  `mapstructure:"auto_approve_threshold" json:"auto_approve_threshold"`
	IgnoreHidden         bool `mapstructure:"ignore_hidden" json:"ignore_hidden"`
}

// BackupConfig controls Executor's backup behavior and retention.
type BackupConfig struct {
	Enabled           bool `mapstructure:"enabled" json:"enabled"`
	MaxOperations     int  `mapstructure:"max_operations" json:"max_operations"`
	MaxSizeMB         int  `mapstructure:"max_size_mb" json:"max_size_mb"`
	SkipLargeFilesMB  int  `mapstructure:"skip_large_files_mb" json:"skip_large_files_mb"`
	RetentionDays     int  `mapstructure:"retention_days" json:"retention_days"`
}

// PrivacyConfig controls Redactor usage in logs.
type PrivacyConfig struct {
	NoExternalCommunication bool     `mapstructure:"no_external_communication" json:"no_external_communication"`
	RedactSensitiveInLogs   bool     `mapstructure:"redact_sensitive_in_logs" json:"redact_sensitive_in_logs"`
	SensitivePatterns       []string `mapstructure:"sensitive_patterns" json:"sensitive_patterns"`
}

// WatchConfig controls the external directory-watcher collaborator.
type WatchConfig struct {
	Enabled              bool `mapstructure:"enabled" json:"enabled"`
	BatchIntervalSeconds int  `mapstructure:"batch_interval_seconds" json:"batch_interval_seconds"`
	AutoApproveLowRisk   bool `mapstructure:"auto_approve_low_risk" json:"auto_approve_low_risk"`
	QueueMediumRisk      bool `mapstructure:"queue_medium_risk" json:"queue_medium_risk"`
	QueueHighRisk        bool `mapstructure:"queue_high_risk" json:"queue_high_risk"`
}

// ResolvePath resolves the configuration file path in priority order:
// an explicit path, the SMARTFILE_CONFIG environment variable,
// $HOME/.organizer/config.json (if it exists), ./config.json (if it
// exists), falling back to the home location so it can be created.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return utils.ExpandUser(explicit), nil
	}
	if env := os.Getenv(ConfigEnvVar); env != "" {
		return utils.ExpandUser(env), nil
	}

	orgDir, err := utils.OrganizerDir()
	if err != nil {
		return "", err
	}
	homeConfig := filepath.Join(orgDir, "config.json")
	if _, err := os.Stat(homeConfig); err == nil {
		return homeConfig, nil
	}

	if _, err := os.Stat("config.json"); err == nil {
		return "config.json", nil
	}

	return homeConfig, nil
}

// Load reads configuration from path, falling back to defaults if the
// file does not exist, and fills in any defaulted field left zero by a
// partial file.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Save writes cfg to path as indented JSON, creating parent directories
// as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultRuleOrder is the Categorizer's L1 rule evaluation order: finance
// is always checked first (its extension+keyword match is more specific
// than a bare extension match), the rest of the table follows, ordered
// rather than left to Go's undefined map iteration order.
var DefaultRuleOrder = []string{
	"finance", "documents", "images", "code", "videos", "audio", "archives",
}

// DefaultConfig returns the organizer's built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0.0",
		AI: AIConfig{
			Primary:  "ollama",
			Fallback: "rule-based",
			Models: map[string]AIModel{
				"ollama": {
					Endpoint:      "http://localhost:11434",
					Model:         "llama3.3",
					FallbackModel: "qwen2.5",
					Timeout:       30,
				},
				"openai": {
					Model:   "gpt-4o-mini",
					Enabled: false,
				},
				"anthropic": {
					Model:   "claude-3-sonnet-20240229",
					Enabled: false,
				},
			},
		},
		Rules: map[string]Rule{
			"documents": {Extensions: []string{".pdf", ".doc", ".docx", ".txt", ".md"}, Folder: "Documents"},
			"images":    {Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg"}, Folder: "Images"},
			"code":      {Extensions: []string{".py", ".js", ".java", ".cpp", ".c", ".h", ".go", ".rs"}, Folder: "Code"},
			"videos":    {Extensions: []string{".mp4", ".avi", ".mkv", ".mov", ".wmv"}, Folder: "Videos"},
			"audio":     {Extensions: []string{".mp3", ".wav", ".flac", ".aac", ".ogg"}, Folder: "Audio"},
			"archives":  {Extensions: []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"}, Folder: "Archives"},
			"finance": {
				Extensions: []string{".xlsx", ".xls", ".csv"},
				Folder:     "Finance",
				Keywords:   []string{"invoice", "receipt", "statement", "tax", "payment"},
			},
		},
		RuleOrder: append([]string(nil), DefaultRuleOrder...),
		Preferences: PreferencesConfig{
			CreateDateFolders:    false,
			BackupBeforeMove:     true,
			DryRun:               false,
			AutoApproveThreshold: 30,
			IgnoreHidden:         true,
		},
		Backup: BackupConfig{
			Enabled:          true,
			MaxOperations:    100,
			MaxSizeMB:        5000,
			SkipLargeFilesMB: 500,
			RetentionDays:    30,
		},
		Privacy: PrivacyConfig{
			NoExternalCommunication: true,
			RedactSensitiveInLogs:   true,
			SensitivePatterns:       []string{"SSN", "CreditCard", "APIKey", "Password", "Email", "Phone"},
		},
		Watch: WatchConfig{
			Enabled:              false,
			BatchIntervalSeconds: 300,
			AutoApproveLowRisk:   true,
			QueueMediumRisk:      true,
			QueueHighRisk:        true,
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.AI.Primary == "" {
		cfg.AI.Primary = defaults.AI.Primary
	}
	if cfg.AI.Fallback == "" {
		cfg.AI.Fallback = defaults.AI.Fallback
	}
	if len(cfg.AI.Models) == 0 {
		cfg.AI.Models = defaults.AI.Models
	}
	if len(cfg.Rules) == 0 {
		cfg.Rules = defaults.Rules
	}
	if len(cfg.RuleOrder) == 0 {
		cfg.RuleOrder = append([]string(nil), DefaultRuleOrder...)
	}
	if cfg.Preferences.AutoApproveThreshold == 0 {
		cfg.Preferences.AutoApproveThreshold = defaults.Preferences.AutoApproveThreshold
	}
	if cfg.Backup.SkipLargeFilesMB == 0 {
		cfg.Backup.SkipLargeFilesMB = defaults.Backup.SkipLargeFilesMB
	}
	if cfg.Backup.RetentionDays == 0 {
		cfg.Backup.RetentionDays = defaults.Backup.RetentionDays
	}
	if cfg.Backup.MaxOperations == 0 {
		cfg.Backup.MaxOperations = defaults.Backup.MaxOperations
	}
	if cfg.Backup.MaxSizeMB == 0 {
		cfg.Backup.MaxSizeMB = defaults.Backup.MaxSizeMB
	}
	if len(cfg.Privacy.SensitivePatterns) == 0 {
		cfg.Privacy.SensitivePatterns = defaults.Privacy.SensitivePatterns
	}
	if cfg.Watch.BatchIntervalSeconds == 0 {
		cfg.Watch.BatchIntervalSeconds = defaults.Watch.BatchIntervalSeconds
	}
}

// Get looks up a dot-notation key (e.g. "ai.models.ollama.endpoint")
// against the JSON representation of cfg, mirroring the original
// configuration accessor for the CLI's `config --show` path.
func Get(cfg *Config, key string) (any, bool) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, false
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}

	var cur any = raw
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
