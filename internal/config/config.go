// Package config loads and normalizes gitgov-audit's YAML configuration,
// applying GITGOV_AUDIT_* environment overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DetectorsConfig toggles which detection tiers run.
type DetectorsConfig struct {
	Regex     bool `yaml:"regex"`
	Heuristic bool `yaml:"heuristic"`
	LLM       bool `yaml:"llm"`
}

// LLMConfig configures the semantic detection tier's endpoint and quota.
type LLMConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Endpoint     string `yaml:"endpoint"`
	APIKeyEnvVar string `yaml:"api_key_env_var"`
	QuotaType    string `yaml:"quota_type"` // unlimited, trial, usage-based
	RemainingUse int    `yaml:"remaining_uses"`
	ExpiresAt    int64  `yaml:"expires_at,omitempty"`
}

// RuleOverride changes a canonical rule's severity or disables it entirely.
type RuleOverride struct {
	RuleID   string `yaml:"rule_id"`
	Severity string `yaml:"severity,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// RecordStoreConfig points at the external Record Store, falling back to
// the bundled sqlite implementation when Path is set and DSN is empty.
type RecordStoreConfig struct {
	DSN  string `yaml:"dsn,omitempty"`
	Path string `yaml:"path,omitempty"`
}

// ActorConfig configures actor resolution for waiver authoring.
type ActorConfig struct {
	EnvVar string `yaml:"env_var,omitempty"`
}

// VCSConfig selects and configures the changed-files provider.
type VCSConfig struct {
	Provider  string `yaml:"provider,omitempty"` // "git" or "github"
	GitHubPR  int    `yaml:"github_pr,omitempty"`
	GitHubOrg string `yaml:"github_owner,omitempty"`
	GitHubRepo string `yaml:"github_repo,omitempty"`
}

// Config is the full gitgov-audit configuration, loaded from
// .gitgov/audit.yaml and overridden by environment variables.
type Config struct {
	Detectors     DetectorsConfig `yaml:"detectors"`
	LLM           LLMConfig       `yaml:"llm"`
	RuleOverrides []RuleOverride  `yaml:"rule_overrides,omitempty"`
	RecordStore   RecordStoreConfig `yaml:"record_store"`
	Actor         ActorConfig     `yaml:"actor"`
	VCS           VCSConfig       `yaml:"vcs"`

	DisableMetrics bool `yaml:"disable_metrics"`
	LogLevel       string `yaml:"log_level"`

	DefaultFailOn string `yaml:"default_fail_on"`
}

const configRelPath = ".gitgov/audit.yaml"

// ConfigPath returns the config file path rooted at projectDir.
func ConfigPath(projectDir string) string {
	return filepath.Join(projectDir, configRelPath)
}

func defaultConfig() Config {
	return Config{
		Detectors: DetectorsConfig{Regex: true, Heuristic: true, LLM: false},
		RecordStore: RecordStoreConfig{
			Path: ".gitgov/audit.db",
		},
		Actor: ActorConfig{EnvVar: "GITGOV_AUDIT_ACTOR_ID"},
		VCS:   VCSConfig{Provider: "git"},
		LogLevel:      "info",
		DefaultFailOn: "high",
	}
}

// Load reads .gitgov/audit.yaml under projectDir (if present), loads a
// .env file for secret material, and applies GITGOV_AUDIT_* environment
// overrides. A missing config file is not an error; defaults apply.
func Load(projectDir string) (Config, error) {
	_ = godotenv.Load(filepath.Join(projectDir, ".env"))

	cfg := defaultConfig()

	path := ConfigPath(projectDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
	} else if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GITGOV_AUDIT_DISABLE_METRICS"); v != "" {
		cfg.DisableMetrics = truthy(v)
	}
	if v := os.Getenv("GITGOV_AUDIT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("GITGOV_AUDIT_FAIL_ON"); v != "" {
		cfg.DefaultFailOn = v
	}
	if v := os.Getenv("GITGOV_AUDIT_LLM_ENABLED"); v != "" {
		cfg.LLM.Enabled = truthy(v)
	}
	if v := os.Getenv("GITGOV_AUDIT_LLM_ENDPOINT"); v != "" {
		cfg.LLM.Endpoint = v
	}
	if v := os.Getenv("GITGOV_AUDIT_RECORD_STORE_DSN"); v != "" {
		cfg.RecordStore.DSN = v
	}
	if v := os.Getenv("GITGOV_AUDIT_RECORD_STORE_PATH"); v != "" {
		cfg.RecordStore.Path = v
	}
	if v := os.Getenv("GITGOV_AUDIT_ACTOR_ENV_VAR"); v != "" {
		cfg.Actor.EnvVar = v
	}
	if v := os.Getenv("GITGOV_AUDIT_GITHUB_TOKEN"); v != "" {
		cfg.VCS.Provider = "github"
	}
	if v := os.Getenv("GITGOV_AUDIT_GITHUB_PR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.VCS.GitHubPR = n
		}
	}
}

func truthy(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	return v == "1" || v == "true" || v == "yes"
}
