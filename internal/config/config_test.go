package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigParses(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("embedded default config failed to parse: %v", err)
	}
	if len(cfg.Sources.Feeds) == 0 {
		t.Error("expected default feeds")
	}
	if cfg.Dedup.SimilarityThreshold != 0.8 {
		t.Errorf("expected threshold 0.8, got %v", cfg.Dedup.SimilarityThreshold)
	}
	if cfg.Dedup.HistoryDays != 30 {
		t.Errorf("expected 30 history days, got %d", cfg.Dedup.HistoryDays)
	}
	if cfg.Slug.Prefix != "ai-news-" {
		t.Errorf("expected slug prefix, got %q", cfg.Slug.Prefix)
	}
}

func TestPartialConfigGetsDefaults(t *testing.T) {
	cfg, err := parse([]byte(`
sources:
  feeds:
    - url: https://example.com/rss
      name: Example
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.Dedup.SimilarityThreshold != 0.8 {
		t.Errorf("expected default threshold, got %v", cfg.Dedup.SimilarityThreshold)
	}
	if cfg.WordPress.AppPassEnv != "WP_APP_PASS" {
		t.Errorf("expected default app_pass_env, got %q", cfg.WordPress.AppPassEnv)
	}
	if cfg.Run.Workers != 4 {
		t.Errorf("expected default workers, got %d", cfg.Run.Workers)
	}
}

func TestExplicitValuesOverrideDefaults(t *testing.T) {
	cfg, err := parse([]byte(`
dedup:
  similarity_threshold: 0.9
  history_days: 7
run:
  workers: 2
  timeout_minutes: 3
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.Dedup.SimilarityThreshold != 0.9 {
		t.Errorf("expected 0.9, got %v", cfg.Dedup.SimilarityThreshold)
	}
	if cfg.Dedup.HistoryDays != 7 {
		t.Errorf("expected 7, got %d", cfg.Dedup.HistoryDays)
	}
	if cfg.RunTimeout() != 3*time.Minute {
		t.Errorf("expected 3m timeout, got %v", cfg.RunTimeout())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []string{
		"dedup:\n  similarity_threshold: 1.5",
		"dedup:\n  similarity_threshold: -0.1",
		"dedup:\n  similarity_threshold: 0",
		"dedup:\n  history_days: 0",
		"run:\n  workers: 0",
		"slug:\n  prefix: ai-news-\n  max_length: 5",
	}
	for _, c := range cases {
		if _, err := parse([]byte(c)); err == nil {
			t.Errorf("expected validation error for %q", c)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("sources: [unbalanced"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestResolveConfigPathExplicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, DefaultConfigYAML, 0o644)

	got, err := ResolveConfigPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != path {
		t.Errorf("expected explicit path, got %s", got)
	}

	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing explicit path")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	if !strings.Contains(cfg.GetDataDir(), "newsround") {
		t.Errorf("expected XDG default, got %s", cfg.GetDataDir())
	}

	cfg.Output.DataDir = "/tmp/custom"
	if cfg.GetDataDir() != "/tmp/custom" {
		t.Errorf("expected configured dir, got %s", cfg.GetDataDir())
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := &Config{}
	if cfg.RunTimeout() != 10*time.Minute {
		t.Errorf("expected 10m default, got %v", cfg.RunTimeout())
	}
	if cfg.RetryDelay() != 2*time.Second {
		t.Errorf("expected 2s default, got %v", cfg.RetryDelay())
	}

	cfg.Enrich.RetryDelaySec = 5
	if cfg.RetryDelay() != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.RetryDelay())
	}
}
