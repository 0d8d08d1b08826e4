package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	return path
}

func TestResolveDefaults(t *testing.T) {
	cfg, err := Resolve(ResolveOptions{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if cfg.CSVPath.Value != "watch-history.csv" || cfg.CSVPath.Source != SourceDefault {
		t.Errorf("unexpected CSV default: %+v", cfg.CSVPath)
	}
	if cfg.LogLevel.Value != "info" {
		t.Errorf("unexpected log level default: %+v", cfg.LogLevel)
	}

	p := cfg.Pipeline
	if p.SyncBatchSize != 10 || p.ChannelTopKeywords != 7 || p.CategoryTopKeywords != 20 ||
		p.MaxClusters != 10 || p.MaxVideoHours != 4 || p.Fallback != "forest" {
		t.Errorf("unexpected pipeline defaults: %+v", p)
	}
}

func TestResolveReadsConfigFile(t *testing.T) {
	path := writeConfig(t, `
db_path: /tmp/tubescope.db
log_level: debug
youtube:
  api_key: file-key
pipeline:
  sync_batch_size: 25
  fallback: Similarity
  excluded_channels:
    - Ambient Loops
`)

	cfg, err := Resolve(ResolveOptions{ConfigPath: path})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if cfg.DBPath.Value != "/tmp/tubescope.db" || cfg.DBPath.Source != SourceConfig {
		t.Errorf("unexpected db path: %+v", cfg.DBPath)
	}
	if cfg.LogLevel.Value != "debug" {
		t.Errorf("unexpected log level: %+v", cfg.LogLevel)
	}
	if cfg.YouTubeAPIKey.Value != "file-key" {
		t.Errorf("unexpected API key: %+v", cfg.YouTubeAPIKey)
	}
	if cfg.Pipeline.SyncBatchSize != 25 {
		t.Errorf("unexpected batch size: %d", cfg.Pipeline.SyncBatchSize)
	}
	if cfg.Pipeline.Fallback != "similarity" {
		t.Errorf("expected fallback lowercased, got %q", cfg.Pipeline.Fallback)
	}
	if len(cfg.Pipeline.ExcludedChannels) != 1 || cfg.Pipeline.ExcludedChannels[0] != "Ambient Loops" {
		t.Errorf("unexpected exclusions: %v", cfg.Pipeline.ExcludedChannels)
	}
	// Unset tunables keep their defaults.
	if cfg.Pipeline.MaxClusters != 10 {
		t.Errorf("expected default max clusters, got %d", cfg.Pipeline.MaxClusters)
	}
}

func TestResolveEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "db_path: /from/file.db\n")
	t.Setenv("TUBESCOPE_DB", "/from/env.db")

	cfg, err := Resolve(ResolveOptions{ConfigPath: path})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if cfg.DBPath.Value != "/from/env.db" {
		t.Errorf("expected env to win over file, got %+v", cfg.DBPath)
	}
	if cfg.DBPath.Source != SourceEnv || cfg.DBPath.From != "TUBESCOPE_DB" {
		t.Errorf("unexpected provenance: %+v", cfg.DBPath)
	}
}

func TestResolveCLIOverridesEnv(t *testing.T) {
	t.Setenv("TUBESCOPE_DB", "/from/env.db")

	cfg, err := Resolve(ResolveOptions{
		ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"),
		CLIDBPath:  "/from/cli.db",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if cfg.DBPath.Value != "/from/cli.db" || cfg.DBPath.Source != SourceCLI {
		t.Errorf("expected CLI to win, got %+v", cfg.DBPath)
	}
}

func TestResolveRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "db_path: [unclosed\n")
	if _, err := Resolve(ResolveOptions{ConfigPath: path}); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestResolveExpandsHomeInDBPath(t *testing.T) {
	cfg, err := Resolve(ResolveOptions{
		ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"),
		CLIDBPath:  "~/data/tubescope.db",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	want := filepath.Join(home, "data", "tubescope.db")
	if cfg.DBPath.Value != want {
		t.Errorf("expected %q, got %q", want, cfg.DBPath.Value)
	}
}
