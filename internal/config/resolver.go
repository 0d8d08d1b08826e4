// Package config resolves tubescope configuration from a YAML file,
// environment variables and CLI flags, in that precedence order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// ResolvedValue carries a setting together with where it came from, so
// `tubescope stats` can show operators which layer won.
type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries CLI overrides into resolution.
type ResolveOptions struct {
	ConfigPath  string
	CLIDBPath   string
	CLIHistory  string
	CLICSVPath  string
	CLILLM      string
	CLILogLevel string
}

// Pipeline holds the batch-pipeline tunables. Defaults mirror the values the
// pipeline was originally tuned with.
type Pipeline struct {
	SyncBatchSize       int      `yaml:"sync_batch_size"`
	ChannelTopKeywords  int      `yaml:"channel_top_keywords"`
	CategoryTopKeywords int      `yaml:"category_top_keywords"`
	MaxClusters         int      `yaml:"max_clusters"`
	MaxVideoHours       int      `yaml:"max_video_hours"`
	Fallback            string   `yaml:"fallback"` // "forest" or "similarity"
	ExcludedChannels    []string `yaml:"excluded_channels"`
	ProtectedChannels   []string `yaml:"protected_channels"`
}

// ResolvedConfig is the merged configuration for one invocation.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath      ResolvedValue `json:"db_path"`
	HistoryPath ResolvedValue `json:"history_path"`
	CSVPath     ResolvedValue `json:"csv_path"`
	LogLevel    ResolvedValue `json:"log_level"`

	YouTubeAPIKey ResolvedValue `json:"youtube_api_key"`
	LLMProvider   ResolvedValue `json:"llm_provider"`
	LLMAPIKey     ResolvedValue `json:"llm_api_key"`

	Pipeline Pipeline `json:"pipeline"`
}

type fileConfig struct {
	DBPath      string `yaml:"db_path"`
	HistoryPath string `yaml:"history_path"`
	CSVPath     string `yaml:"csv_path"`
	LogLevel    string `yaml:"log_level"`
	YouTube     struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"youtube"`
	LLM struct {
		Provider string `yaml:"provider"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"llm"`
	Pipeline Pipeline `yaml:"pipeline"`
}

// DefaultPipeline returns the built-in tunables.
func DefaultPipeline() Pipeline {
	return Pipeline{
		SyncBatchSize:       10,
		ChannelTopKeywords:  7,
		CategoryTopKeywords: 20,
		MaxClusters:         10,
		MaxVideoHours:       4,
		Fallback:            "forest",
	}
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tubescope", "config.yaml")
}

// Resolve merges file, environment and CLI layers.
func Resolve(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath: path,
		Pipeline:   DefaultPipeline(),
	}
	apply(&out.CSVPath, "watch-history.csv", SourceDefault, "built-in default")
	apply(&out.HistoryPath, "watch-history.json", SourceDefault, "built-in default")
	apply(&out.LogLevel, "info", SourceDefault, "built-in default")

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.HistoryPath, cfg.HistoryPath, SourceConfig, path)
		apply(&out.CSVPath, cfg.CSVPath, SourceConfig, path)
		apply(&out.LogLevel, cfg.LogLevel, SourceConfig, path)
		apply(&out.YouTubeAPIKey, cfg.YouTube.APIKey, SourceConfig, path)
		apply(&out.LLMProvider, cfg.LLM.Provider, SourceConfig, path)
		apply(&out.LLMAPIKey, cfg.LLM.APIKey, SourceConfig, path)
		mergePipeline(&out.Pipeline, cfg.Pipeline)
	}

	applyEnv(&out.DBPath, "TUBESCOPE_DB")
	applyEnv(&out.HistoryPath, "TUBESCOPE_HISTORY")
	applyEnv(&out.CSVPath, "TUBESCOPE_CSV")
	applyEnv(&out.LogLevel, "TUBESCOPE_LOG_LEVEL")
	applyEnv(&out.YouTubeAPIKey, "YOUTUBE_API_KEY")
	applyEnv(&out.LLMProvider, "TUBESCOPE_LLM")
	applyEnv(&out.LLMAPIKey, "OPENAI_API_KEY")
	applyEnv(&out.LLMAPIKey, "OPENROUTER_API_KEY")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.HistoryPath, opts.CLIHistory, SourceCLI, "--history")
	apply(&out.CSVPath, opts.CLICSVPath, SourceCLI, "--csv")
	apply(&out.LLMProvider, opts.CLILLM, SourceCLI, "--llm")
	apply(&out.LogLevel, opts.CLILogLevel, SourceCLI, "--log-level")

	if out.DBPath.Value != "" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}
	return out, nil
}

func mergePipeline(dst *Pipeline, src Pipeline) {
	if src.SyncBatchSize > 0 {
		dst.SyncBatchSize = src.SyncBatchSize
	}
	if src.ChannelTopKeywords > 0 {
		dst.ChannelTopKeywords = src.ChannelTopKeywords
	}
	if src.CategoryTopKeywords > 0 {
		dst.CategoryTopKeywords = src.CategoryTopKeywords
	}
	if src.MaxClusters > 0 {
		dst.MaxClusters = src.MaxClusters
	}
	if src.MaxVideoHours > 0 {
		dst.MaxVideoHours = src.MaxVideoHours
	}
	if strings.TrimSpace(src.Fallback) != "" {
		dst.Fallback = strings.ToLower(strings.TrimSpace(src.Fallback))
	}
	if len(src.ExcludedChannels) > 0 {
		dst.ExcludedChannels = src.ExcludedChannels
	}
	if len(src.ProtectedChannels) > 0 {
		dst.ProtectedChannels = src.ProtectedChannels
	}
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
