package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-mdconv/internal/config"
)

// envPrefix marks the environment variables mdconv reads.
const envPrefix = "MDCONV_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // MDCONV_CONFIG: config file name or path
	Timeout    time.Duration // MDCONV_TIMEOUT: page load timeout
	Workers    int           // MDCONV_WORKERS: parallel workers
	OutputDir  string        // MDCONV_OUTPUT_DIR: output directory
	Types      string        // MDCONV_TYPES: comma separated output types
	Locale     string        // MDCONV_LOCALE: date and message locale
	LogLevel   string        // MDCONV_LOG_LEVEL: none, normal, debug
	AssetPath  string        // MDCONV_ASSET_PATH: custom styles and templates
}

// knownEnvVars lists valid MDCONV_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MDCONV_CONFIG":     true,
	"MDCONV_TIMEOUT":    true,
	"MDCONV_WORKERS":    true,
	"MDCONV_OUTPUT_DIR": true,
	"MDCONV_TYPES":      true,
	"MDCONV_LOCALE":     true,
	"MDCONV_LOG_LEVEL":  true,
	"MDCONV_ASSET_PATH": true,
}

// loadEnvConfig reads the recognized MDCONV_* values. Malformed numbers and
// durations are ignored; an integer MDCONV_WORKERS is kept as is and range
// checked by runConvert.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("MDCONV_CONFIG"),
		OutputDir:  getenv("MDCONV_OUTPUT_DIR"),
		Types:      getenv("MDCONV_TYPES"),
		Locale:     getenv("MDCONV_LOCALE"),
		LogLevel:   getenv("MDCONV_LOG_LEVEL"),
		AssetPath:  getenv("MDCONV_ASSET_PATH"),
	}

	if timeout := getenv("MDCONV_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if workers := getenv("MDCONV_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			cfg.Workers = w
		}
	}
	return cfg
}

// unknownEnvVars returns unrecognized MDCONV_* variable names.
// Helps catch typos like MDCONV_LOCAL instead of MDCONV_LOCALE.
func unknownEnvVars(environ []string) []string {
	var unknown []string
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// applyEnvConfig overrides config values with set environment variables.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.OutputDir != "" {
		cfg.Output.Dir = env.OutputDir
	}
	if types := splitList(env.Types); len(types) > 0 {
		cfg.Output.Types = types
	}
	if env.Locale != "" {
		cfg.Dates.Locale = env.Locale
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}
	if env.AssetPath != "" {
		cfg.Assets.BasePath = env.AssetPath
	}
}

// splitList splits a comma separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
