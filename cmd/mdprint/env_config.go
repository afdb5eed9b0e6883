package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/mdprint/internal/config"
)

// envPrefix marks the variables this tool reads.
const envPrefix = "MDPRINT_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // MDPRINT_CONFIG: config file name or path
	Timeout    time.Duration // MDPRINT_TIMEOUT: per-document timeout
	Workers    int           // MDPRINT_WORKERS: parallel workers

	Format     string // MDPRINT_FORMAT: paper format
	Margin     string // MDPRINT_MARGIN: CSS margin shorthand
	InputDir   string // MDPRINT_INPUT_DIR: default input directory
	OutputDir  string // MDPRINT_OUTPUT_DIR: default output directory
	Style      string // MDPRINT_STYLE: theme name, CSS path or URL
	RuntimeDir string // MDPRINT_RUNTIME_DIR: local MathJax/mermaid scripts
}

// knownEnvVars lists valid MDPRINT_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MDPRINT_CONFIG":      true,
	"MDPRINT_TIMEOUT":     true,
	"MDPRINT_WORKERS":     true,
	"MDPRINT_FORMAT":      true,
	"MDPRINT_MARGIN":      true,
	"MDPRINT_INPUT_DIR":   true,
	"MDPRINT_OUTPUT_DIR":  true,
	"MDPRINT_STYLE":       true,
	"MDPRINT_RUNTIME_DIR": true,
}

// loadEnvConfig reads configuration through getenv. Malformed durations
// and counts are logged and ignored.
func loadEnvConfig(getenv func(string) string, logger zerolog.Logger) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("MDPRINT_CONFIG"),
		Format:     getenv("MDPRINT_FORMAT"),
		Margin:     getenv("MDPRINT_MARGIN"),
		InputDir:   getenv("MDPRINT_INPUT_DIR"),
		OutputDir:  getenv("MDPRINT_OUTPUT_DIR"),
		Style:      getenv("MDPRINT_STYLE"),
		RuntimeDir: getenv("MDPRINT_RUNTIME_DIR"),
	}

	if timeout := getenv("MDPRINT_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		} else {
			logger.Warn().Str("value", timeout).Msg("ignoring invalid MDPRINT_TIMEOUT")
		}
	}

	if workers := getenv("MDPRINT_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		} else {
			logger.Warn().Str("value", workers).Msg("ignoring invalid MDPRINT_WORKERS")
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MDPRINT_* variables.
// Helps catch typos like MDPRINT_MARGINS.
func warnUnknownEnvVars(environ []string, logger zerolog.Logger) {
	for _, env := range environ {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			logger.Warn().Str("name", name).Msg("unknown environment variable (typo?)")
		}
	}
}

// applyEnvConfig overwrites config file values with the environment.
// Flags are merged afterwards, giving flags > env > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Format != "" {
		cfg.Page.Format = env.Format
	}
	if env.Margin != "" {
		cfg.Page.Margin = env.Margin
	}
	if env.InputDir != "" {
		cfg.Input.DefaultDir = env.InputDir
	}
	if env.OutputDir != "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.Style != "" {
		cfg.Style.Theme = env.Style
	}
	if env.RuntimeDir != "" {
		cfg.Assets.RuntimeDir = env.RuntimeDir
	}
}
