// Package config loads the optional YAML configuration file.
//
// Decoding is strict: unknown keys are errors, so a typo never silently
// falls back to a default.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/mdprint/internal/toc"
	"github.com/alnah/mdprint/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength      = 4096
	MaxURLLength       = 2048 // Browser limit
	MaxNameLength      = 100  // Style and highlight style names
	MaxTitleLength     = 200  // Document title
	MaxTOCTitleLength  = 100  // TOC title
	MaxFormatLength    = 10   // "letter", "a4", "legal"
	MaxMarginLength    = 100  // "1in 0.5in 1in 0.5in"
	MaxExtensionLength = 16   // ".pdf", ".html"
)

// dirName is the directory under the user config dir searched for configs.
const dirName = "mdprint"

// Config holds all configuration for document generation.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Style    StyleConfig    `yaml:"style"`
	Assets   AssetsConfig   `yaml:"assets"`
	Page     PageConfig     `yaml:"page"`
	TOC      TOCConfig      `yaml:"toc"`
	Document DocumentConfig `yaml:"document"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
	// LinkExtension replaces .md links, e.g. ".pdf". Empty = derived from output.
	LinkExtension string `yaml:"linkExtension"`
}

// StyleConfig defines CSS options.
type StyleConfig struct {
	Theme     string `yaml:"theme"`     // Embedded or assets theme name (default: "default")
	Highlight string `yaml:"highlight"` // Chroma style name, "none" disables (default: "github")
	CSS       string `yaml:"css"`       // Extra stylesheet path, appended after the theme
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath   string `yaml:"basePath"`   // Custom styles/ and templates/ (empty = embedded only)
	RuntimeDir string `yaml:"runtimeDir"` // Local MathJax/mermaid scripts (empty = CDN)
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Format         string `yaml:"format"`         // "letter", "a4", ... (default: "letter")
	Margin         string `yaml:"margin"`         // CSS shorthand, 1-4 lengths (default: "0.5in")
	Landscape      bool   `yaml:"landscape"`
	HeaderTemplate string `yaml:"headerTemplate"` // Path to Chrome header template HTML
	FooterTemplate string `yaml:"footerTemplate"` // Path to Chrome footer template HTML
}

// TOCConfig defines table of contents options.
type TOCConfig struct {
	Enabled  *bool  `yaml:"enabled"`  // nil = frontmatter or [TOC] decides
	Title    string `yaml:"title"`    // Empty = no title above TOC
	MaxDepth int    `yaml:"maxDepth"` // 1-6, default 3
	Numbered bool   `yaml:"numbered"` // Prefix entries with outline numbers
}

// DocumentConfig defines content options.
type DocumentConfig struct {
	Title    string `yaml:"title"`    // Overrides frontmatter title
	Template string `yaml:"template"` // Page template path
	Math     *bool  `yaml:"math"`     // nil = enabled unless frontmatter disables
	Mermaid  *bool  `yaml:"mermaid"`  // nil = enabled unless frontmatter disables
}

// Validate checks field lengths and ranges. Called automatically by
// LoadConfig, but available for consumers who construct Config manually.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"input.defaultDir", c.Input.DefaultDir, MaxPathLength},
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"output.linkExtension", c.Output.LinkExtension, MaxExtensionLength},
		{"style.theme", c.Style.Theme, MaxNameLength},
		{"style.highlight", c.Style.Highlight, MaxNameLength},
		{"style.css", c.Style.CSS, MaxPathLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"assets.runtimeDir", c.Assets.RuntimeDir, MaxPathLength},
		{"page.format", c.Page.Format, MaxFormatLength},
		{"page.margin", c.Page.Margin, MaxMarginLength},
		{"page.headerTemplate", c.Page.HeaderTemplate, MaxPathLength},
		{"page.footerTemplate", c.Page.FooterTemplate, MaxPathLength},
		{"toc.title", c.TOC.Title, MaxTOCTitleLength},
		{"document.title", c.Document.Title, MaxTitleLength},
		{"document.template", c.Document.Template, MaxPathLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if c.TOC.MaxDepth != 0 {
		if err := toc.ValidateDepth(c.TOC.MaxDepth); err != nil {
			return fmt.Errorf("%w: toc.maxDepth: %v", ErrInvalidValue, err)
		}
	}

	if ext := c.Output.LinkExtension; ext != "" {
		if !strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, "/\\?# ") {
			return fmt.Errorf("%w: output.linkExtension %q must look like \".pdf\"", ErrInvalidValue, ext)
		}
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a configuration that defers every choice to flags,
// frontmatter and built-in defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SearchPaths lists where LoadConfig looks for a config name, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, dirName, name+ext))
		}
	}
	return paths
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, $XDG_CONFIG_HOME/mdprint/
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
