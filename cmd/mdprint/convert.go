package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/mdprint"
	"github.com/alnah/mdprint/internal/config"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrReadTemplate       = errors.New("failed to read page template")
	ErrInvalidTimeout     = errors.New("invalid timeout")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrConversionFailed   = errors.New("conversion failed")
)

// defaultConfigName is looked up silently when no config is requested.
const defaultConfigName = "mdprint"

// conversionParams groups parameters shared across batch/file conversion.
type conversionParams struct {
	page          *mdprint.PageSettings
	toc           *bool
	tocDepth      int
	tocTitle      string
	tocNumbered   bool
	math          *bool
	mermaid       *bool
	cssPath       string
	templatePath  string
	title         string
	linkExtension string
	htmlOutput    bool
	htmlOnly      bool
}

// input builds the library input for one document.
func (p *conversionParams) input(markdown, sourceDir string) mdprint.Input {
	return mdprint.Input{
		Markdown:      markdown,
		SourceDir:     sourceDir,
		Page:          p.page,
		TOC:           p.toc,
		TOCDepth:      p.tocDepth,
		TOCTitle:      p.tocTitle,
		TOCNumbered:   p.tocNumbered,
		Math:          p.math,
		Mermaid:       p.mermaid,
		CSSPath:       p.cssPath,
		TemplatePath:  p.templatePath,
		Title:         p.title,
		LinkExtension: p.linkExtension,
		HTMLOnly:      p.htmlOnly,
	}
}

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, args []string, flags *convertFlags, deps *Dependencies, logger zerolog.Logger, hc *hintContext) error {
	// Validate worker count early
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	env := loadEnvConfig(deps.Getenv, logger)
	warnUnknownEnvVars(deps.Environ(), logger)

	configName := flags.common.config
	if configName == "" {
		configName = env.ConfigPath
	}
	hc.configName = configName

	cfg, err := loadConfig(configName)
	if err != nil {
		return err
	}

	// flags > env > config file > defaults
	applyEnvConfig(env, cfg)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	hc.runtimeDir = cfg.Assets.RuntimeDir

	timeout, err := resolveTimeout(flags.timeout, env.Timeout)
	if err != nil {
		return err
	}

	inputs, err := resolveInputs(args, cfg)
	if err != nil {
		return err
	}

	outputExt := pdfExt
	if flags.outputMode.htmlOnly {
		outputExt = htmlExt
	}

	outputDir := resolveOutputDir(flags.output, cfg)
	files, err := discoverFiles(inputs, outputDir, outputExt)
	if err != nil {
		return err
	}

	params, err := buildConversionParams(cfg, flags, outputExt)
	if err != nil {
		return err
	}

	workers := flags.workers
	if workers == 0 {
		workers = env.Workers
	}
	size := min(mdprint.ResolvePoolSize(workers), len(files))
	if flags.watch {
		size = mdprint.ResolvePoolSize(workers)
	}

	logger.Debug().Int("files", len(files)).Int("workers", size).Msg("starting conversion")

	pool := deps.NewPool(size, converterOptions(cfg, flags, timeout, logger)...)
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing browsers")
		}
	}()

	results := convertBatch(ctx, pool, files, params)
	printResults(results, flags.common, deps, logger, hc)

	if flags.watch {
		if !flags.common.quiet {
			fmt.Fprintln(deps.Stdout, "Watching for changes (Ctrl+C to stop)")
		}
		return runWatch(ctx, inputs, files, outputDir, outputExt, func(ctx context.Context, changed []FileToConvert) {
			printResults(convertBatch(ctx, pool, changed, params), flags.common, deps, logger, hc)
		}, logger)
	}

	return batchError(results)
}

// loadConfig loads the named config. Without a name the default config
// is used when one exists and built-in defaults otherwise.
func loadConfig(name string) (*config.Config, error) {
	if name == "" {
		cfg, err := config.LoadConfig(defaultConfigName)
		if errors.Is(err, config.ErrConfigNotFound) {
			return config.DefaultConfig(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadConfig(name)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	// Page flags
	if flags.page.format != "" {
		cfg.Page.Format = flags.page.format
	}
	if flags.page.margin != "" {
		cfg.Page.Margin = flags.page.margin
	}
	if flags.page.landscape {
		cfg.Page.Landscape = true
	}
	if flags.page.headerTemplate != "" {
		cfg.Page.HeaderTemplate = flags.page.headerTemplate
	}
	if flags.page.footerTemplate != "" {
		cfg.Page.FooterTemplate = flags.page.footerTemplate
	}

	// TOC flags
	if flags.toc.enabled {
		cfg.TOC.Enabled = boolPtr(true)
	}
	if flags.toc.depth != 0 {
		cfg.TOC.MaxDepth = flags.toc.depth
	}
	if flags.toc.title != "" {
		cfg.TOC.Title = flags.toc.title
	}
	if flags.toc.numbered {
		cfg.TOC.Numbered = true
	}

	// Document flags
	if flags.document.title != "" {
		cfg.Document.Title = flags.document.title
	}
	if flags.document.template != "" {
		cfg.Document.Template = flags.document.template
	}
	if flags.document.css != "" {
		cfg.Style.CSS = flags.document.css
	}

	// Asset flags
	if flags.assets.style != "" {
		cfg.Style.Theme = flags.assets.style
	}
	if flags.assets.highlight != "" {
		cfg.Style.Highlight = flags.assets.highlight
	}
	if flags.assets.assetPath != "" {
		cfg.Assets.BasePath = flags.assets.assetPath
	}
	if flags.assets.runtimeDir != "" {
		cfg.Assets.RuntimeDir = flags.assets.runtimeDir
	}

	if flags.outputMode.linkExt != "" {
		cfg.Output.LinkExtension = flags.outputMode.linkExt
	}

	// Disable flags
	if flags.toc.disabled {
		cfg.TOC.Enabled = boolPtr(false)
	}
	if flags.document.noMath {
		cfg.Document.Math = boolPtr(false)
	}
	if flags.document.noMermaid {
		cfg.Document.Mermaid = boolPtr(false)
	}
}

// resolveTimeout picks the flag timeout, then the environment one.
// Zero means the library default.
func resolveTimeout(flagValue string, envValue time.Duration) (time.Duration, error) {
	if flagValue == "" {
		return envValue, nil
	}
	d, err := time.ParseDuration(flagValue)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimeout, flagValue, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidTimeout, flagValue)
	}
	return d, nil
}

// resolveInputs determines the inputs from args or config.
func resolveInputs(args []string, cfg *config.Config) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if cfg.Input.DefaultDir != "" {
		return []string{cfg.Input.DefaultDir}, nil
	}
	return nil, ErrNoInput
}

// resolveOutputDir determines the output directory from flag or config.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// validateWorkers rejects negative worker counts. Counts above the pool
// ceiling are clamped later, not rejected.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	return nil
}

// buildConversionParams resolves the per-document options shared by a run.
func buildConversionParams(cfg *config.Config, flags *convertFlags, outputExt string) (*conversionParams, error) {
	page, err := buildPageSettings(cfg)
	if err != nil {
		return nil, err
	}

	linkExt := cfg.Output.LinkExtension
	if linkExt == "" {
		linkExt = outputExt
	}

	return &conversionParams{
		page:          page,
		toc:           cfg.TOC.Enabled,
		tocDepth:      cfg.TOC.MaxDepth,
		tocTitle:      cfg.TOC.Title,
		tocNumbered:   cfg.TOC.Numbered,
		math:          cfg.Document.Math,
		mermaid:       cfg.Document.Mermaid,
		cssPath:       cfg.Style.CSS,
		templatePath:  cfg.Document.Template,
		title:         cfg.Document.Title,
		linkExtension: linkExt,
		htmlOutput:    flags.outputMode.html,
		htmlOnly:      flags.outputMode.htmlOnly,
	}, nil
}

// buildPageSettings creates mdprint.PageSettings from config, reading the
// header and footer template files.
func buildPageSettings(cfg *config.Config) (*mdprint.PageSettings, error) {
	ps := mdprint.DefaultPageSettings()

	if cfg.Page.Format != "" {
		format, err := mdprint.ParseFormat(cfg.Page.Format)
		if err != nil {
			return nil, err
		}
		ps.Format = format
	}
	if cfg.Page.Margin != "" {
		ps.Margin = cfg.Page.Margin
	}
	ps.Landscape = cfg.Page.Landscape

	var err error
	if ps.HeaderHTML, err = readTemplateFile(cfg.Page.HeaderTemplate); err != nil {
		return nil, err
	}
	if ps.FooterHTML, err = readTemplateFile(cfg.Page.FooterTemplate); err != nil {
		return nil, err
	}

	if err := ps.Validate(); err != nil {
		return nil, err
	}
	return ps, nil
}

// readTemplateFile reads a header or footer template. Empty path means none.
func readTemplateFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	content, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadTemplate, err)
	}
	return string(content), nil
}

// converterOptions maps the resolved config onto converter options shared
// by every converter in the pool.
func converterOptions(cfg *config.Config, flags *convertFlags, timeout time.Duration, logger zerolog.Logger) []mdprint.Option {
	opts := []mdprint.Option{mdprint.WithLogger(logger)}
	if timeout > 0 {
		opts = append(opts, mdprint.WithTimeout(timeout))
	}
	if cfg.Style.Theme != "" {
		opts = append(opts, mdprint.WithStyle(cfg.Style.Theme))
	}
	if cfg.Style.Highlight != "" {
		opts = append(opts, mdprint.WithHighlightStyle(cfg.Style.Highlight))
	}
	if cfg.Assets.BasePath != "" {
		opts = append(opts, mdprint.WithAssetPath(cfg.Assets.BasePath))
	}
	if cfg.Assets.RuntimeDir != "" {
		opts = append(opts, mdprint.WithRuntimeAssets(cfg.Assets.RuntimeDir))
	}
	if flags.assets.browserBin != "" {
		opts = append(opts, mdprint.WithBrowserBin(flags.assets.browserBin))
	}
	return opts
}

func boolPtr(b bool) *bool { return &b }
