package mdprint

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/mdprint/internal/assets"
	"github.com/alnah/mdprint/internal/fileutil"
	"github.com/alnah/mdprint/internal/pipeline"
)

// Compile-time interface implementation checks.
var (
	_ pdfConverter = (*rodConverter)(nil)
	_ pdfRenderer  = (*rodRenderer)(nil)
)

// Converter turns Markdown into HTML pages and PDFs.
// Create with NewConverter, use Convert for conversion, and Close when done.
// Convert is safe for concurrent use: documents share one browser process
// but each gets its own browser context.
type Converter struct {
	cfg          converterConfig
	renderer     *pipeline.Renderer
	pdfConverter pdfConverter
}

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout        time.Duration
	logger         zerolog.Logger
	style          string
	assetPath      string
	highlightStyle string
	runtimeDir     string
	browserBin     string
}

// WithTimeout sets the per-document conversion timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdprint: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithLogger sets where content warnings and browser diagnostics go.
// Default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Converter) {
		c.cfg.logger = l
	}
}

// WithStyle sets the theme: a style name, a path to a CSS file, an http(s)
// URL of a stylesheet, or CSS content (anything containing "{"). A URL is
// imported by the browser when the page loads.
func WithStyle(style string) Option {
	return func(c *Converter) {
		c.cfg.style = style
	}
}

// WithAssetPath overrides embedded styles and templates with files from
// dir/styles and dir/templates. Missing files fall back to embedded ones.
func WithAssetPath(dir string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = dir
	}
}

// WithHighlightStyle sets the chroma style for code blocks.
// "none" turns syntax highlighting off.
func WithHighlightStyle(name string) Option {
	return func(c *Converter) {
		c.cfg.highlightStyle = name
	}
}

// WithRuntimeAssets loads MathJax and mermaid from dir instead of a CDN.
// dir must contain tex-svg.js and mermaid.min.js.
func WithRuntimeAssets(dir string) Option {
	return func(c *Converter) {
		c.cfg.runtimeDir = dir
	}
}

// WithBrowserBin uses the given Chrome binary instead of the one rod
// manages. Overrides ROD_BROWSER_BIN.
func WithBrowserBin(path string) Option {
	return func(c *Converter) {
		c.cfg.browserBin = path
	}
}

// NewConverter creates a Converter. Styles, templates and runtime scripts
// are resolved here, so a bad name or path fails before any conversion.
// The browser starts lazily on the first PDF.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{
			timeout:        defaultTimeout,
			logger:         zerolog.Nop(),
			highlightStyle: pipeline.DefaultHighlightStyle,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	var loader assets.AssetLoader = assets.NewEmbeddedLoader()
	if c.cfg.assetPath != "" {
		resolver, err := assets.NewAssetResolver(c.cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
		}
		loader = resolver
	}

	loader, styleName, err := resolveStyle(loader, c.cfg.style)
	if err != nil {
		return nil, err
	}

	runtime := assets.DefaultRuntime()
	if c.cfg.runtimeDir != "" {
		runtime, err = assets.LocalRuntime(c.cfg.runtimeDir)
		if err != nil {
			return nil, err
		}
	}

	c.renderer, err = pipeline.NewRenderer(
		pipeline.WithLogger(c.cfg.logger),
		pipeline.WithAssetLoader(loader),
		pipeline.WithRuntime(runtime),
		pipeline.WithStyle(styleName),
		pipeline.WithHighlightStyle(c.cfg.highlightStyle),
	)
	if err != nil {
		return nil, err
	}

	// Create PDF converter if not injected (e.g., by tests)
	if c.pdfConverter == nil {
		c.pdfConverter = newRodConverter(c.cfg.timeout, c.cfg.browserBin, c.cfg.logger)
	}

	return c, nil
}

// Convert renders the document to HTML and, unless input.HTMLOnly, prints
// it to PDF. The context bounds the whole conversion together with the
// converter timeout. Recovers from internal panics to prevent crashes from
// propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *ConvertResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	rendered, err := c.renderer.Render(ctx, input.Markdown, input.renderOptions())
	if err != nil {
		return nil, fmt.Errorf("rendering HTML: %w", err)
	}

	res := &ConvertResult{
		HTML:       []byte(rendered.HTML),
		Title:      rendered.Title,
		HasMath:    rendered.HasMath,
		HasMermaid: rendered.HasMermaid,
		Warnings:   rendered.Warnings,
	}

	if input.HTMLOnly {
		return res, nil
	}

	pdfBytes, err := c.pdfConverter.ToPDF(ctx, rendered.HTML, &pdfOptions{
		Page:        input.Page,
		WaitMath:    rendered.HasMath,
		WaitMermaid: rendered.HasMermaid,
	})
	if err != nil {
		return nil, fmt.Errorf("converting to PDF: %w", err)
	}

	res.PDF = pdfBytes
	return res, nil
}

// Close releases resources (headless Chrome browser).
func (c *Converter) Close() error {
	if c.pdfConverter != nil {
		return c.pdfConverter.Close()
	}
	return nil
}

// renderOptions maps the public input onto the renderer's options.
func (in Input) renderOptions() pipeline.Options {
	return pipeline.Options{
		TOC:           in.TOC,
		TOCDepth:      in.TOCDepth,
		TOCTitle:      in.TOCTitle,
		TOCNumbered:   in.TOCNumbered,
		Math:          in.Math,
		Mermaid:       in.Mermaid,
		CustomCSSPath: in.CSSPath,
		TemplatePath:  in.TemplatePath,
		BasePath:      in.SourceDir,
		Title:         in.Title,
		LinkExtension: in.LinkExtension,
	}
}

// customStyleName names a theme supplied as a path or as CSS content.
const customStyleName = "custom"

// inlineStyleLoader serves one fixed stylesheet and delegates templates.
type inlineStyleLoader struct {
	assets.AssetLoader
	css string
}

func (l *inlineStyleLoader) LoadStyle(string) (string, error) {
	return l.css, nil
}

var cssStringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", "")

// importRule returns a CSS rule importing the stylesheet at url.
func importRule(url string) string {
	return `@import url("` + cssStringEscaper.Replace(url) + `");`
}

// resolveStyle resolves the style input (name, path, URL or CSS content) into
// a loader and the name to ask it for.
func resolveStyle(loader assets.AssetLoader, style string) (assets.AssetLoader, string, error) {
	switch {
	case style == "":
		return loader, assets.DefaultStyleName, nil
	case fileutil.IsCSS(style):
		return &inlineStyleLoader{AssetLoader: loader, css: style}, customStyleName, nil
	case fileutil.IsURL(style):
		// The theme comes first in the page stylesheet, where @import is valid.
		return &inlineStyleLoader{AssetLoader: loader, css: importRule(style)}, customStyleName, nil
	case fileutil.IsFilePath(style):
		content, err := os.ReadFile(style) // #nosec G304 -- user-provided path
		if err != nil {
			return nil, "", fmt.Errorf("loading style file %q: %w", style, err)
		}
		return &inlineStyleLoader{AssetLoader: loader, css: string(content)}, customStyleName, nil
	default:
		return loader, style, nil
	}
}
