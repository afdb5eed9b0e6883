package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alnah/mdprint/internal/assets"
	"github.com/alnah/mdprint/internal/fileutil"
	"github.com/alnah/mdprint/internal/frontmatter"
	"github.com/alnah/mdprint/internal/markdown"
	"github.com/alnah/mdprint/internal/mathguard"
	"github.com/alnah/mdprint/internal/toc"
)

// Sentinel errors for rendering.
var (
	// ErrHTMLConversion indicates goldmark failed to render the document.
	ErrHTMLConversion = errors.New("HTML conversion failed")

	// ErrCSSNotFound indicates an explicitly requested stylesheet is missing.
	ErrCSSNotFound = errors.New("CSS file not found")
)

// DefaultTitle is used when neither the caller nor the frontmatter names one.
const DefaultTitle = "Markdown Document"

// DefaultTOCDepth is the deepest heading level listed when nothing sets one.
const DefaultTOCDepth = 3

// Options are the per-document render settings. Pointer fields distinguish
// "not set" from false; unset fields defer to the frontmatter.
type Options struct {
	// TOC forces the table of contents on or off. nil lets the frontmatter
	// or a [TOC] marker decide.
	TOC      *bool
	TOCDepth int
	TOCTitle string
	// TOCNumbered prefixes entries with outline numbers such as "1.2.".
	TOCNumbered bool
	Math        *bool
	Mermaid     *bool
	// CustomCSSPath is appended after the theme. Missing file is an error.
	CustomCSSPath string
	// TemplatePath replaces the page template. Missing file falls back to
	// the default with a warning.
	TemplatePath string
	// BasePath resolves relative assets in the document and frontmatter.
	BasePath string
	Title    string
	// LinkExtension replaces .md and .markdown in relative links, e.g. ".pdf".
	LinkExtension string
}

// Result is a rendered HTML document.
type Result struct {
	HTML       string
	Title      string
	HasMath    bool
	HasMermaid bool
	// Warnings lists recoverable content problems, in order.
	Warnings []string
}

// Renderer converts Markdown to complete HTML pages. It holds no
// per-document state and is safe for concurrent use.
type Renderer struct {
	processor        *markdown.Processor
	logger           zerolog.Logger
	themeCSS         string
	highlightCSS     string
	pageTemplate     string
	mathBootstrap    string
	mermaidBootstrap string
}

// RendererOption configures a Renderer.
type RendererOption func(*rendererConfig)

type rendererConfig struct {
	logger         zerolog.Logger
	loader         assets.AssetLoader
	runtime        assets.Runtime
	style          string
	highlightStyle string
}

// WithLogger sets the logger for content warnings. Default discards.
func WithLogger(l zerolog.Logger) RendererOption {
	return func(c *rendererConfig) {
		c.logger = l
	}
}

// WithAssetLoader sets where the theme and templates come from.
func WithAssetLoader(l assets.AssetLoader) RendererOption {
	return func(c *rendererConfig) {
		c.loader = l
	}
}

// WithRuntime sets the MathJax and mermaid script URLs.
func WithRuntime(rt assets.Runtime) RendererOption {
	return func(c *rendererConfig) {
		c.runtime = rt
	}
}

// WithStyle selects the CSS theme by name.
func WithStyle(name string) RendererOption {
	return func(c *rendererConfig) {
		c.style = name
	}
}

// WithHighlightStyle selects the chroma style for code blocks.
// NoHighlightStyle disables highlight CSS.
func WithHighlightStyle(name string) RendererOption {
	return func(c *rendererConfig) {
		c.highlightStyle = name
	}
}

// NewRenderer loads the theme, templates and highlight CSS once.
func NewRenderer(opts ...RendererOption) (*Renderer, error) {
	cfg := rendererConfig{
		logger:         zerolog.Nop(),
		loader:         assets.NewEmbeddedLoader(),
		runtime:        assets.DefaultRuntime(),
		style:          assets.DefaultStyleName,
		highlightStyle: DefaultHighlightStyle,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	themeCSS, err := cfg.loader.LoadStyle(cfg.style)
	if err != nil {
		return nil, fmt.Errorf("loading style: %w", err)
	}
	highlightCSS, err := HighlightCSS(cfg.highlightStyle)
	if err != nil {
		return nil, err
	}
	pageTemplate, err := cfg.loader.LoadTemplate(assets.DefaultTemplateName)
	if err != nil {
		return nil, fmt.Errorf("loading page template: %w", err)
	}
	mathTemplate, err := cfg.loader.LoadTemplate(assets.MathJaxTemplateName)
	if err != nil {
		return nil, fmt.Errorf("loading math bootstrap: %w", err)
	}
	mermaidTemplate, err := cfg.loader.LoadTemplate(assets.MermaidTemplateName)
	if err != nil {
		return nil, fmt.Errorf("loading diagram bootstrap: %w", err)
	}

	return &Renderer{
		processor:        markdown.New(markdown.WithHighlighting(cfg.highlightStyle != NoHighlightStyle)),
		logger:           cfg.logger,
		themeCSS:         themeCSS,
		highlightCSS:     highlightCSS,
		pageTemplate:     pageTemplate,
		mathBootstrap:    assets.Bootstrap(mathTemplate, cfg.runtime.MathJaxURL),
		mermaidBootstrap: assets.Bootstrap(mermaidTemplate, cfg.runtime.MermaidURL),
	}, nil
}

// Render converts one Markdown document into an HTML page.
// Supports context cancellation via goroutine + select pattern since
// Goldmark doesn't natively support context.
func (r *Renderer) Render(ctx context.Context, content string, opts Options) (*Result, error) {
	// Fast path: check context before starting
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		res *Result
		err error
	}

	done := make(chan result, 1)

	go func() {
		res, err := r.render(content, opts)
		done <- result{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.res, res.err
	}
}

func (r *Renderer) render(content string, opts Options) (*Result, error) {
	fm := frontmatter.Parse(normalizeSource(content))
	warnings := fm.Warnings
	for _, w := range fm.Warnings {
		r.logger.Warn().Str("stage", "frontmatter").Msg(w)
	}

	// Resource errors come first so a bad stylesheet fails before any work.
	css, err := r.stylesheet(fm.Meta.CSS, opts)
	if err != nil {
		return nil, err
	}

	guarded := mathguard.Protect(fm.Body, mathguard.WithTransform(prepareProse))
	doc := r.processor.Parse([]byte(guarded.Text), markdown.ParseOptions{
		Guard:         guarded,
		LinkExtension: opts.LinkExtension,
	})
	for _, lang := range markdown.UnknownLanguages(doc) {
		r.logger.Debug().Str("language", lang).Msg("no highlighter for language, rendering plain code")
	}

	tocHTML, err := r.tableOfContents(doc, fm.Meta, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: table of contents: %v", ErrHTMLConversion, err)
	}

	var buf bytes.Buffer
	if err := r.processor.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}

	// TOC entries still hold math tokens, so placement precedes restoration.
	body := placeTOC(buf.String(), tocHTML, doc.TOCMarkers > 0)
	body = guarded.RestoreHTML(body)
	body = ConvertMarkPlaceholders(body)

	// The guard count equals math detection on the original body: both scan
	// with code, link targets and escaped dollars excluded.
	hasMath := guarded.MathCount() > 0 && enabled(opts.Math, fm.Meta.Math)
	hasMermaid := mathguard.HasMermaid(fm.Body) && enabled(opts.Mermaid, fm.Meta.Mermaid)

	tmpl, warning := r.template(opts.TemplatePath)
	if warning != "" {
		warnings = append(warnings, warning)
	}

	baseURL := ""
	if opts.BasePath != "" {
		if baseURL, err = fileutil.DirURL(opts.BasePath); err != nil {
			return nil, err
		}
	}

	title := resolveTitle(opts.Title, fm.Meta.Title)
	page := Page{
		Template: tmpl,
		Title:    title,
		BaseURL:  baseURL,
		CSS:      css,
		Content:  body,
	}
	if hasMath {
		page.MathBootstrap = r.mathBootstrap
	}
	if hasMermaid {
		page.MermaidBootstrap = r.mermaidBootstrap
	}

	return &Result{
		HTML:       Assemble(page),
		Title:      title,
		HasMath:    hasMath,
		HasMermaid: hasMermaid,
		Warnings:   warnings,
	}, nil
}

// tableOfContents decides whether a TOC is wanted and builds it. An explicit
// per-call setting wins, then the frontmatter, then the presence of a marker.
func (r *Renderer) tableOfContents(doc *markdown.Document, meta frontmatter.Meta, opts Options) (string, error) {
	want := doc.TOCMarkers > 0
	if meta.TOC != nil {
		want = *meta.TOC
	}
	if opts.TOC != nil {
		want = *opts.TOC
	}
	if !want {
		return "", nil
	}

	depth := DefaultTOCDepth
	switch {
	case opts.TOCDepth > 0:
		depth = opts.TOCDepth
	case meta.TOCDepth > 0:
		depth = meta.TOCDepth
	}

	return toc.Build(doc.Root, doc.Source, toc.Options{
		MaxDepth: depth,
		Title:    opts.TOCTitle,
		Numbered: opts.TOCNumbered,
	}, r.processor)
}

// placeTOC substitutes every marker with the TOC, or prepends the TOC when
// the document has no marker. Markers are always consumed.
func placeTOC(body, tocHTML string, hasMarkers bool) string {
	if hasMarkers {
		return strings.ReplaceAll(body, markdown.TOCPlaceholder, tocHTML)
	}
	return tocHTML + body
}

// stylesheet joins theme, highlight, frontmatter and custom CSS, in that
// order so later sheets override earlier ones.
func (r *Renderer) stylesheet(frontmatterCSS []string, opts Options) (string, error) {
	parts := []string{r.themeCSS}
	if r.highlightCSS != "" {
		parts = append(parts, r.highlightCSS)
	}

	paths := make([]string, 0, len(frontmatterCSS)+1)
	for _, p := range frontmatterCSS {
		if !filepath.IsAbs(p) && opts.BasePath != "" {
			p = filepath.Join(opts.BasePath, p)
		}
		paths = append(paths, p)
	}
	if opts.CustomCSSPath != "" {
		paths = append(paths, opts.CustomCSSPath)
	}

	for _, p := range paths {
		data, err := os.ReadFile(p) // #nosec G304 -- user-requested stylesheet
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("%w: %s", ErrCSSNotFound, p)
			}
			return "", fmt.Errorf("reading CSS %s: %w", p, err)
		}
		parts = append(parts, string(data))
	}
	return strings.Join(parts, "\n"), nil
}

// template returns the page template for one render. A custom template that
// cannot be read is replaced by the default, with a warning.
func (r *Renderer) template(path string) (tmpl, warning string) {
	if path == "" {
		return r.pageTemplate, ""
	}

	data, err := os.ReadFile(path) // #nosec G304 -- user-requested template
	if err != nil {
		warning = fmt.Sprintf("template %s unavailable, using default: %v", path, err)
		r.logger.Warn().Str("template", path).Err(err).Msg("using default template")
		return r.pageTemplate, warning
	}
	return string(data), ""
}

func resolveTitle(override, fromFrontmatter string) string {
	if t := strings.TrimSpace(override); t != "" {
		return t
	}
	if t := strings.TrimSpace(fromFrontmatter); t != "" {
		return t
	}
	return DefaultTitle
}

func enabled(override, fromFrontmatter *bool) bool {
	if override != nil {
		return *override
	}
	if fromFrontmatter != nil {
		return *fromFrontmatter
	}
	return true
}
