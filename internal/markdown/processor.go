package markdown

import (
	"bytes"
	"io"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"github.com/alnah/mdprint/internal/mathguard"
)

// Processor parses and renders extended Markdown. It holds no per-document
// state and is safe for concurrent use.
type Processor struct {
	md goldmark.Markdown
}

// Option configures a Processor.
type Option func(*config)

type config struct {
	highlight bool
}

// WithHighlighting toggles chroma syntax highlighting of fenced code.
// Enabled by default.
func WithHighlighting(enabled bool) Option {
	return func(c *config) {
		c.highlight = enabled
	}
}

// New creates a Processor with GFM, footnotes, the mdprint block syntaxes and
// class-based syntax highlighting.
func New(opts ...Option) *Processor {
	cfg := config{highlight: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	exts := []goldmark.Extender{
		extension.GFM,      // Tables, strikethrough, autolinks, task lists
		extension.Footnote, // [^1] footnotes
		blocks{},
	}
	if cfg.highlight {
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(true), // theme CSS is emitted once per document
			),
		))
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			// WithUnsafe is intentionally not used: raw HTML in the source is
			// omitted, which also keeps the TOC placeholder unforgeable.
		),
	)
	return &Processor{md: md}
}

// Document is a parsed Markdown document and the source it points into.
type Document struct {
	Root   ast.Node
	Source []byte
	// TOCMarkers counts [TOC] placeholder lines.
	TOCMarkers int
}

// ParseOptions carries per-document parse inputs.
type ParseOptions struct {
	// Guard restores math in heading text before slugging. May be nil.
	Guard *mathguard.Guarded
	// LinkExtension replaces .md and .markdown in relative links, e.g. ".pdf".
	// Empty disables rewriting.
	LinkExtension string
}

// Parse parses src with a fresh parse context, so heading slugs start over
// for every document.
func (p *Processor) Parse(src []byte, opts ParseOptions) *Document {
	pc := parser.NewContext(parser.WithIDs(NewSlugger()))
	pc.Set(guardKey, opts.Guard)
	pc.Set(linkExtKey, opts.LinkExtension)

	root := p.md.Parser().Parse(text.NewReader(src), parser.WithContext(pc))

	doc := &Document{Root: root, Source: src}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == KindTOCMarker {
			doc.TOCMarkers++
		}
		return ast.WalkContinue, nil
	})
	return doc
}

// Render writes the HTML body of doc to w.
func (p *Processor) Render(w io.Writer, doc *Document) error {
	return p.md.Renderer().Render(w, doc.Source, doc.Root)
}

// RenderInline renders the children of n, e.g. the inline content of a
// heading without its <hN> wrapper.
func (p *Processor) RenderInline(source []byte, n ast.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if err := p.md.Renderer().Render(&buf, source, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// UnknownLanguages lists fence info strings chroma has no lexer for. Those
// blocks render as plain preformatted code.
func UnknownLanguages(doc *Document) []string {
	var langs []string
	seen := make(map[string]bool)
	_ = ast.Walk(doc.Root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		lang := string(fcb.Language(doc.Source))
		if lang != "" && !seen[lang] && lexers.Get(lang) == nil {
			seen[lang] = true
			langs = append(langs, lang)
		}
		return ast.WalkSkipChildren, nil
	})
	return langs
}
