package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/mdprint/internal/markdown"
)

// Notes:
// - Renderers use the embedded assets and the CDN runtime URLs; nothing here
//   starts a browser, so MathJax and mermaid are only checked as script tags.
// - Highlighting is disabled where a test asserts on raw code text, since
//   chroma splits code into spans.

func newTestRenderer(t *testing.T, opts ...RendererOption) *Renderer {
	t.Helper()

	r, err := NewRenderer(opts...)
	if err != nil {
		t.Fatalf("NewRenderer() unexpected error: %v", err)
	}
	return r
}

func renderString(t *testing.T, r *Renderer, src string, opts Options) *Result {
	t.Helper()

	res, err := r.Render(context.Background(), src, opts)
	if err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}
	return res
}

func boolPtr(b bool) *bool { return &b }

func assertContains(t *testing.T, got string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q\ngot:\n%s", w, got)
		}
	}
}

func assertNotContains(t *testing.T, got string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(got, u) {
			t.Errorf("output should not contain %q\ngot:\n%s", u, got)
		}
	}
}

// ---------------------------------------------------------------------------
// Scenarios
// ---------------------------------------------------------------------------

func TestRender_HeadingsAndTOCMarker(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	res := renderString(t, r, "# H1\n## H2\n[TOC]", Options{TOC: boolPtr(true)})

	assertContains(t, res.HTML, `id="h1"`, `id="h2"`, `href="#h1"`, `href="#h2"`)
	assertNotContains(t, res.HTML, markdown.TOCPlaceholder)

	nav := strings.Index(res.HTML, `<nav class="toc">`)
	h2 := strings.Index(res.HTML, `id="h2"`)
	if nav < h2 {
		t.Errorf("TOC at %d should replace the marker after the H2 at %d", nav, h2)
	}
}

func TestRender_DisplayMathSurvivesVerbatim(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	res := renderString(t, r, "$$\na &= b \\\\\nc &= d\n$$", Options{})

	assertContains(t, res.HTML, `a &= b \\`, "$$", `<div class="math-display">`, `id="MathJax-script"`)
	assertNotContains(t, res.HTML, "&amp;=", "<br")
	if !res.HasMath {
		t.Error("HasMath = false, want true")
	}
}

func TestRender_EscapedDollarIsNotMath(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	res := renderString(t, r, "I have \\$100", Options{})

	assertContains(t, res.HTML, `<span class="tex2jax_ignore">$</span>100`)
	assertNotContains(t, res.HTML, "MathJax-script", "__mdprintMathReady")
	if res.HasMath {
		t.Error("HasMath = true, want false")
	}
}

func TestRender_DuplicateHeadings(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	res := renderString(t, r, "# Duplicate\n\n# Duplicate\n\n# Duplicate\n\n[TOC]\n", Options{})

	for _, id := range []string{"duplicate", "duplicate-1", "duplicate-2"} {
		assertContains(t, res.HTML, `id="`+id+`"`, `href="#`+id+`"`)
	}
}

// ---------------------------------------------------------------------------
// TOC decision
// ---------------------------------------------------------------------------

func TestRender_TOCDecision(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)

	tests := []struct {
		name     string
		input    string
		opts     Options
		wantNavs int
	}{
		{"two markers", "# A\n\n[TOC]\n\ntext\n\n[TOC]\n", Options{}, 2},
		{"option without marker", "# A\n\n## B\n", Options{TOC: boolPtr(true)}, 1},
		{"frontmatter without marker", "---\ntoc: true\n---\n# A\n", Options{}, 1},
		{"nothing requested", "# A\n", Options{}, 0},
		{"explicit false beats marker", "# A\n\n[TOC]\n", Options{TOC: boolPtr(false)}, 0},
		{"explicit false beats frontmatter", "---\ntoc: true\n---\n# A\n", Options{TOC: boolPtr(false)}, 0},
		{"frontmatter false beats marker", "---\ntoc: false\n---\n# A\n\n[TOC]\n", Options{}, 0},
		{"explicit true beats frontmatter false", "---\ntoc: false\n---\n# A\n", Options{TOC: boolPtr(true)}, 1},
		{"no headings means no TOC", "just text\n\n[TOC]\n", Options{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := renderString(t, r, tt.input, tt.opts)
			if got := strings.Count(res.HTML, `<nav class="toc">`); got != tt.wantNavs {
				t.Errorf("TOC count = %d, want %d\ngot:\n%s", got, tt.wantNavs, res.HTML)
			}
			assertNotContains(t, res.HTML, markdown.TOCPlaceholder, "[TOC]")
		})
	}
}

func TestRender_TOCPrependedBeforeBody(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	res := renderString(t, r, "# First\n\ntext\n", Options{TOC: boolPtr(true), TOCTitle: "Contents"})

	nav := strings.Index(res.HTML, `<nav class="toc">`)
	h1 := strings.Index(res.HTML, `<h1 id="first"`)
	if nav == -1 || h1 == -1 || nav > h1 {
		t.Errorf("TOC at %d should precede first heading at %d", nav, h1)
	}
	assertContains(t, res.HTML, `<h2 class="toc-title">Contents</h2>`)
}

func TestRender_TOCDepth(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	src := "---\ntocDepth: 1\n---\n# A\n\n## B\n\n[TOC]\n"

	res := renderString(t, r, src, Options{})
	assertContains(t, res.HTML, `href="#a"`)
	assertNotContains(t, res.HTML, `href="#b"`)

	res = renderString(t, r, src, Options{TOCDepth: 2})
	assertContains(t, res.HTML, `href="#a"`, `href="#b"`)
}

func TestRender_TOCNumbered(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	res := renderString(t, r, "# A\n\n## B\n\n[TOC]\n", Options{TOCNumbered: true})

	assertContains(t, res.HTML,
		`<span class="toc-number">1.</span> A`,
		`<span class="toc-number">1.1.</span> B`)
}

func TestRender_MathInHeading(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	res := renderString(t, r, "# Energy $E=mc^2$\n\n[TOC]\n", Options{})

	assertContains(t, res.HTML, `id="energy-emc2"`, `href="#energy-emc2"`)
	if got := strings.Count(res.HTML, "$E=mc^2$"); got != 2 {
		t.Errorf("math appears %d times, want 2 (heading and TOC)\ngot:\n%s", got, res.HTML)
	}
}

// ---------------------------------------------------------------------------
// Math and code
// ---------------------------------------------------------------------------

func TestRender_MathRoundTrip(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"inline dollar with emphasis chars", "Inline $a_1 * b_2$ here", "$a_1 * b_2$"},
		{"paren with less-than", `Paren \(x<y\) here`, `\(x&lt;y\)`},
		{"single line display", `Block $$\sum_{i=1}^n i$$ end`, `$$\sum_{i=1}^n i$$`},
		{"bracket display", "\\[\n\\frac{a}{b}\n\\]", "\\[\n\\frac{a}{b}\n\\]"},
		{"backslashes kept", `Set $\{x \mid x > 0\}$`, `$\{x \mid x &gt; 0\}$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := renderString(t, r, tt.input, Options{})
			assertContains(t, res.HTML, tt.want)
			if !res.HasMath {
				t.Error("HasMath = false, want true")
			}
		})
	}
}

func TestRender_CodeIsNotMath(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, WithHighlightStyle(NoHighlightStyle))

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"fenced", "```\n$x$\n```\n", "<pre><code>$x$\n</code></pre>"},
		{"span", "cost `$x$` here", "<code>$x$</code>"},
		{"link target", "[pay](https://example.com/?a=$x$)", `href="https://example.com/?a=$x$"`},
		{"indented", "para\n\n    echo $HOME and $PATH\n    x = $a &amp; b$\n", "<pre><code>echo $HOME and $PATH\nx = $a &amp;amp; b$\n</code></pre>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := renderString(t, r, tt.input, Options{})
			assertContains(t, res.HTML, tt.want)
			if res.HasMath {
				t.Error("HasMath = true, want false")
			}
		})
	}
}

func TestRender_MathDisabled(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)

	res := renderString(t, r, "$x$", Options{Math: boolPtr(false)})
	assertNotContains(t, res.HTML, "MathJax-script")
	assertContains(t, res.HTML, "$x$")

	res = renderString(t, r, "---\nmath: false\n---\n$x$", Options{})
	assertNotContains(t, res.HTML, "MathJax-script")

	res = renderString(t, r, "---\nmath: false\n---\n$x$", Options{Math: boolPtr(true)})
	assertContains(t, res.HTML, "MathJax-script")
}

// ---------------------------------------------------------------------------
// Diagrams, links, highlights
// ---------------------------------------------------------------------------

func TestRender_Mermaid(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	src := "```mermaid\ngraph TD\nA-->B\n```\n"

	res := renderString(t, r, src, Options{})
	if !res.HasMermaid {
		t.Error("HasMermaid = false, want true")
	}
	assertContains(t, res.HTML, `<div class="mermaid">`, "A--&gt;B", "mermaid.min.js", "__mdprintMermaidReady")
	assertNotContains(t, res.HTML, "MathJax-script")

	res = renderString(t, r, src, Options{Mermaid: boolPtr(false)})
	assertNotContains(t, res.HTML, "mermaid.min.js")
	assertContains(t, res.HTML, `<div class="mermaid">`)
}

func TestRender_LinkRewriting(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	res := renderString(t, r, "[a](./a.md#frag) [b](https://x.org/b.md) [c](javascript:alert(1))", Options{LinkExtension: ".pdf"})

	assertContains(t, res.HTML, `href="./a.pdf#frag"`, `href="https://x.org/b.md"`, `href="#"`)
	assertNotContains(t, res.HTML, "javascript:")
}

func TestRender_Highlights(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, WithHighlightStyle(NoHighlightStyle))
	res := renderString(t, r, "some ==marked== text and `==code==`", Options{})

	assertContains(t, res.HTML, "<mark>marked</mark>", "<code>==code==</code>")
}

func TestRender_CalloutWithMathAndDiagram(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	src := "> [!tip] Formula\n> Use $a^2$\n>\n> ```mermaid\n> graph LR\n> ```\n"

	res := renderString(t, r, src, Options{})
	assertContains(t, res.HTML, `callout-tip`, "$a^2$", `<div class="mermaid">`)
	if !res.HasMath || !res.HasMermaid {
		t.Errorf("HasMath = %v, HasMermaid = %v, want both true", res.HasMath, res.HasMermaid)
	}
}

// ---------------------------------------------------------------------------
// Frontmatter, title, assets
// ---------------------------------------------------------------------------

func TestRender_Title(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)

	tests := []struct {
		name  string
		input string
		opts  Options
		want  string
	}{
		{"override wins", "---\ntitle: FM\n---\n# x", Options{Title: "Override"}, "Override"},
		{"frontmatter", "---\ntitle: FM\n---\n# x", Options{}, "FM"},
		{"default", "# x", Options{}, DefaultTitle},
		{"escaped", "", Options{Title: "<b> & co"}, "<b> & co"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := renderString(t, r, tt.input, tt.opts)
			if res.Title != tt.want {
				t.Errorf("Title = %q, want %q", res.Title, tt.want)
			}
		})
	}

	res := renderString(t, r, "", Options{Title: "<b> & co"})
	assertContains(t, res.HTML, "<title>&lt;b&gt; &amp; co</title>")
}

func TestRender_MalformedFrontmatterKeepsBody(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	res := renderString(t, r, "---\ntitle: [unclosed\n---\nBody text\n", Options{})

	if len(res.Warnings) == 0 {
		t.Error("Warnings empty, want frontmatter warning")
	}
	assertContains(t, res.HTML, "Body text")
}

func TestRender_NormalizesLineEndings(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	res := renderString(t, r, "\uFEFF---\r\ntitle: CRLF\r\n---\r\n# Head\r\n", Options{})

	if res.Title != "CRLF" {
		t.Errorf("Title = %q, want CRLF", res.Title)
	}
	assertContains(t, res.HTML, `id="head"`)
}

func TestRender_CustomCSS(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cssPath := filepath.Join(dir, "extra.css")
	if err := os.WriteFile(cssPath, []byte("p { color: red; } </style><script>"), 0644); err != nil {
		t.Fatalf("failed to write CSS: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "fm.css"), []byte(".fm { margin: 0; }"), 0644); err != nil {
		t.Fatalf("failed to write CSS: %v", err)
	}

	r := newTestRenderer(t)
	res := renderString(t, r, "---\ncss: fm.css\n---\ntext", Options{CustomCSSPath: cssPath, BasePath: dir})

	assertContains(t, res.HTML, "p { color: red; }", ".fm { margin: 0; }", `<\/style><script>`)
	if strings.Index(res.HTML, ".fm {") > strings.Index(res.HTML, "p { color: red; }") {
		t.Error("custom CSS should come after frontmatter CSS")
	}
}

func TestRender_MissingCSSIsAnError(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	dir := t.TempDir()

	_, err := r.Render(context.Background(), "text", Options{CustomCSSPath: filepath.Join(dir, "missing.css")})
	if !errors.Is(err, ErrCSSNotFound) {
		t.Errorf("Render() error = %v, want ErrCSSNotFound", err)
	}

	_, err = r.Render(context.Background(), "---\ncss: [gone.css]\n---\ntext", Options{BasePath: dir})
	if !errors.Is(err, ErrCSSNotFound) {
		t.Errorf("Render() error = %v, want ErrCSSNotFound for frontmatter css", err)
	}
}

func TestRender_Template(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	dir := t.TempDir()

	t.Run("missing template falls back", func(t *testing.T) {
		t.Parallel()

		res := renderString(t, r, "text", Options{TemplatePath: filepath.Join(dir, "nope.html")})
		if len(res.Warnings) != 1 {
			t.Errorf("Warnings = %v, want one template warning", res.Warnings)
		}
		assertContains(t, res.HTML, "<!DOCTYPE html>", `<article class="markdown-body">`)
	})

	t.Run("custom template used", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(dir, "page.html")
		tmpl := "<html><head><title>{{title}}</title></head><body><main>{{content}}</main>{{mathjax}}</body></html>"
		if err := os.WriteFile(path, []byte(tmpl), 0644); err != nil {
			t.Fatalf("failed to write template: %v", err)
		}

		res := renderString(t, r, "$x$\n\n```mermaid\ngraph\n```\n", Options{TemplatePath: path})
		assertContains(t, res.HTML, "<main><p>$x$</p>", "<style>", "MathJax-script", "mermaid.min.js")
		if len(res.Warnings) != 0 {
			t.Errorf("Warnings = %v, want none", res.Warnings)
		}
	})
}

func TestRender_BasePath(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	res := renderString(t, r, "![img](pic.png)", Options{BasePath: t.TempDir()})

	assertContains(t, res.HTML, `<base href="file:///`, `src="pic.png"`)
}

// ---------------------------------------------------------------------------
// Context and concurrency
// ---------------------------------------------------------------------------

func TestRender_CancelledContext(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Render(ctx, "# x", Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

func TestRender_ConcurrentRendersAreIndependent(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	src := "# Same\n\n# Same\n\n$x$ and \\$5\n"

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Render(context.Background(), src, Options{})
			if err != nil {
				errs <- err.Error()
				return
			}
			if !strings.Contains(res.HTML, `id="same"`) || !strings.Contains(res.HTML, `id="same-1"`) || strings.Contains(res.HTML, `id="same-2"`) {
				errs <- "slugs leaked between renders"
			}
		}()
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNewRenderer_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewRenderer(WithHighlightStyle("no-such-style")); !errors.Is(err, ErrUnknownHighlightStyle) {
		t.Errorf("NewRenderer() error = %v, want ErrUnknownHighlightStyle", err)
	}
	if _, err := NewRenderer(WithStyle("no-such-theme")); err == nil {
		t.Error("NewRenderer() with unknown style: expected error")
	}
}
