// Package toc builds the table of contents from a parsed document.
//
// Headings must already carry their id attribute (assigned during parsing),
// so TOC links and heading anchors always agree.
package toc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"

	"github.com/alnah/mdprint/internal/htmlsafe"
)

// Depth bounds for MaxDepth.
const (
	MinDepth = 1
	MaxDepth = 6
)

// ErrInvalidDepth is returned by ValidateDepth.
var ErrInvalidDepth = errors.New("toc depth must be between 1 and 6")

// ValidateDepth checks a configured depth. Build itself clamps instead.
func ValidateDepth(depth int) error {
	if depth < MinDepth || depth > MaxDepth {
		return fmt.Errorf("%w, got %d", ErrInvalidDepth, depth)
	}
	return nil
}

// InlineRenderer renders the inline children of a node to HTML.
type InlineRenderer interface {
	RenderInline(source []byte, n ast.Node) (string, error)
}

// Entry is one heading listed in the TOC.
type Entry struct {
	Level int
	ID    string
	// HTML is the rendered heading content with links unwrapped.
	HTML string
}

// Options configures Build.
type Options struct {
	MaxDepth int
	Title    string
	Numbered bool
}

// Headings collects headings up to maxDepth in document order, including
// headings nested in containers such as callouts.
func Headings(doc ast.Node, source []byte, maxDepth int, inline InlineRenderer) ([]Entry, error) {
	maxDepth = clamp(maxDepth)

	var entries []Entry
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level > maxDepth {
			return ast.WalkSkipChildren, nil
		}
		id, ok := h.AttributeString("id")
		if !ok {
			return ast.WalkSkipChildren, nil
		}
		content, err := inline.RenderInline(source, h)
		if err != nil {
			return ast.WalkStop, err
		}
		content, err = stripAnchors(content)
		if err != nil {
			return ast.WalkStop, err
		}
		entries = append(entries, Entry{Level: h.Level, ID: attrString(id), HTML: content})
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Build renders the TOC for doc. It returns "" when no heading qualifies;
// callers should then omit the TOC entirely.
func Build(doc ast.Node, source []byte, opts Options, inline InlineRenderer) (string, error) {
	entries, err := Headings(doc, source, opts.MaxDepth, inline)
	if err != nil {
		return "", err
	}
	return render(entries, opts), nil
}

func render(entries []Entry, opts Options) string {
	if len(entries) == 0 {
		return ""
	}

	var buf strings.Builder
	buf.WriteString(`<nav class="toc">` + "\n")
	if opts.Title != "" {
		buf.WriteString(`<h2 class="toc-title">`)
		buf.WriteString(htmlsafe.EscapeHTML(opts.Title))
		buf.WriteString("</h2>\n")
	}
	buf.WriteString(`<div class="toc-list">` + "\n")

	depths := newDepthState()
	for _, e := range entries {
		num, depth := depths.next(e.Level)

		buf.WriteString(`<div class="toc-item toc-depth-`)
		buf.WriteString(strconv.Itoa(depth))
		buf.WriteString(`"`)
		if depth > 1 {
			fmt.Fprintf(&buf, ` style="padding-left:%.1fem"`, float64(depth-1)*1.5)
		}
		buf.WriteString(`><a href="#`)
		buf.WriteString(htmlsafe.EscapeHTML(e.ID))
		buf.WriteString(`">`)
		if opts.Numbered {
			buf.WriteString(`<span class="toc-number">`)
			buf.WriteString(num)
			buf.WriteString(`</span> `)
		}
		buf.WriteString(e.HTML)
		buf.WriteString("</a></div>\n")
	}

	buf.WriteString("</div>\n</nav>\n")
	return buf.String()
}

// depthState normalises heading levels into nesting depths: the shallowest
// first heading becomes depth 1 and skipped levels collapse, so H1 then H3
// nests H3 directly under H1. It also tracks "1.2.3." numbering.
type depthState struct {
	counters     [MaxDepth]int
	minLevelSeen int
	lastDepth    int
}

func newDepthState() *depthState {
	return &depthState{}
}

func (d *depthState) next(level int) (num string, depth int) {
	if d.minLevelSeen == 0 {
		d.minLevelSeen = level
	}

	depth = level - d.minLevelSeen + 1
	if depth < 1 {
		depth = 1
	}
	if d.lastDepth > 0 && depth > d.lastDepth+1 {
		depth = d.lastDepth + 1
	}

	for i := depth; i < MaxDepth; i++ {
		d.counters[i] = 0
	}
	d.counters[depth-1]++
	d.lastDepth = depth

	parts := make([]string, 0, depth)
	for i := 0; i < depth; i++ {
		parts = append(parts, strconv.Itoa(d.counters[i]))
	}
	return strings.Join(parts, ".") + ".", depth
}

func clamp(depth int) int {
	switch {
	case depth < MinDepth:
		return MinDepth
	case depth > MaxDepth:
		return MaxDepth
	default:
		return depth
	}
}

func attrString(v any) string {
	switch s := v.(type) {
	case []byte:
		return string(s)
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
