package markdown

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/mdprint/internal/htmlsafe"
)

// calloutHeader matches the first line of a callout, e.g. "> [!tip]- Title".
var calloutHeader = regexp.MustCompile(`^[ ]{0,3}>[ \t]?\[!([A-Za-z][A-Za-z0-9_-]*)\]([+-]?)[ \t]*(.*?)[ \t]*\r?\n?$`)

// calloutAliases folds alternate type names onto their canonical type.
// GitHub's "important" and "caution" stay distinct types.
var calloutAliases = map[string]string{
	"summary":   "abstract",
	"tldr":      "abstract",
	"hint":      "tip",
	"check":     "success",
	"done":      "success",
	"help":      "question",
	"faq":       "question",
	"attention": "warning",
	"fail":      "failure",
	"missing":   "failure",
	"error":     "danger",
	"cite":      "quote",
}

func resolveCalloutType(typ string) string {
	typ = strings.ToLower(typ)
	if canonical, ok := calloutAliases[typ]; ok {
		return canonical
	}
	return typ
}

// defaultCalloutTitle capitalises each "-" or "_" separated segment of typ
// and joins them with spaces: "my-custom_note" becomes "My Custom Note".
func defaultCalloutTitle(typ string) string {
	parts := strings.FieldsFunc(strings.ToLower(typ), func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// calloutExtension claims blockquotes whose first line is a callout header.
// Anything else is left to the regular blockquote parser.
type calloutExtension struct{}

func (calloutExtension) priority() int { return 799 }

func (calloutExtension) Trigger() []byte {
	return []byte{'>'}
}

func (calloutExtension) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	m := calloutHeader.FindSubmatchIndex(line)
	if m == nil {
		return nil, parser.NoChildren
	}

	rawType := string(line[m[2]:m[3]])
	node := &Callout{
		CalloutType: resolveCalloutType(rawType),
		Fold:        string(line[m[4]:m[5]]),
	}
	title := &CalloutTitle{Default: defaultCalloutTitle(rawType)}
	if m[6] < m[7] {
		base := segment.Start - segment.Padding
		title.Lines().Append(text.NewSegment(base+m[6], base+m[7]))
	}
	node.AppendChild(node, title)

	reader.AdvanceToEOL()
	return node, parser.HasChildren
}

func (calloutExtension) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	if consumeQuoteMarker(reader) {
		return parser.Continue | parser.HasChildren
	}
	return parser.Close
}

// Close moves the body blocks under a CalloutContent node so the renderer
// can wrap them.
func (calloutExtension) Close(node ast.Node, reader text.Reader, pc parser.Context) {
	content := &CalloutContent{}
	var body []ast.Node
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Kind() != KindCalloutTitle {
			body = append(body, c)
		}
	}
	for _, c := range body {
		content.AppendChild(content, c)
	}
	node.AppendChild(node, content)
}

func (calloutExtension) CanInterruptParagraph() bool {
	return true
}

func (calloutExtension) CanAcceptIndentedLine() bool {
	return false
}

// consumeQuoteMarker advances past a "> " continuation marker, mirroring
// goldmark's blockquote parser.
func consumeQuoteMarker(reader text.Reader) bool {
	line, _ := reader.PeekLine()
	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w > 3 || pos >= len(line) || line[pos] != '>' {
		return false
	}
	pos++
	if pos >= len(line) || line[pos] == '\n' {
		reader.Advance(pos)
		return true
	}
	reader.Advance(pos)
	if line[pos] == ' ' || line[pos] == '\t' {
		padding := 0
		if line[pos] == '\t' {
			padding = util.TabWidth(reader.LineOffset()) - 1
		}
		reader.AdvanceAndSetPadding(1, padding)
	}
	return true
}

func (e calloutExtension) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindCallout, e.renderCallout)
	reg.Register(KindCalloutTitle, e.renderTitle)
	reg.Register(KindCalloutContent, e.renderContent)
}

func (calloutExtension) renderCallout(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</div>\n")
		return ast.WalkContinue, nil
	}
	n := node.(*Callout)
	typ := htmlsafe.EscapeHTML(n.CalloutType)
	_, _ = w.WriteString(`<div class="callout callout-` + typ)
	if n.Fold != "" {
		_, _ = w.WriteString(" is-collapsible")
		if n.Collapsed() {
			_, _ = w.WriteString(" is-collapsed")
		}
	}
	_, _ = w.WriteString(`" data-callout="` + typ + `"`)
	if n.Fold != "" {
		_, _ = w.WriteString(` data-callout-fold="` + n.Fold + `"`)
	}
	_, _ = w.WriteString(">\n")
	return ast.WalkContinue, nil
}

func (calloutExtension) renderTitle(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</div>\n")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<div class="callout-title">`)
	if !node.HasChildren() {
		_, _ = w.WriteString(htmlsafe.EscapeHTML(node.(*CalloutTitle).Default))
	}
	return ast.WalkContinue, nil
}

func (calloutExtension) renderContent(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<div class=\"callout-content\">\n")
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkContinue, nil
}
