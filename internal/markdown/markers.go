package markdown

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const (
	pageBreakLine = "<!-- PAGE_BREAK -->"
	tocLine       = "[TOC]"
)

// TOCPlaceholder is what a [TOC] line renders to. Raw HTML from the source is
// never rendered, so the string cannot come from user text.
const TOCPlaceholder = "<!-- mdprint:toc -->"

// lineMarker is a block made of one fixed line, such as a page break.
type lineMarker struct {
	line    string
	trigger byte
	prio    int
	kind    ast.NodeKind
	newNode func() ast.Node
	html    string
}

var (
	pageBreakExtension = &lineMarker{
		line:    pageBreakLine,
		trigger: '<',
		prio:    899,
		kind:    KindPageBreak,
		newNode: func() ast.Node { return &PageBreak{} },
		html:    "<div class=\"page-break\"></div>\n",
	}
	tocMarkerExtension = &lineMarker{
		line:    tocLine,
		trigger: '[',
		prio:    998,
		kind:    KindTOCMarker,
		newNode: func() ast.Node { return &TOCMarker{} },
		html:    TOCPlaceholder + "\n",
	}
)

func (m *lineMarker) priority() int { return m.prio }

func (m *lineMarker) Trigger() []byte {
	return []byte{m.trigger}
}

func (m *lineMarker) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	if string(bytes.TrimSpace(line)) != m.line {
		return nil, parser.NoChildren
	}
	reader.AdvanceToEOL()
	return m.newNode(), parser.NoChildren
}

func (m *lineMarker) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	return parser.Close
}

func (m *lineMarker) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (m *lineMarker) CanInterruptParagraph() bool {
	return true
}

func (m *lineMarker) CanAcceptIndentedLine() bool {
	return false
}

func (m *lineMarker) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(m.kind, m.render)
}

func (m *lineMarker) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(m.html)
	}
	return ast.WalkContinue, nil
}
