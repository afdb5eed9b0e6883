package markdown

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/mdprint/internal/htmlsafe"
)

const diagramLanguage = "mermaid"

var diagramFenceKey = parser.NewContextKey()

type diagramFence struct {
	char   byte
	indent int
	length int
	node   ast.Node
}

// diagramExtension parses fences whose info string is exactly "mermaid".
// It runs just ahead of goldmark's fenced code parser; any other fence is
// left to that parser and to syntax highlighting.
type diagramExtension struct{}

func (diagramExtension) priority() int { return 699 }

func (diagramExtension) Trigger() []byte {
	return []byte{'`', '~'}
}

func (diagramExtension) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || (line[pos] != '`' && line[pos] != '~') {
		return nil, parser.NoChildren
	}
	char := line[pos]
	i := pos
	for i < len(line) && line[i] == char {
		i++
	}
	if i-pos < 3 || string(bytes.TrimSpace(line[i:])) != diagramLanguage {
		return nil, parser.NoChildren
	}

	node := &Diagram{}
	pc.Set(diagramFenceKey, &diagramFence{char: char, indent: pos, length: i - pos, node: node})
	return node, parser.NoChildren
}

func (diagramExtension) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	fence := pc.Get(diagramFenceKey).(*diagramFence)

	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w < 4 {
		i := pos
		for i < len(line) && line[i] == fence.char {
			i++
		}
		if i-pos >= fence.length && util.IsBlank(line[i:]) {
			newline := 1
			if line[len(line)-1] != '\n' {
				newline = 0
			}
			reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
			return parser.Close
		}
	}

	pos, padding := util.IndentPositionPadding(line, reader.LineOffset(), segment.Padding, fence.indent)
	if pos < 0 {
		pos = max(0, util.FirstNonSpacePosition(line)) - segment.Padding
		padding = 0
	}
	seg := text.NewSegmentPadding(segment.Start+pos, segment.Stop, padding)
	seg.ForceNewline = true
	node.Lines().Append(seg)
	reader.AdvanceAndSetPadding(segment.Stop-segment.Start-pos-1, padding)
	return parser.Continue | parser.NoChildren
}

func (diagramExtension) Close(node ast.Node, reader text.Reader, pc parser.Context) {
	if fence, ok := pc.Get(diagramFenceKey).(*diagramFence); ok && fence.node == node {
		pc.Set(diagramFenceKey, nil)
	}
}

func (diagramExtension) CanInterruptParagraph() bool {
	return true
}

func (diagramExtension) CanAcceptIndentedLine() bool {
	return false
}

func (e diagramExtension) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDiagram, e.render)
}

func (diagramExtension) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<div class="mermaid">`)
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		_, _ = w.WriteString(htmlsafe.EscapeHTML(string(seg.Value(source))))
	}
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}
