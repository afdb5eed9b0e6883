package markdown

import (
	"github.com/yuin/goldmark/ast"
)

var (
	KindCallout        = ast.NewNodeKind("Callout")
	KindCalloutTitle   = ast.NewNodeKind("CalloutTitle")
	KindCalloutContent = ast.NewNodeKind("CalloutContent")
	KindDiagram        = ast.NewNodeKind("Diagram")
	KindPageBreak      = ast.NewNodeKind("PageBreak")
	KindTOCMarker      = ast.NewNodeKind("TOCMarker")
)

// Callout is an admonition parsed from a blockquote whose first line is a
// "[!type]" header. Its children are one CalloutTitle followed by one
// CalloutContent.
type Callout struct {
	ast.BaseBlock
	// CalloutType is the lowercase type after alias resolution.
	CalloutType string
	// Fold is "+" (expanded), "-" (collapsed) or "" when not foldable.
	Fold string
}

// Collapsed reports whether the header carried a trailing "-".
func (n *Callout) Collapsed() bool { return n.Fold == "-" }

func (n *Callout) Kind() ast.NodeKind { return KindCallout }

func (n *Callout) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"CalloutType": n.CalloutType,
		"Fold":        n.Fold,
	}, nil)
}

// CalloutTitle holds the custom title inlines, or renders Default when it
// has no children.
type CalloutTitle struct {
	ast.BaseBlock
	Default string
}

func (n *CalloutTitle) Kind() ast.NodeKind { return KindCalloutTitle }

func (n *CalloutTitle) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Default": n.Default}, nil)
}

// CalloutContent wraps the body blocks of a callout.
type CalloutContent struct {
	ast.BaseBlock
}

func (n *CalloutContent) Kind() ast.NodeKind { return KindCalloutContent }

func (n *CalloutContent) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// Diagram is a mermaid fence. Its lines are raw diagram source.
type Diagram struct {
	ast.BaseBlock
}

func (n *Diagram) IsRaw() bool { return true }

func (n *Diagram) Kind() ast.NodeKind { return KindDiagram }

func (n *Diagram) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// PageBreak forces a page break in print output.
type PageBreak struct {
	ast.BaseBlock
}

func (n *PageBreak) Kind() ast.NodeKind { return KindPageBreak }

func (n *PageBreak) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// TOCMarker marks where the table of contents goes.
type TOCMarker struct {
	ast.BaseBlock
}

func (n *TOCMarker) Kind() ast.NodeKind { return KindTOCMarker }

func (n *TOCMarker) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}
