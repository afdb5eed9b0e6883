package markdown

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// blockExtension is one custom block syntax: a goldmark block parser that
// claims its lines and a node renderer that emits its HTML. Lower priority
// values are consulted first.
type blockExtension interface {
	parser.BlockParser
	renderer.NodeRenderer
	priority() int
}

// blockExtensions lists the custom syntaxes in the order they are consulted.
var blockExtensions = []blockExtension{
	diagramExtension{},
	calloutExtension{},
	pageBreakExtension,
	tocMarkerExtension,
}

// blocks registers every block extension and the tree transformers.
type blocks struct{}

func (blocks) Extend(m goldmark.Markdown) {
	for _, ext := range blockExtensions {
		m.Parser().AddOptions(parser.WithBlockParsers(util.Prioritized(ext, ext.priority())))
		m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(ext, 500)))
	}
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(headingIDTransformer{}, 100),
		util.Prioritized(linkTransformer{}, 110),
		util.Prioritized(footnoteTransformer{}, 1000),
	))
}
