package markdown

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/alnah/mdprint/internal/htmlsafe"
	"github.com/alnah/mdprint/internal/mathguard"
)

var (
	guardKey    = parser.NewContextKey()
	linkExtKey  = parser.NewContextKey()
	externalURL = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)
)

// markdownExtensions are the link suffixes rewritten to the output format.
// Longest first so ".markdown" is not read as ".md".
var markdownExtensions = []string{".markdown", ".md"}

// headingIDTransformer gives every heading an id built from its plain text,
// with guarded math restored first so "$x^2$" and "x^2" slug alike.
type headingIDTransformer struct{}

func (headingIDTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	guard, _ := pc.Get(guardKey).(*mathguard.Guarded)
	ids := pc.IDs()

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		plain := PlainText(h, source)
		if guard != nil {
			plain = guard.RestorePlain(plain)
		}
		h.SetAttributeString("id", ids.Generate([]byte(plain), ast.KindHeading))
		return ast.WalkSkipChildren, nil
	})
}

// linkTransformer rewrites links to sibling Markdown files and passes every
// link destination through the href allow-list. Autolinks whose URL the
// allow-list rejects become plain links to "#" labelled with their text.
type linkTransformer struct{}

func (linkTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	ext, _ := pc.Get(linkExtKey).(string)
	source := reader.Source()

	var rejected []*ast.AutoLink
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			dest := RewriteLink(string(v.Destination), ext)
			v.Destination = []byte(htmlsafe.SanitizeHref(dest))
		case *ast.AutoLink:
			url := string(v.URL(source))
			if htmlsafe.SanitizeHref(url) != url {
				rejected = append(rejected, v)
			}
		}
		return ast.WalkContinue, nil
	})

	// Replaced after the walk so the walker never follows a detached node.
	for _, al := range rejected {
		link := ast.NewLink()
		link.Destination = []byte("#")
		link.AppendChild(link, ast.NewString(al.Label(source)))
		al.Parent().ReplaceChild(al.Parent(), al, link)
	}
}

// footnoteTransformer keeps the single footnote list as the last child of
// the document. It runs after goldmark's footnote transformer builds it.
type footnoteTransformer struct{}

func (footnoteTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Kind() != east.KindFootnoteList {
			continue
		}
		if c != doc.LastChild() {
			doc.RemoveChild(doc, c)
			doc.AppendChild(doc, c)
		}
		return
	}
}

// RewriteLink replaces a trailing .md or .markdown on dest's path with ext,
// keeping any query or fragment. URLs with a scheme and authority
// ("https://...") and empty ext leave dest unchanged.
func RewriteLink(dest, ext string) string {
	if ext == "" || externalURL.MatchString(dest) {
		return dest
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	path, suffix := dest, ""
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		path, suffix = dest[:i], dest[i:]
	}
	lower := strings.ToLower(path)
	for _, md := range markdownExtensions {
		if strings.HasSuffix(lower, md) && len(path) > len(md) {
			return path[:len(path)-len(md)] + ext + suffix
		}
	}
	return dest
}

// PlainText returns the text of n's inline children with markup removed:
// link labels and image alt text are kept, raw HTML is dropped.
func PlainText(n ast.Node, source []byte) string {
	var b strings.Builder
	writePlain(&b, n, source)
	return b.String()
}

func writePlain(b *strings.Builder, n ast.Node, source []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.RawHTML:
		case *ast.AutoLink:
			b.Write(v.Label(source))
		default:
			writePlain(b, c, source)
		}
	}
}
