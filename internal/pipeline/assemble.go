package pipeline

import (
	"strings"

	"github.com/alnah/mdprint/internal/assets"
	"github.com/alnah/mdprint/internal/htmlsafe"
)

// Template tokens replaced by Assemble. Replacement is literal and single
// pass: token text inside substituted values is never expanded.
const (
	tokenTitle   = "{{title}}"
	tokenBase    = "{{base}}"
	tokenCSS     = "{{css}}"
	tokenContent = "{{content}}"
	tokenMathJax = "{{mathjax}}"
	tokenMermaid = "{{mermaid}}"
)

// fallbackTemplate is used if the embedded default cannot be read.
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
{{base}}
<title>{{title}}</title>
<style>{{css}}</style>
</head>
<body>
{{content}}
{{mathjax}}
{{mermaid}}
</body>
</html>`

// Page is everything Assemble puts into a template.
type Page struct {
	// Template is the page template; "" selects the built-in default.
	Template string
	Title    string
	// BaseURL becomes <base href>; "" emits no base tag.
	BaseURL string
	CSS     string
	// Content is the rendered body HTML.
	Content          string
	MathBootstrap    string
	MermaidBootstrap string
}

// Assemble substitutes the page into its template. Templates that lack a
// token still get that piece: CSS and base go into <head>, content and
// scripts before </body>. A template without {{mermaid}} receives the diagram
// bootstrap at {{mathjax}}.
func Assemble(p Page) string {
	tmpl := p.Template
	if tmpl == "" {
		tmpl = defaultTemplate()
	}

	base := ""
	if p.BaseURL != "" {
		base = `<base href="` + htmlsafe.EscapeHTML(p.BaseURL) + `">`
	}
	css := sanitizeCSS(p.CSS)

	mathjax, mermaid := p.MathBootstrap, p.MermaidBootstrap
	if !strings.Contains(tmpl, tokenMermaid) {
		mathjax, mermaid = joinNonEmpty(mathjax, mermaid), ""
	}

	hasBase := strings.Contains(tmpl, tokenBase)
	hasCSS := strings.Contains(tmpl, tokenCSS)
	hasContent := strings.Contains(tmpl, tokenContent)
	hasScripts := strings.Contains(tmpl, tokenMathJax)

	out := strings.NewReplacer(
		tokenTitle, htmlsafe.EscapeHTML(p.Title),
		tokenBase, base,
		tokenCSS, css,
		tokenContent, p.Content,
		tokenMathJax, mathjax,
		tokenMermaid, mermaid,
	).Replace(tmpl)

	if !hasBase && base != "" {
		out = insertAfterOpenTag(out, "<head", base)
	}
	if !hasCSS && css != "" {
		out = insertBeforeClose(out, "</head>", "<style>"+css+"</style>")
	}
	if !hasContent {
		out = insertBeforeClose(out, "</body>", p.Content)
	}
	if !hasScripts && mathjax != "" {
		out = insertBeforeClose(out, "</body>", mathjax)
	}
	return out
}

func defaultTemplate() string {
	tmpl, err := assets.LoadTemplate(assets.DefaultTemplateName)
	if err != nil {
		return fallbackTemplate
	}
	return tmpl
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
// Prevents CSS injection by escaping </style> and similar closing sequences.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// insertBeforeClose inserts s before the last closing tag (case-insensitive),
// or appends it when the tag is absent.
func insertBeforeClose(htmlContent, closeTag, s string) string {
	if idx := strings.LastIndex(strings.ToLower(htmlContent), closeTag); idx != -1 {
		return htmlContent[:idx] + s + htmlContent[idx:]
	}
	return htmlContent + s
}

// insertAfterOpenTag inserts s right after the first <tag ...>, or prepends it.
func insertAfterOpenTag(htmlContent, openTag, s string) string {
	lower := strings.ToLower(htmlContent)
	if idx := strings.Index(lower, openTag); idx != -1 {
		if closeIdx := strings.Index(htmlContent[idx:], ">"); closeIdx != -1 {
			pos := idx + closeIdx + 1
			return htmlContent[:pos] + s + htmlContent[pos:]
		}
	}
	return s + htmlContent
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "\n" + b
	}
}
