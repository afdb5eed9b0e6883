// Package htmlsafe provides the escaping and URL allow-listing used wherever
// user text is written into HTML by hand instead of through goldmark.
package htmlsafe

import (
	"regexp"
	"strings"
)

// htmlEscaper covers the five characters that are significant in element
// content and in both single- and double-quoted attribute values.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes &, <, >, " and ' for safe inclusion in HTML.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// schemePattern matches a URL scheme per RFC 3986 (letter, then letters,
// digits, "+", "-" or ".", then a colon).
var schemePattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.\-]*):`)

// allowedSchemes lists the schemes a link may use. Anything else is rejected.
var allowedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
	"tel":    true,
}

// SanitizeHref returns href if it is safe to place in an anchor, or "#".
//
// Accepted: fragments ("#x"), relative paths ("./a", "../a", "/a", "a.html"),
// and the http, https, mailto and tel schemes. Rejected: empty values,
// protocol-relative URLs ("//host") and every other scheme.
func SanitizeHref(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return "#"
	}
	if strings.HasPrefix(href, "#") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "#"
	}
	if strings.HasPrefix(href, "./") || strings.HasPrefix(href, "../") || strings.HasPrefix(href, "/") {
		return href
	}

	// Browsers drop tabs and newlines inside URLs, so "java\tscript:" is
	// still a javascript URL. Detect the scheme on a stripped copy.
	m := schemePattern.FindStringSubmatch(stripControl(href))
	if m == nil {
		return href
	}
	if allowedSchemes[strings.ToLower(m[1])] {
		return href
	}
	return "#"
}

// stripControl removes ASCII control characters and spaces.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
