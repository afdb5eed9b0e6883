// Package frontmatter splits a leading YAML metadata block from a Markdown
// document.
//
// Extraction never loses content: when the block cannot be decoded it stays
// in the body and a warning is returned instead.
package frontmatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alnah/mdprint/internal/yamlutil"
)

const delimiter = "---"

// Meta holds the recognised frontmatter keys. Pointer fields are nil when
// the key is absent so callers can tell "false" from "not set".
type Meta struct {
	Title    string
	TOC      *bool
	TOCDepth int // 0 when absent or invalid
	Math     *bool
	Mermaid  *bool
	CSS      []string
	Extra    map[string]any
}

// Result is the outcome of Parse.
type Result struct {
	Meta     Meta
	Body     string
	Warnings []string
}

// Parse extracts frontmatter from text. The block must start on the first
// line with "---" and end with a line holding "---" or "...". Text without a
// complete block is returned unchanged as the body.
func Parse(text string) Result {
	block, body, ok := split(text)
	if !ok {
		return Result{Body: text}
	}
	if strings.TrimSpace(block) == "" {
		return Result{Body: body}
	}

	raw, err := yamlutil.DecodeMapping([]byte(block))
	if err != nil {
		return Result{
			Body:     text,
			Warnings: []string{fmt.Sprintf("frontmatter ignored: %v", err)},
		}
	}

	var res Result
	res.Body = body
	res.Meta, res.Warnings = decodeMeta(raw)
	return res
}

// split returns the YAML between the delimiters and the text after the
// closing line.
func split(text string) (block, body string, ok bool) {
	first, rest, found := strings.Cut(text, "\n")
	if !found || strings.TrimRight(first, " \t") != delimiter {
		return "", "", false
	}

	offset := 0
	for offset <= len(rest) {
		line, after, more := strings.Cut(rest[offset:], "\n")
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == delimiter || trimmed == "..." {
			block = rest[:offset]
			if more {
				body = after
			}
			return block, body, true
		}
		if !more {
			break
		}
		offset += len(line) + 1
	}
	return "", "", false
}

func decodeMeta(raw map[string]any) (Meta, []string) {
	var (
		m        Meta
		warnings []string
	)
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := raw[key]
		switch key {
		case "title":
			switch s := v.(type) {
			case string:
				m.Title = s
			case nil:
			default:
				m.Title = fmt.Sprint(s)
			}
		case "toc":
			if b, ok := v.(bool); ok {
				m.TOC = &b
			} else {
				warn("frontmatter toc: expected boolean, got %v", v)
			}
		case "tocDepth":
			n, ok := toInt(v)
			if !ok || n < 1 || n > 6 {
				warn("frontmatter tocDepth: expected integer 1-6, got %v", v)
				continue
			}
			m.TOCDepth = n
		case "math":
			if b, ok := v.(bool); ok {
				m.Math = &b
			} else {
				warn("frontmatter math: expected boolean, got %v", v)
			}
		case "mermaid":
			if b, ok := v.(bool); ok {
				m.Mermaid = &b
			} else {
				warn("frontmatter mermaid: expected boolean, got %v", v)
			}
		case "css":
			paths, ok := toStrings(v)
			if !ok {
				warn("frontmatter css: expected path or list of paths, got %v", v)
				continue
			}
			m.CSS = paths
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]any)
			}
			m.Extra[key] = v
		}
	}
	return m, warnings
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func toStrings(v any) ([]string, bool) {
	switch s := v.(type) {
	case string:
		if s == "" {
			return nil, false
		}
		return []string{s}, true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok || str == "" {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}
