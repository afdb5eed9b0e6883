package frontmatter

import (
	"strings"
	"testing"
)

func TestParse_NoFrontmatter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "plain markdown", input: "# Title\n\nbody"},
		{name: "thematic break later", input: "intro\n---\nmore"},
		{name: "unterminated block", input: "---\ntitle: x\nbody without closer"},
		{name: "delimiter only", input: "---"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Parse(tt.input)
			if got.Body != tt.input {
				t.Errorf("Body = %q, want %q", got.Body, tt.input)
			}
			if len(got.Warnings) != 0 {
				t.Errorf("Warnings = %v, want none", got.Warnings)
			}
		})
	}
}

func TestParse_Fields(t *testing.T) {
	t.Parallel()

	input := "---\ntitle: My Doc\ntoc: true\ntocDepth: 2\nmath: false\nmermaid: true\ncss: style.css\nauthor: Ada\n---\n# Heading\n"
	got := Parse(input)

	if got.Body != "# Heading\n" {
		t.Errorf("Body = %q, want %q", got.Body, "# Heading\n")
	}
	if len(got.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", got.Warnings)
	}
	m := got.Meta
	if m.Title != "My Doc" {
		t.Errorf("Title = %q, want %q", m.Title, "My Doc")
	}
	if m.TOC == nil || !*m.TOC {
		t.Errorf("TOC = %v, want true", m.TOC)
	}
	if m.TOCDepth != 2 {
		t.Errorf("TOCDepth = %d, want 2", m.TOCDepth)
	}
	if m.Math == nil || *m.Math {
		t.Errorf("Math = %v, want false", m.Math)
	}
	if m.Mermaid == nil || !*m.Mermaid {
		t.Errorf("Mermaid = %v, want true", m.Mermaid)
	}
	if len(m.CSS) != 1 || m.CSS[0] != "style.css" {
		t.Errorf("CSS = %v, want [style.css]", m.CSS)
	}
	if m.Extra["author"] != "Ada" {
		t.Errorf("Extra[author] = %v, want Ada", m.Extra["author"])
	}
}

func TestParse_CSSList(t *testing.T) {
	t.Parallel()

	got := Parse("---\ncss:\n  - a.css\n  - b.css\n---\nbody")
	if len(got.Meta.CSS) != 2 || got.Meta.CSS[0] != "a.css" || got.Meta.CSS[1] != "b.css" {
		t.Errorf("CSS = %v, want [a.css b.css]", got.Meta.CSS)
	}
}

func TestParse_EmptyBlock(t *testing.T) {
	t.Parallel()

	got := Parse("---\n---\nbody")
	if got.Body != "body" {
		t.Errorf("Body = %q, want %q", got.Body, "body")
	}
	if got.Meta.TOC != nil || got.Meta.Title != "" {
		t.Errorf("Meta = %+v, want zero", got.Meta)
	}
}

func TestParse_DotsCloser(t *testing.T) {
	t.Parallel()

	got := Parse("---\ntitle: T\n...\nbody")
	if got.Meta.Title != "T" || got.Body != "body" {
		t.Errorf("Parse() = %+v", got)
	}
}

func TestParse_MalformedKeepsContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "broken yaml", input: "---\ntitle: [unclosed\n---\n# Body\n"},
		{name: "not a mapping", input: "---\n- a\n- b\n---\n# Body\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Parse(tt.input)
			if got.Body != tt.input {
				t.Errorf("Body = %q, want whole input %q", got.Body, tt.input)
			}
			if len(got.Warnings) != 1 || !strings.Contains(got.Warnings[0], "frontmatter ignored") {
				t.Errorf("Warnings = %v, want one frontmatter warning", got.Warnings)
			}
		})
	}
}

func TestParse_InvalidTypedValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantWarn string
	}{
		{name: "tocDepth too large", input: "---\ntocDepth: 9\n---\n", wantWarn: "tocDepth"},
		{name: "tocDepth zero", input: "---\ntocDepth: 0\n---\n", wantWarn: "tocDepth"},
		{name: "tocDepth text", input: "---\ntocDepth: deep\n---\n", wantWarn: "tocDepth"},
		{name: "toc not bool", input: "---\ntoc: maybe\n---\n", wantWarn: "toc"},
		{name: "css number", input: "---\ncss: 3\n---\n", wantWarn: "css"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Parse(tt.input)
			if got.Body != "" {
				t.Errorf("Body = %q, want empty", got.Body)
			}
			if got.Meta.TOCDepth != 0 || got.Meta.TOC != nil || got.Meta.CSS != nil {
				t.Errorf("Meta = %+v, want invalid value ignored", got.Meta)
			}
			if len(got.Warnings) != 1 || !strings.Contains(got.Warnings[0], tt.wantWarn) {
				t.Errorf("Warnings = %v, want one mentioning %q", got.Warnings, tt.wantWarn)
			}
		})
	}
}
