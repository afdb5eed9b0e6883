package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
)

var (
	slugTags = regexp.MustCompile(`<[!/a-z].*?>`)
	// Punctuation, general punctuation blocks and the Private Use Area
	// (highlight placeholders) are dropped from slugs.
	slugStrip = regexp.MustCompile("[\\x{2000}-\\x{206F}\\x{2E00}-\\x{2E7F}\\x{E000}-\\x{F8FF}\\\\'!\"#$%&()*+,./:;<=>?@\\[\\]^`{|}~]")
	slugSpace = regexp.MustCompile(`\s`)
)

const emptySlug = "section"

// Slugify lowercases text, removes tags and punctuation, and turns each
// whitespace character into a hyphen.
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = slugTags.ReplaceAllString(s, "")
	s = slugStrip.ReplaceAllString(s, "")
	return slugSpace.ReplaceAllString(s, "-")
}

// Slugger hands out unique slugs for one document. Repeats of a slug get
// "-1", "-2", ... in the order they are requested. It satisfies parser.IDs.
type Slugger struct {
	seen map[string]int
}

// NewSlugger returns an empty Slugger.
func NewSlugger() *Slugger {
	return &Slugger{seen: make(map[string]int)}
}

// Slug returns a unique slug for text.
func (s *Slugger) Slug(text string) string {
	base := Slugify(text)
	if base == "" {
		base = emptySlug
	}
	slug := base
	if n, ok := s.seen[base]; ok {
		for {
			n++
			slug = base + "-" + strconv.Itoa(n)
			if _, taken := s.seen[slug]; !taken {
				break
			}
		}
		s.seen[base] = n
	}
	s.seen[slug] = 0
	return slug
}

func (s *Slugger) Generate(value []byte, kind ast.NodeKind) []byte {
	return []byte(s.Slug(string(value)))
}

func (s *Slugger) Put(value []byte) {
	if _, ok := s.seen[string(value)]; !ok {
		s.seen[string(value)] = 0
	}
}
