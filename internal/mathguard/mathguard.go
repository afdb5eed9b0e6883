package mathguard

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Guard tokens are bracketed by Private Use Area characters. They are
// disjoint from the highlight placeholders (U+E000, U+E001) and contain no
// byte goldmark treats as syntax.
const (
	guardOpen  = "\uE100"
	guardClose = "\uE101"
)

type kind byte

const (
	kindLiteral kind = 'C' // code fence, code span or link destination
	kindInline  kind = 'M' // $...$ or \(...\)
	kindDisplay kind = 'D' // $$...$$ or \[...\]
	kindDollar  kind = 'E' // escaped \$
)

// escapedDollarHTML is what an escaped dollar becomes in HTML output. MathJax
// skips elements with this class, so the dollar never opens a math span.
const escapedDollarHTML = `<span class="tex2jax_ignore">$</span>`

var (
	singleLineDisplayDollar  = regexp.MustCompile(`\$\$[^\n]+?\$\$`)
	singleLineDisplayBracket = regexp.MustCompile(`\\\[[^\n]+?\\\]`)
	inlineParen              = regexp.MustCompile(`\\\([^\n]+?\\\)`)
	autolink                 = regexp.MustCompile(`<[a-zA-Z][a-zA-Z0-9+.\-]*:[^<>\s]*>`)
)

// displayClosers maps a display-math opening line to its closing line.
var displayClosers = map[string]string{
	"$$":  "$$",
	`\[`: `\]`,
}

// mathHTMLEscaper keeps restored LaTeX from being parsed as markup while
// leaving ampersands and backslashes byte-identical.
var mathHTMLEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// Option configures Protect.
type Option func(*options)

type options struct {
	transform func(string) string
}

// WithTransform runs fn over the guarded text while code and math are still
// hidden, so fn only ever sees ordinary prose.
func WithTransform(fn func(string) string) Option {
	return func(o *options) {
		o.transform = fn
	}
}

// Guarded is the result of Protect: text safe to hand to the Markdown parser
// plus the table needed to put the protected spans back.
type Guarded struct {
	// Text is the source with math replaced by guard tokens.
	Text string

	originals []string
	mathCount int
	tokens    *regexp.Regexp
	literals  *regexp.Regexp
	display   *regexp.Regexp
}

// MathCount returns the number of math spans and blocks that were guarded.
func (g *Guarded) MathCount() int {
	return g.mathCount
}

// RestorePlain puts the original LaTeX back and turns escaped dollars into a
// bare "$". Use it for text that is not HTML, such as slug sources.
func (g *Guarded) RestorePlain(s string) string {
	return g.restore(s, false)
}

// RestoreHTML puts the original LaTeX back into rendered HTML. A display
// block that is alone in a paragraph becomes a div.math-display, and escaped
// dollars become an inert span.
func (g *Guarded) RestoreHTML(s string) string {
	s = g.display.ReplaceAllString(s, `<div class="math-display">$1</div>`)
	return g.restore(s, true)
}

func (g *Guarded) restore(s string, forHTML bool) string {
	if !strings.Contains(s, guardOpen) {
		return s
	}
	return g.tokens.ReplaceAllStringFunc(s, func(tok string) string {
		m := g.tokens.FindStringSubmatch(tok)
		idx, err := strconv.Atoi(m[2])
		if err != nil || idx >= len(g.originals) {
			return tok
		}
		switch kind(m[1][0]) {
		case kindDollar:
			if forHTML {
				return escapedDollarHTML
			}
			return "$"
		case kindInline, kindDisplay:
			if forHTML {
				return mathHTMLEscaper.Replace(g.originals[idx])
			}
			return g.originals[idx]
		default:
			return g.originals[idx]
		}
	})
}

// Protect guards math in src. The steps run in a fixed order and each one
// only sees text the previous steps left unguarded:
//
//  1. fenced code blocks
//  2. indented code blocks
//  3. inline code spans
//  4. link destinations and autolinks
//  5. multi-line display blocks ($$ or \[ \] on their own lines)
//  6. single-line display math
//  7. inline math, \( \) then $ $
//  8. escaped dollars
//
// The optional transform then runs, and finally code and links are released
// so the parser still sees them as code and links.
//
// Protect is total: malformed or unterminated math simply stays literal.
func Protect(src string, opts ...Option) *Guarded {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")
	p := &protector{nonce: nonce}

	s := p.guardFences(src)
	s = p.guardIndentedCode(s)
	s = p.guardCodeSpans(s)
	s = p.guardLinkTargets(s)
	s = p.guardDisplayBlocks(s)
	s = p.replacePattern(s, singleLineDisplayDollar, kindDisplay)
	s = p.replacePattern(s, singleLineDisplayBracket, kindDisplay)
	s = p.replacePattern(s, inlineParen, kindInline)
	s = p.guardInlineDollars(s)
	s = p.guardEscapedDollars(s)

	if o.transform != nil {
		s = o.transform(s)
	}

	g := &Guarded{
		originals: p.originals,
		mathCount: p.mathCount,
		tokens:    regexp.MustCompile(guardOpen + `([CMDE])` + nonce + `([0-9]+)` + guardClose),
		literals:  regexp.MustCompile(guardOpen + `C` + nonce + `([0-9]+)` + guardClose),
		display:   regexp.MustCompile(`<p>(` + guardOpen + `D` + nonce + `[0-9]+` + guardClose + `)</p>`),
	}

	// Math originals may hold code tokens, e.g. $a `b` c$.
	for i, orig := range g.originals {
		g.originals[i] = g.releaseLiterals(orig)
	}
	g.Text = g.releaseLiterals(s)
	return g
}

// releaseLiterals substitutes literal guards until none remain. Literal
// originals can nest (a code span inside a link destination), but each level
// is strictly shorter so the loop ends.
func (g *Guarded) releaseLiterals(s string) string {
	for strings.Contains(s, guardOpen) && g.literals.MatchString(s) {
		s = g.literals.ReplaceAllStringFunc(s, func(tok string) string {
			m := g.literals.FindStringSubmatch(tok)
			idx, err := strconv.Atoi(m[1])
			if err != nil || idx >= len(g.originals) {
				return ""
			}
			return g.originals[idx]
		})
	}
	return s
}

type protector struct {
	nonce     string
	originals []string
	mathCount int
}

func (p *protector) guard(k kind, original string) string {
	idx := len(p.originals)
	p.originals = append(p.originals, original)
	if k == kindInline || k == kindDisplay {
		p.mathCount++
	}
	return guardOpen + string(k) + p.nonce + strconv.Itoa(idx) + guardClose
}

func (p *protector) guardFences(s string) string {
	fences := scanFences(s)
	if len(fences) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, f := range fences {
		b.WriteString(s[last:f.start])
		b.WriteString(p.guard(kindLiteral, s[f.start:f.end]))
		last = f.end
	}
	b.WriteString(s[last:])
	return b.String()
}

// guardIndentedCode guards blocks of lines indented 4 or more columns that
// start after a blank line, a heading or a fenced block, as indented code
// cannot interrupt a paragraph. Trailing blank lines stay outside the block.
func (p *protector) guardIndentedCode(s string) string {
	lines := strings.SplitAfter(s, "\n")
	var (
		b         strings.Builder
		lists     listTracker
		canOpen   = true
		hasGuards bool
	)
	b.Grow(len(s))

	for i := 0; i < len(lines); {
		line := strings.TrimSuffix(lines[i], "\n")
		inList := lists.next(line)
		blank := strings.TrimSpace(line) == ""
		if blank || !canOpen || !codeIndented(line, prefixLen(line), inList) {
			b.WriteString(lines[i])
			// Only fences are guarded at this point, so a line holding a
			// token is a complete fenced block.
			canOpen = blank || atxHeading.MatchString(line) ||
				strings.HasPrefix(strings.TrimSpace(line), guardOpen)
			i++
			continue
		}

		last := i
		for k := i + 1; k < len(lines); k++ {
			next := strings.TrimSuffix(lines[k], "\n")
			if strings.TrimSpace(next) == "" {
				continue
			}
			if indentWidth(next) < 4 {
				break
			}
			last = k
		}

		block := strings.Join(lines[i:last+1], "")
		trailing := strings.HasSuffix(block, "\n")
		b.WriteString(p.guard(kindLiteral, strings.TrimSuffix(block, "\n")))
		if trailing {
			b.WriteByte('\n')
		}
		hasGuards = true
		canOpen = false
		i = last + 1
	}
	if !hasGuards {
		return s
	}
	return b.String()
}

func (p *protector) guardCodeSpans(s string) string {
	var b strings.Builder
	last := 0
	for i := 0; i < len(s); {
		if s[i] != '`' {
			i++
			continue
		}
		n := runLen(s, i, '`')
		if isEscaped(s, i) {
			i += n
			continue
		}
		end := closingRun(s, i+n, n)
		if end < 0 {
			i += n
			continue
		}
		b.WriteString(s[last:i])
		b.WriteString(p.guard(kindLiteral, s[i:end+n]))
		i = end + n
		last = i
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

func (p *protector) guardLinkTargets(s string) string {
	s = autolink.ReplaceAllStringFunc(s, func(m string) string {
		return p.guard(kindLiteral, m)
	})

	var b strings.Builder
	last := 0
	for i := 0; i+1 < len(s); i++ {
		if s[i] != ']' || s[i+1] != '(' {
			continue
		}
		start := i + 2
		end := closingParen(s, start)
		if end <= start {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(p.guard(kindLiteral, s[start:end]))
		last = end
		i = end
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

func (p *protector) guardDisplayBlocks(s string) string {
	lines := strings.SplitAfter(s, "\n")
	var (
		b     strings.Builder
		lists listTracker
	)
	b.Grow(len(s))

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSuffix(lines[i], "\n")
		pre := prefixLen(line)
		opener := strings.TrimSpace(line[pre:])
		inList := lists.next(line)
		closer, ok := displayClosers[opener]
		if !ok || codeIndented(line, pre, inList) {
			b.WriteString(lines[i])
			continue
		}

		end := -1
		for k := i + 1; k < len(lines); k++ {
			c := strings.TrimSuffix(lines[k], "\n")
			if strings.TrimSpace(c[prefixLen(c):]) == closer {
				end = k
				break
			}
		}
		if end < 0 {
			b.WriteString(lines[i])
			continue
		}

		parts := make([]string, 0, end-i+1)
		parts = append(parts, opener)
		for k := i + 1; k < end; k++ {
			parts = append(parts, stripLinePrefix(strings.TrimSuffix(lines[k], "\n"), line[:pre]))
		}
		parts = append(parts, closer)

		b.WriteString(line[:pre])
		b.WriteString(p.guard(kindDisplay, strings.Join(parts, "\n")))
		if strings.HasSuffix(lines[end], "\n") {
			b.WriteByte('\n')
		}
		i = end
	}
	return b.String()
}

// stripLinePrefix removes the opener's container prefix from a line inside a
// display block. Lines inside a blockquote may drop their markers lazily.
func stripLinePrefix(line, prefix string) string {
	if prefix == "" {
		return line
	}
	if strings.HasPrefix(line, prefix) {
		return line[len(prefix):]
	}
	if strings.Contains(prefix, ">") {
		return line[prefixLen(line):]
	}
	return line
}

// replacePattern guards every unescaped match of re.
func (p *protector) replacePattern(s string, re *regexp.Regexp, k kind) string {
	var b strings.Builder
	last, from := 0, 0
	for from < len(s) {
		loc := re.FindStringIndex(s[from:])
		if loc == nil {
			break
		}
		start, end := from+loc[0], from+loc[1]
		if isEscaped(s, start) {
			from = start + 1
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(p.guard(k, s[start:end]))
		last, from = end, end
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

func (p *protector) guardInlineDollars(s string) string {
	var b strings.Builder
	last := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '$' || isEscaped(s, i) {
			continue
		}
		if i+1 < len(s) && s[i+1] == '$' {
			i++
			continue
		}
		if i+1 >= len(s) || isSpace(s[i+1]) {
			continue
		}
		end := closingDollar(s, i+1)
		if end < 0 {
			continue
		}
		b.WriteString(s[last:i])
		b.WriteString(p.guard(kindInline, s[i:end+1]))
		last = end + 1
		i = end
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

func (p *protector) guardEscapedDollars(s string) string {
	var b strings.Builder
	last := 0
	for i := 1; i < len(s); i++ {
		if s[i] != '$' || !isEscaped(s, i) {
			continue
		}
		b.WriteString(s[last : i-1])
		b.WriteString(p.guard(kindDollar, `\$`))
		last = i + 1
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}
