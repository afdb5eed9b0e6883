package mathguard

import (
	"regexp"
	"strings"
)

// fence is a fenced code block located in source text. start is the offset of
// the first fence character (after any indentation or blockquote markers);
// end is the offset just past the closing fence line, excluding its newline.
type fence struct {
	start, end int
	info       string
}

// scanFences returns the top-level fenced code blocks of s in order.
// An unterminated fence runs to the end of the text, as in CommonMark.
func scanFences(s string) []fence {
	var (
		out  []fence
		open *fence
		char byte
		size int
	)

	var lists listTracker
	for pos := 0; pos < len(s); {
		lineEnd := strings.IndexByte(s[pos:], '\n')
		if lineEnd < 0 {
			lineEnd = len(s)
		} else {
			lineEnd += pos
		}
		line := s[pos:lineEnd]
		pre := prefixLen(line)
		body := line[pre:]

		if open == nil {
			if codeIndented(line, pre, lists.next(line)) {
				pos = lineEnd + 1
				continue
			}
			if c, n, info, ok := fenceOpener(body); ok {
				open = &fence{start: pos + pre, info: info}
				char, size = c, n
			}
		} else if isFenceCloser(body, char, size) {
			open.end = lineEnd
			out = append(out, *open)
			open = nil
		}
		pos = lineEnd + 1
	}

	if open != nil {
		open.end = len(s)
		out = append(out, *open)
	}
	return out
}

// prefixLen returns the length of the indentation and blockquote markers
// that lead line.
func prefixLen(line string) int {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t' || line[i] == '>') {
		i++
	}
	return i
}

// listMarker matches the first line of a bullet or ordered list item.
var listMarker = regexp.MustCompile(`^[ ]{0,3}(?:[-+*]|[0-9]{1,9}[.)])(?:[ \t]|$)`)

// atxHeading matches a "#" heading line.
var atxHeading = regexp.MustCompile(`^[ ]{0,3}#{1,6}(?:[ \t]|$)`)

// listTracker follows whether a line may belong to a list item, where deep
// indentation continues the item instead of opening indented code.
type listTracker struct {
	inList bool
}

func (t *listTracker) next(line string) bool {
	switch {
	case listMarker.MatchString(line):
		t.inList = true
	case strings.TrimSpace(line) == "":
	case indentWidth(line) == 0:
		t.inList = false
	}
	return t.inList
}

// indentWidth returns the column width of the leading spaces and tabs of
// line. Tabs advance to the next multiple of 4.
func indentWidth(line string) int {
	w := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			w++
		case '\t':
			w += 4 - w%4
		default:
			return w
		}
	}
	return w
}

// codeIndented reports whether line is indented deep enough to be indented
// code rather than a block opener. pre is the container prefix length from
// prefixLen; lines inside blockquotes or list items are never treated so.
func codeIndented(line string, pre int, inList bool) bool {
	if inList || strings.IndexByte(line[:pre], '>') >= 0 {
		return false
	}
	return indentWidth(line) >= 4
}

func fenceOpener(body string) (char byte, size int, info string, ok bool) {
	if body == "" || (body[0] != '`' && body[0] != '~') {
		return 0, 0, "", false
	}
	char = body[0]
	size = runLen(body, 0, char)
	if size < 3 {
		return 0, 0, "", false
	}
	info = strings.TrimSpace(body[size:])
	if char == '`' && strings.IndexByte(info, '`') >= 0 {
		return 0, 0, "", false
	}
	return char, size, info, true
}

func isFenceCloser(body string, char byte, size int) bool {
	n := runLen(body, 0, char)
	if n < size {
		return false
	}
	return strings.TrimSpace(body[n:]) == ""
}

// runLen counts consecutive c bytes in s starting at i.
func runLen(s string, i int, c byte) int {
	n := 0
	for i+n < len(s) && s[i+n] == c {
		n++
	}
	return n
}

// isEscaped reports whether the byte at i is preceded by an odd number of
// backslashes.
func isEscaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// closingRun finds the next backtick run of exactly n bytes at or after from.
// Code spans do not cross blank lines; -1 means no closer.
func closingRun(s string, from, n int) int {
	for j := from; j < len(s); {
		switch s[j] {
		case '`':
			m := runLen(s, j, '`')
			if m == n {
				return j
			}
			j += m
		case '\n':
			if strings.HasPrefix(strings.TrimLeft(s[j+1:], " \t"), "\n") {
				return -1
			}
			j++
		default:
			j++
		}
	}
	return -1
}

// closingParen returns the offset of the parenthesis closing a link
// destination that starts at from, honouring nested pairs and backslash
// escapes. Destinations never span lines.
func closingParen(s string, from int) int {
	depth := 0
	for j := from; j < len(s); j++ {
		switch s[j] {
		case '\n':
			return -1
		case '\\':
			j++
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return j
			}
			depth--
		}
	}
	return -1
}

// closingDollar finds the '$' ending an inline math span opened just before
// from. The closer must not follow whitespace or precede a digit, so prices
// such as "$5 and $10" never pair up.
func closingDollar(s string, from int) int {
	for j := from; j < len(s) && s[j] != '\n'; j++ {
		if s[j] != '$' || isEscaped(s, j) {
			continue
		}
		if isSpace(s[j-1]) {
			continue
		}
		if j+1 < len(s) && isDigit(s[j+1]) {
			continue
		}
		return j
	}
	return -1
}
