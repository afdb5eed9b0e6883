package mdprint

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/mdprint/internal/toc"
)

// Format is a named paper size.
type Format string

// Paper formats accepted by PageSettings.
const (
	FormatLetter  Format = "letter"
	FormatLegal   Format = "legal"
	FormatTabloid Format = "tabloid"
	FormatLedger  Format = "ledger"
	FormatA0      Format = "a0"
	FormatA1      Format = "a1"
	FormatA2      Format = "a2"
	FormatA3      Format = "a3"
	FormatA4      Format = "a4"
	FormatA5      Format = "a5"
	FormatA6      Format = "a6"
)

// paperSizes holds portrait width and height in inches.
var paperSizes = map[Format][2]float64{
	FormatLetter:  {8.5, 11},
	FormatLegal:   {8.5, 14},
	FormatTabloid: {11, 17},
	FormatLedger:  {17, 11},
	FormatA0:      {33.1, 46.8},
	FormatA1:      {23.4, 33.1},
	FormatA2:      {16.54, 23.4},
	FormatA3:      {11.7, 16.54},
	FormatA4:      {8.27, 11.7},
	FormatA5:      {5.83, 8.27},
	FormatA6:      {4.13, 5.83},
}

// Formats returns every accepted paper format name.
func Formats() []Format {
	return []Format{
		FormatLetter, FormatLegal, FormatTabloid, FormatLedger,
		FormatA0, FormatA1, FormatA2, FormatA3, FormatA4, FormatA5, FormatA6,
	}
}

// ParseFormat normalizes a paper format name. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := paperSizes[f]; !ok {
		return "", fmt.Errorf("%w: %q (valid: %s)", ErrInvalidPageFormat, s, joinFormats())
	}
	return f, nil
}

func joinFormats() string {
	names := make([]string, 0, len(paperSizes))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

// DefaultMargin is used when PageSettings.Margin is empty.
const DefaultMargin = "0.5in"

// Margins are page margins in inches.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// unitInches converts one unit of each CSS length to inches.
var unitInches = map[string]float64{
	"in": 1,
	"cm": 1 / 2.54,
	"mm": 1 / 25.4,
	"pt": 1.0 / 72,
	"pc": 1.0 / 6,
	"px": 1.0 / 96,
}

// ParseMargin parses CSS margin shorthand: one to four lengths in in, cm,
// mm, pt, pc or px, applied top/right/bottom/left the way CSS does. A bare
// "0" needs no unit.
func ParseMargin(s string) (Margins, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 || len(parts) > 4 {
		return Margins{}, fmt.Errorf("%w: %q (want 1 to 4 lengths)", ErrInvalidMargin, s)
	}

	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := parseLength(p)
		if err != nil {
			return Margins{}, fmt.Errorf("%w: %q: %v", ErrInvalidMargin, s, err)
		}
		values[i] = v
	}

	switch len(values) {
	case 1:
		return Margins{values[0], values[0], values[0], values[0]}, nil
	case 2:
		return Margins{values[0], values[1], values[0], values[1]}, nil
	case 3:
		return Margins{values[0], values[1], values[2], values[1]}, nil
	default:
		return Margins{values[0], values[1], values[2], values[3]}, nil
	}
}

// parseLength converts one CSS length to inches.
func parseLength(s string) (float64, error) {
	if s == "0" {
		return 0, nil
	}
	if len(s) < 3 {
		return 0, fmt.Errorf("length %q needs a unit", s)
	}
	unit := strings.ToLower(s[len(s)-2:])
	factor, ok := unitInches[unit]
	if !ok {
		return 0, fmt.Errorf("length %q has unknown unit (use in, cm, mm, pt, pc or px)", s)
	}
	n, err := strconv.ParseFloat(s[:len(s)-2], 64)
	if err != nil {
		return 0, fmt.Errorf("length %q is not a number", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("length %q is negative", s)
	}
	return n * factor, nil
}

// PageSettings configures PDF page geometry.
type PageSettings struct {
	Format    Format // default: letter
	Margin    string // CSS shorthand, default: DefaultMargin
	Landscape bool

	// HeaderHTML and FooterHTML are Chrome print templates. Setting either
	// turns on the header/footer area.
	HeaderHTML string
	FooterHTML string
}

// DefaultPageSettings returns page settings with default values.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Format: FormatLetter,
		Margin: DefaultMargin,
	}
}

// Validate checks that the format is known, the margin parses, and the
// margins leave a printable area. Returns nil if p is nil (nil means use
// defaults). Does not mutate.
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}
	_, _, _, err := p.resolve()
	return err
}

// resolve returns the paper size in inches (orientation applied) and the
// parsed margins.
func (p *PageSettings) resolve() (width, height float64, m Margins, err error) {
	settings := DefaultPageSettings()
	if p != nil {
		settings = p
	}

	format := FormatLetter
	if settings.Format != "" {
		format, err = ParseFormat(string(settings.Format))
		if err != nil {
			return 0, 0, Margins{}, err
		}
	}

	margin := settings.Margin
	if margin == "" {
		margin = DefaultMargin
	}
	m, err = ParseMargin(margin)
	if err != nil {
		return 0, 0, Margins{}, err
	}

	size := paperSizes[format]
	width, height = size[0], size[1]
	if settings.Landscape {
		width, height = height, width
	}

	if m.Left+m.Right >= width || m.Top+m.Bottom >= height {
		return 0, 0, Margins{}, fmt.Errorf("%w: %q leaves no printable area on %s", ErrInvalidMargin, margin, format)
	}
	return width, height, m, nil
}

// Input contains conversion parameters for one document.
type Input struct {
	Markdown string // Markdown content (required)

	// SourceDir resolves relative images, links and frontmatter CSS.
	// Usually the directory of the Markdown file.
	SourceDir string

	Page *PageSettings // nil = defaults

	// TOC forces the table of contents on or off. nil lets the frontmatter
	// or a [TOC] marker decide.
	TOC      *bool
	TOCDepth int    // 1-6, 0 = frontmatter or default
	TOCTitle string // Empty = no title above TOC

	TOCNumbered bool // Prefix entries with "1.", "1.1.", ...

	Math    *bool // nil = enabled unless frontmatter disables
	Mermaid *bool // nil = enabled unless frontmatter disables

	CSSPath      string // Extra stylesheet, must exist
	TemplatePath string // Page template, falls back to default if missing
	Title        string // Overrides frontmatter and first heading

	// LinkExtension replaces .md in relative links, e.g. ".pdf".
	LinkExtension string

	HTMLOnly bool // Skip PDF generation
}

// Validate checks the fields a caller can get wrong before any rendering.
func (in Input) Validate() error {
	if in.Markdown == "" {
		return ErrEmptyMarkdown
	}
	if err := in.Page.Validate(); err != nil {
		return err
	}
	if in.TOCDepth != 0 {
		if err := toc.ValidateDepth(in.TOCDepth); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTOCDepth, err)
		}
	}
	if ext := in.LinkExtension; ext != "" {
		if !strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, "/\\?# ") {
			return fmt.Errorf("%w: %q", ErrInvalidLinkExtension, ext)
		}
	}
	return nil
}

// ConvertResult contains the output of a conversion.
type ConvertResult struct {
	HTML       []byte // Assembled HTML page
	PDF        []byte // Empty when Input.HTMLOnly
	Title      string
	HasMath    bool
	HasMermaid bool
	Warnings   []string // Recoverable content problems
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second
