package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// pageFlags holds page layout flags.
type pageFlags struct {
	format         string
	margin         string
	landscape      bool
	headerTemplate string
	footerTemplate string
}

// tocFlags holds table of contents flags.
type tocFlags struct {
	enabled  bool
	disabled bool
	depth    int
	title    string
	numbered bool
}

// documentFlags holds per-document rendering flags.
type documentFlags struct {
	title     string
	template  string
	css       string
	noMath    bool
	noMermaid bool
}

// assetFlags holds style and runtime asset flags.
type assetFlags struct {
	style      string // Theme name, CSS file path
	highlight  string // Chroma style, "none" disables
	assetPath  string // Directory with styles/ and templates/
	runtimeDir string // Local MathJax/mermaid scripts
	browserBin string // Chrome/Chromium executable
}

// outputFlags holds output mode flags.
type outputFlags struct {
	html     bool   // Output HTML alongside PDF
	htmlOnly bool   // Output HTML only, skip PDF
	linkExt  string // Replacement for .md in relative links
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common     commonFlags
	output     string
	workers    int
	timeout    string
	watch      bool
	page       pageFlags
	toc        tocFlags
	document   documentFlags
	assets     assetFlags
	outputMode outputFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug output and timing")
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVar(&f.format, "format", "", "paper format: letter, legal, tabloid, ledger, a0-a6")
	fs.StringVar(&f.margin, "margin", "", "page margin, CSS shorthand with 1-4 lengths (e.g. \"1in 0.5in\")")
	fs.BoolVar(&f.landscape, "landscape", false, "landscape orientation")
	fs.StringVar(&f.headerTemplate, "header-template", "", "HTML file for the page header")
	fs.StringVar(&f.footerTemplate, "footer-template", "", "HTML file for the page footer")
}

// addTOCFlags adds TOC flags to a FlagSet.
func addTOCFlags(fs *flag.FlagSet, f *tocFlags) {
	fs.BoolVar(&f.enabled, "toc", false, "insert a table of contents")
	fs.BoolVar(&f.disabled, "no-toc", false, "never insert a table of contents")
	fs.IntVar(&f.depth, "toc-depth", 0, "max heading depth for TOC (1-6, default: 3)")
	fs.StringVar(&f.title, "toc-title", "", "table of contents heading")
	fs.BoolVar(&f.numbered, "toc-numbered", false, "number TOC entries (1., 1.1., ...)")
}

// addDocumentFlags adds document flags to a FlagSet.
func addDocumentFlags(fs *flag.FlagSet, f *documentFlags) {
	fs.StringVar(&f.title, "title", "", "document title (overrides frontmatter)")
	fs.StringVar(&f.template, "template", "", "HTML page template path")
	fs.StringVar(&f.css, "css", "", "extra CSS file appended after the theme")
	fs.BoolVar(&f.noMath, "no-math", false, "do not load the math runtime")
	fs.BoolVar(&f.noMermaid, "no-mermaid", false, "do not load the diagram runtime")
}

// addAssetFlags adds asset-related flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.style, "style", "", "theme name, CSS file path or stylesheet URL")
	fs.StringVar(&f.highlight, "highlight-style", "", "code highlight style (\"none\" disables)")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.StringVar(&f.runtimeDir, "runtime-dir", "", "directory with local tex-svg.js and mermaid.min.js")
	fs.StringVar(&f.browserBin, "browser-bin", "", "Chrome or Chromium executable")
}

// addOutputFlags adds output mode flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.BoolVar(&f.html, "html", false, "output HTML alongside PDF")
	fs.BoolVar(&f.htmlOnly, "html-only", false, "output HTML only, skip PDF")
	fs.StringVar(&f.linkExt, "link-ext", "", "extension for rewritten .md links (default: output extension)")
}

// parseConvertFlags parses convert command flags and returns positional args.
// Usage and parse errors are written to w.
func parseConvertFlags(args []string, w io.Writer) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(w)
	f := &convertFlags{}

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-document timeout (e.g., 30s, 2m)")
	fs.BoolVar(&f.watch, "watch", false, "re-convert when inputs change")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addPageFlags(fs, &f.page)
	addTOCFlags(fs, &f.toc)
	addDocumentFlags(fs, &f.document)
	addAssetFlags(fs, &f.assets)
	addOutputFlags(fs, &f.outputMode)

	fs.Usage = func() { printConvertUsage(w) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
