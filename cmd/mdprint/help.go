package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdprint <command> [flags] [args]")
	fmt.Fprintln(w, "       mdprint <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert markdown files to PDF or HTML")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mdprint help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdprint convert <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert markdown files to PDF. Math ($...$, $$...$$, \\(...\\), \\[...\\])")
	fmt.Fprintln(w, "and mermaid diagrams are typeset in the browser before printing.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file, directory or glob (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>           Output file or directory")
	fmt.Fprintln(w, "  -c, --config <name>           Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>             Parallel workers (0 = auto, max 8)")
	fmt.Fprintln(w, "  -t, --timeout <d>             Per-document timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --watch                   Re-convert when inputs change")
	fmt.Fprintln(w, "      --html                    Also write the HTML next to the PDF")
	fmt.Fprintln(w, "      --html-only               Write HTML only, skip PDF")
	fmt.Fprintln(w, "      --link-ext <ext>          Extension for rewritten .md links")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "      --format <s>              letter, legal, tabloid, ledger, a0-a6")
	fmt.Fprintln(w, "      --margin <s>              CSS shorthand, 1-4 lengths (in, cm, mm, pt, pc, px)")
	fmt.Fprintln(w, "      --landscape               Landscape orientation")
	fmt.Fprintln(w, "      --header-template <path>  HTML file for the page header")
	fmt.Fprintln(w, "      --footer-template <path>  HTML file for the page footer")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Table of Contents:")
	fmt.Fprintln(w, "      --toc                     Insert a table of contents")
	fmt.Fprintln(w, "      --no-toc                  Never insert one, even for [TOC]")
	fmt.Fprintln(w, "      --toc-depth <n>           Max heading depth (1-6)")
	fmt.Fprintln(w, "      --toc-title <s>           TOC heading text")
	fmt.Fprintln(w, "      --toc-numbered            Number entries (1., 1.1., ...)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "      --title <s>               Title (overrides frontmatter)")
	fmt.Fprintln(w, "      --template <path>         HTML page template")
	fmt.Fprintln(w, "      --css <path>              Extra CSS file")
	fmt.Fprintln(w, "      --no-math                 Do not load MathJax")
	fmt.Fprintln(w, "      --no-mermaid              Do not load mermaid")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling and Assets:")
	fmt.Fprintln(w, "      --style <name|path|url>   Theme name, CSS file or stylesheet URL")
	fmt.Fprintln(w, "      --highlight-style <s>     Code highlight style (\"none\" disables)")
	fmt.Fprintln(w, "      --asset-path <dir>        Custom styles/ and templates/")
	fmt.Fprintln(w, "      --runtime-dir <dir>       Local tex-svg.js and mermaid.min.js")
	fmt.Fprintln(w, "      --browser-bin <path>      Chrome or Chromium executable")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                   Only show errors")
	fmt.Fprintln(w, "  -v, --verbose                 Show debug output and timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MDPRINT_CONFIG, MDPRINT_TIMEOUT, MDPRINT_WORKERS, MDPRINT_FORMAT,")
	fmt.Fprintln(w, "  MDPRINT_MARGIN, MDPRINT_INPUT_DIR, MDPRINT_OUTPUT_DIR, MDPRINT_STYLE,")
	fmt.Fprintln(w, "  MDPRINT_RUNTIME_DIR. Flags win over environment, environment over config.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, deps *Dependencies) int {
	if len(args) == 0 {
		printUsage(deps.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(deps.Stdout)
	case "version":
		fmt.Fprintln(deps.Stdout, "Usage: mdprint version")
		fmt.Fprintln(deps.Stdout)
		fmt.Fprintln(deps.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(deps.Stdout, "Usage: mdprint help [command]")
		fmt.Fprintln(deps.Stdout)
		fmt.Fprintln(deps.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(deps.Stderr, "Unknown command: %s\n", args[0])
		printUsage(deps.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
