// Package mdprint converts Markdown documents to HTML and PDF using headless Chrome.
//
// # Quick Start
//
// Create a converter, convert markdown, and close when done:
//
//	conv, err := mdprint.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, mdprint.Input{
//	    Markdown: "# Hello\n\nEuler: $e^{i\\pi} + 1 = 0$",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("output.pdf", result.PDF, 0644)
//
// The result contains both the PDF bytes (result.PDF) and the assembled
// HTML page (result.HTML). Use Input.HTMLOnly to skip PDF generation.
//
// # Conversion Pipeline
//
// The conversion process follows these stages:
//
//  1. Source normalization and frontmatter extraction
//  2. Math protection: TeX spans become opaque placeholders so the Markdown
//     parser cannot rewrite them
//  3. Markdown to HTML via Goldmark (GFM, footnotes, callouts, mermaid
//     diagrams, page breaks, [TOC] markers, syntax highlighting)
//  4. Table of contents, math restoration, page assembly with the theme
//     and the MathJax and mermaid bootstraps the document needs
//  5. PDF rendering via headless Chrome (go-rod), after images, math and
//     diagrams have finished loading
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	conv, err := mdprint.NewConverter(
//	    mdprint.WithTimeout(2 * time.Minute),
//	    mdprint.WithStyle("academic"),
//	    mdprint.WithHighlightStyle("monokai"),
//	    mdprint.WithRuntimeAssets("/opt/mdprint/js"), // offline MathJax/mermaid
//	)
//
// Per-conversion options are passed via Input:
//
//	toc := true
//	result, err := conv.Convert(ctx, mdprint.Input{
//	    Markdown:      content,
//	    SourceDir:     "/path/to/markdown", // for relative images and links
//	    Page:          &mdprint.PageSettings{Format: mdprint.FormatA4, Margin: "2cm 1.5cm"},
//	    TOC:           &toc,
//	    TOCDepth:      2,
//	    LinkExtension: ".pdf",
//	})
//
// Frontmatter keys title, toc, tocDepth, math, mermaid and css configure a
// single document; Input fields win over frontmatter.
//
// # Parallel Processing
//
// A Converter is safe for concurrent use. For more throughput than one
// browser gives, use ConverterPool to manage several browser instances:
//
//	pool := mdprint.NewConverterPool(4)
//	defer pool.Close()
//
//	conv, err := pool.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(conv)
//	result, err := conv.Convert(ctx, input)
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN or WithBrowserBin to specify a custom
// Chrome binary.
package mdprint
