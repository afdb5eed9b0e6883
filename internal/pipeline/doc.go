// Package pipeline turns one Markdown document into a complete HTML page.
//
// Stages, in order:
//   - line ending and BOM normalisation
//   - frontmatter extraction
//   - math and code protection (mathguard), with ==highlight== and blank
//     line compression applied to prose only
//   - parsing (internal/markdown), which assigns heading ids and rewrites links
//   - TOC decision and construction (internal/toc)
//   - body rendering, TOC substitution, math restoration
//   - assembly into the page template with CSS and runtime bootstraps
//
// PDF generation is handled separately by the root mdprint package using
// headless Chrome (go-rod). This separation keeps the pipeline focused on
// document structure and content, while PDF rendering handles page layout,
// margins, and browser-based rendering concerns.
package pipeline
