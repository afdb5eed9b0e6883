// Package markdown wraps goldmark with the block syntaxes and tree rewrites
// that mdprint documents use:
//
//   - callouts: "> [!type]+ Title" blockquotes rendered as div.callout
//   - mermaid fences: rendered as div.mermaid holding the escaped source
//   - "<!-- PAGE_BREAK -->" lines: rendered as div.page-break
//   - "[TOC]" lines: rendered as an inert marker for the TOC pass
//
// Parsing also assigns unique heading ids, rewrites links to sibling
// Markdown files, and keeps the footnote list at the end of the document.
// All per-document state lives in the goldmark parse context, so one
// Processor may be shared by concurrent renders.
package markdown
