// Package mathguard shields LaTeX math from the Markdown parser.
//
// Protect replaces math spans and blocks with opaque placeholder tokens
// before goldmark sees the text, so hard-wrap conversion and entity escaping
// cannot alter them. After rendering, Guarded.RestoreHTML puts the original
// LaTeX back. Code fences, code spans and link destinations are shielded
// first and released before Protect returns, so math-like text inside them is
// never treated as math.
//
// Guards are strictly per document: each Protect call draws a fresh nonce and
// owns its guard table. A Guarded value is not safe for concurrent mutation
// but its restore methods only read.
package mathguard
