package mathguard

// HasMath reports whether text contains math that Protect would guard.
// Math-like text inside code or link destinations does not count, and an
// escaped \$ is a literal dollar, not math.
func HasMath(text string) bool {
	return Protect(text).MathCount() > 0
}

// HasMermaid reports whether text contains a fenced block whose info string
// is exactly "mermaid". Fences nested inside a longer fence are code and do
// not count.
func HasMermaid(text string) bool {
	for _, f := range scanFences(text) {
		if f.info == "mermaid" {
			return true
		}
	}
	return false
}
