package assets

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alnah/mdprint/internal/fileutil"
)

// Default CDN locations of the client-side runtimes.
const (
	DefaultMathJaxURL = "https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-svg.js"
	DefaultMermaidURL = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"
)

// Script file names looked up by LocalRuntime.
const (
	mathJaxFile = "tex-svg.js"
	mermaidFile = "mermaid.min.js"
)

// Runtime holds the script URLs injected by the math and diagram bootstraps.
type Runtime struct {
	MathJaxURL string
	MermaidURL string
}

// DefaultRuntime loads both runtimes from the public CDN.
func DefaultRuntime() Runtime {
	return Runtime{
		MathJaxURL: DefaultMathJaxURL,
		MermaidURL: DefaultMermaidURL,
	}
}

// LocalRuntime points both runtimes at scripts in dir, for offline rendering.
// dir must contain tex-svg.js and mermaid.min.js.
func LocalRuntime(dir string) (Runtime, error) {
	mathURL, err := localScript(dir, mathJaxFile)
	if err != nil {
		return Runtime{}, err
	}
	mermaidURL, err := localScript(dir, mermaidFile)
	if err != nil {
		return Runtime{}, err
	}
	return Runtime{MathJaxURL: mathURL, MermaidURL: mermaidURL}, nil
}

func localScript(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if !fileutil.FileExists(path) {
		return "", fmt.Errorf("%w: %s", ErrRuntimeNotFound, path)
	}
	return fileutil.FileURL(path)
}

// Bootstrap renders a runtime bootstrap template with its script URL.
func Bootstrap(template, scriptURL string) string {
	return strings.ReplaceAll(template, "{{src}}", escapeAttr(scriptURL))
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;")

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
