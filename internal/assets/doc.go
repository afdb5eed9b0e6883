// Package assets provides the CSS themes, page template and runtime bootstrap
// snippets used to assemble HTML documents.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is the loader used by the renderer. It tries the custom
// FilesystemLoader first, falling back to EmbeddedLoader if the asset is not
// found. This enables overriding a single asset while keeping the rest.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css           # Themes (e.g., academic.css)
//	└── templates/
//	    ├── default.html         # Page template with {{...}} tokens
//	    ├── mathjax.html         # Math runtime bootstrap, {{src}} = script URL
//	    └── mermaid.html         # Diagram runtime bootstrap, {{src}} = script URL
//
// # Runtime scripts
//
// Runtime describes where the MathJax and mermaid scripts are loaded from:
// CDN URLs by default, or file:// URLs into a local directory for offline use.
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
