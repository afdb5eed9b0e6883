package mdprint

import (
	"errors"

	"github.com/alnah/mdprint/internal/assets"
	"github.com/alnah/mdprint/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown    = errors.New("markdown content cannot be empty")
	ErrPDFGeneration    = errors.New("PDF generation failed")
	ErrBrowserConnect   = errors.New("failed to connect to browser")
	ErrPageCreate       = errors.New("failed to create browser page")
	ErrPageLoad         = errors.New("failed to load page")
	ErrRenderTimeout    = errors.New("render timed out")
	ErrRuntimeNotLoaded = errors.New("page script never finished loading")

	// Page settings validation errors.
	ErrInvalidPageFormat = errors.New("invalid page format")
	ErrInvalidMargin     = errors.New("invalid margin")

	// Input validation errors.
	ErrInvalidTOCDepth      = errors.New("invalid TOC depth")
	ErrInvalidLinkExtension = errors.New("invalid link extension")

	// Asset loading errors.
	ErrInvalidAssetPath = errors.New("invalid asset path")

	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("converter pool is closed")
)

// Errors raised by the rendering stage, re-exported so callers need only
// this package for errors.Is checks.
var (
	ErrHTMLConversion        = pipeline.ErrHTMLConversion
	ErrCSSNotFound           = pipeline.ErrCSSNotFound
	ErrUnknownHighlightStyle = pipeline.ErrUnknownHighlightStyle
	ErrStyleNotFound         = assets.ErrStyleNotFound
	ErrRuntimeNotFound       = assets.ErrRuntimeNotFound
)
