package main

import (
	"errors"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/alnah/mdprint"
	"github.com/alnah/mdprint/internal/config"
)

// Exit codes for the mdprint CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, mdprint.ErrBrowserConnect) ||
		errors.Is(err, mdprint.ErrPageCreate) ||
		errors.Is(err, mdprint.ErrPageLoad) ||
		errors.Is(err, mdprint.ErrPDFGeneration) ||
		errors.Is(err, mdprint.ErrRenderTimeout) ||
		errors.Is(err, mdprint.ErrRuntimeNotLoaded) {
		return ExitBrowser
	}

	// Usage/config/validation errors (exit 2). Checked before I/O so that a
	// missing config or style is a usage error even though it wraps
	// os.ErrNotExist.
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, mdprint.ErrEmptyMarkdown) ||
		errors.Is(err, mdprint.ErrInvalidPageFormat) ||
		errors.Is(err, mdprint.ErrInvalidMargin) ||
		errors.Is(err, mdprint.ErrInvalidTOCDepth) ||
		errors.Is(err, mdprint.ErrInvalidLinkExtension) ||
		errors.Is(err, mdprint.ErrInvalidAssetPath) ||
		errors.Is(err, mdprint.ErrStyleNotFound) ||
		errors.Is(err, mdprint.ErrUnknownHighlightStyle) ||
		errors.Is(err, mdprint.ErrRuntimeNotFound) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrOutputConflict) ||
		errors.Is(err, flag.ErrHelp) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, mdprint.ErrCSSNotFound) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrReadTemplate) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrCreateOutputDir) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoMarkdownFiles) {
		return ExitIO
	}

	return ExitGeneral
}
