package main

// Notes:
// - exitCodeFor: every sentinel from mdprint, config and this package,
//   plus wrapped errors to check the errors.Is chain.
// - Usage errors win over I/O when both apply (a missing config wraps
//   os.ErrNotExist but is a usage problem).

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/alnah/mdprint"
	"github.com/alnah/mdprint/internal/config"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		// Success
		{"nil error", nil, ExitSuccess},

		// Browser errors (exit 4)
		{"browser connect", mdprint.ErrBrowserConnect, ExitBrowser},
		{"page create", mdprint.ErrPageCreate, ExitBrowser},
		{"page load", mdprint.ErrPageLoad, ExitBrowser},
		{"pdf generation", mdprint.ErrPDFGeneration, ExitBrowser},
		{"render timeout", mdprint.ErrRenderTimeout, ExitBrowser},
		{"runtime not loaded", mdprint.ErrRuntimeNotLoaded, ExitBrowser},
		{"wrapped browser connect", fmt.Errorf("failed: %w", mdprint.ErrBrowserConnect), ExitBrowser},

		// I/O errors (exit 3)
		{"file not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"css not found", mdprint.ErrCSSNotFound, ExitIO},
		{"read markdown", ErrReadMarkdown, ExitIO},
		{"read template", ErrReadTemplate, ExitIO},
		{"write output", ErrWriteOutput, ExitIO},
		{"create output dir", ErrCreateOutputDir, ExitIO},
		{"no input", ErrNoInput, ExitIO},
		{"no markdown files", ErrNoMarkdownFiles, ExitIO},
		{"wrapped file not exist", fmt.Errorf("reading: %w", os.ErrNotExist), ExitIO},

		// Usage/config/validation errors (exit 2)
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"field too long", config.ErrFieldTooLong, ExitUsage},
		{"invalid config value", config.ErrInvalidValue, ExitUsage},
		{"empty markdown", mdprint.ErrEmptyMarkdown, ExitUsage},
		{"invalid page format", mdprint.ErrInvalidPageFormat, ExitUsage},
		{"invalid margin", mdprint.ErrInvalidMargin, ExitUsage},
		{"invalid toc depth", mdprint.ErrInvalidTOCDepth, ExitUsage},
		{"invalid link extension", mdprint.ErrInvalidLinkExtension, ExitUsage},
		{"invalid asset path", mdprint.ErrInvalidAssetPath, ExitUsage},
		{"style not found", mdprint.ErrStyleNotFound, ExitUsage},
		{"unknown highlight style", mdprint.ErrUnknownHighlightStyle, ExitUsage},
		{"runtime not found", mdprint.ErrRuntimeNotFound, ExitUsage},
		{"invalid timeout", ErrInvalidTimeout, ExitUsage},
		{"invalid worker count", ErrInvalidWorkerCount, ExitUsage},
		{"invalid extension", ErrInvalidExtension, ExitUsage},
		{"output conflict", ErrOutputConflict, ExitUsage},
		{"missing config file", fmt.Errorf("%w: %w", config.ErrConfigNotFound, os.ErrNotExist), ExitUsage},

		// Batch errors take the code of their first failure
		{"batch with browser failure", fmt.Errorf("%w: 1 of 2 file(s): %w", ErrConversionFailed, mdprint.ErrPageLoad), ExitBrowser},
		{"batch with unknown failure", fmt.Errorf("%w: 1 of 2 file(s): %w", ErrConversionFailed, errors.New("boom")), ExitGeneral},

		// General errors (exit 1)
		{"unknown error", errors.New("something unexpected"), ExitGeneral},
		{"pool closed", mdprint.ErrPoolClosed, ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := exitCodeFor(tt.err)
			if got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExitCodeConstants - Unix convention compliance
// ---------------------------------------------------------------------------

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitGeneral != 1 || ExitUsage != 2 {
		t.Errorf("conventional codes = %d/%d/%d, want 0/1/2", ExitSuccess, ExitGeneral, ExitUsage)
	}
	for _, code := range []int{ExitIO, ExitBrowser} {
		if code >= 126 {
			t.Errorf("custom exit code %d should be < 126", code)
		}
	}
}
