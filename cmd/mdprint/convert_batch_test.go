package main

// Notes:
// - convertBatch: results stay aligned with inputs, concurrency never
//   exceeds pool.Size(), acquire failures and cancellation become per-file
//   errors.
// - convertFile: output files for each mode and the failure sentinels.
// - printResults / batchError: what the user sees and the returned error.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/mdprint"
)

func testParams() *conversionParams {
	return &conversionParams{page: mdprint.DefaultPageSettings(), linkExtension: pdfExt}
}

// ---------------------------------------------------------------------------
// TestConvertBatch - Bounded concurrent conversion
// ---------------------------------------------------------------------------

func TestConvertBatch(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		pool := &mockPool{conv: &mockConverter{}, size: 2}
		if got := convertBatch(context.Background(), pool, nil, testParams()); got != nil {
			t.Errorf("convertBatch(nil) = %v, want nil", got)
		}
	})

	t.Run("results match inputs and concurrency is bounded", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		var files []FileToConvert
		for i := range 6 {
			in := writeFile(t, dir, fmt.Sprintf("doc%d.md", i), fmt.Sprintf("# Doc %d", i))
			files = append(files, FileToConvert{InputPath: in, OutputPath: filepath.Join(dir, "out", fmt.Sprintf("doc%d.pdf", i))})
		}

		conv := &mockConverter{delay: 20 * time.Millisecond, err: errors.New("boom"), errFor: "Doc 3"}
		pool := &mockPool{conv: conv, size: 2}

		results := convertBatch(context.Background(), pool, files, testParams())

		if len(results) != len(files) {
			t.Fatalf("got %d results, want %d", len(results), len(files))
		}
		for i, r := range results {
			if r.InputPath != files[i].InputPath {
				t.Errorf("result %d is for %s, want %s", i, r.InputPath, files[i].InputPath)
			}
			if (r.Err != nil) != (i == 3) {
				t.Errorf("result %d error = %v", i, r.Err)
			}
		}
		if pool.maxActive > 2 {
			t.Errorf("max concurrent conversions = %d, want <= 2", pool.maxActive)
		}
		if pool.active != 0 {
			t.Errorf("%d converters never released", pool.active)
		}
	})

	t.Run("acquire failure", func(t *testing.T) {
		t.Parallel()

		pool := &mockPool{conv: &mockConverter{}, size: 1, acquireErr: mdprint.ErrPoolClosed}
		results := convertBatch(context.Background(), pool, []FileToConvert{{InputPath: "a.md"}}, testParams())

		if !errors.Is(results[0].Err, mdprint.ErrPoolClosed) {
			t.Errorf("error = %v, want ErrPoolClosed", results[0].Err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		conv := &mockConverter{}
		pool := &mockPool{conv: conv, size: 2}
		results := convertBatch(ctx, pool, []FileToConvert{{InputPath: "a.md"}, {InputPath: "b.md"}}, testParams())

		for _, r := range results {
			if !errors.Is(r.Err, context.Canceled) {
				t.Errorf("%s error = %v, want context.Canceled", r.InputPath, r.Err)
			}
		}
		if len(conv.calls()) != 0 {
			t.Error("no conversion should start after cancellation")
		}
	})
}

// ---------------------------------------------------------------------------
// TestConvertFile - Single file outputs
// ---------------------------------------------------------------------------

func TestConvertFile(t *testing.T) {
	t.Parallel()

	t.Run("pdf with html copy", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writeFile(t, dir, "doc.md", "# Doc")
		out := filepath.Join(dir, "nested", "doc.pdf")

		params := testParams()
		params.htmlOutput = true
		conv := &mockConverter{warnings: []string{"frontmatter: bad"}}

		r := convertFile(context.Background(), conv, FileToConvert{InputPath: in, OutputPath: out}, params)
		if r.Err != nil {
			t.Fatalf("unexpected error: %v", r.Err)
		}
		if _, err := os.Stat(out); err != nil {
			t.Errorf("pdf missing: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "nested", "doc.html")); err != nil {
			t.Errorf("html missing: %v", err)
		}
		if len(r.Warnings) != 1 {
			t.Errorf("warnings = %v, want 1", r.Warnings)
		}
		if got := conv.calls()[0].SourceDir; got != dir {
			t.Errorf("source dir = %q, want %q", got, dir)
		}
	})

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()

		r := convertFile(context.Background(), &mockConverter{}, FileToConvert{
			InputPath:  filepath.Join(t.TempDir(), "missing.md"),
			OutputPath: filepath.Join(t.TempDir(), "missing.pdf"),
		}, testParams())
		if !errors.Is(r.Err, ErrReadMarkdown) || !errors.Is(r.Err, os.ErrNotExist) {
			t.Errorf("error = %v, want ErrReadMarkdown wrapping os.ErrNotExist", r.Err)
		}
	})

	t.Run("converter error passes through", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writeFile(t, dir, "doc.md", "# Doc")
		conv := &mockConverter{err: mdprint.ErrPageLoad}

		r := convertFile(context.Background(), conv, FileToConvert{InputPath: in, OutputPath: filepath.Join(dir, "doc.pdf")}, testParams())
		if !errors.Is(r.Err, mdprint.ErrPageLoad) {
			t.Errorf("error = %v, want ErrPageLoad", r.Err)
		}
		if _, err := os.Stat(filepath.Join(dir, "doc.pdf")); !os.IsNotExist(err) {
			t.Error("no output should be written on failure")
		}
	})

	t.Run("output directory blocked by file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writeFile(t, dir, "doc.md", "# Doc")
		blocker := writeFile(t, dir, "blocker", "")

		r := convertFile(context.Background(), &mockConverter{}, FileToConvert{
			InputPath:  in,
			OutputPath: filepath.Join(blocker, "doc.pdf"),
		}, testParams())
		if !errors.Is(r.Err, ErrCreateOutputDir) {
			t.Errorf("error = %v, want ErrCreateOutputDir", r.Err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestPrintResults - User-facing output
// ---------------------------------------------------------------------------

func TestPrintResults(t *testing.T) {
	t.Parallel()

	results := []ConversionResult{
		{InputPath: "a.md", OutputPath: "a.pdf", Duration: 1500 * time.Microsecond, Warnings: []string{"unknown language"}},
		{InputPath: "b.md", Err: mdprint.ErrRenderTimeout},
	}

	tests := []struct {
		name       string
		common     commonFlags
		wantStdout []string
		skipStdout []string
	}{
		{"normal", commonFlags{}, []string{"Created a.pdf", "1 succeeded, 1 failed"}, nil},
		{"verbose", commonFlags{verbose: true}, []string{"a.md -> a.pdf (2ms)"}, []string{"Created"}},
		{"quiet", commonFlags{quiet: true}, nil, []string{"Created", "succeeded"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			td := newTestDeps()
			var logs bytes.Buffer
			summary := printResults(results, tt.common, td.Dependencies, zerolog.New(&logs), nil)

			if summary.Succeeded != 1 || summary.Failed != 1 {
				t.Errorf("summary = %+v", summary)
			}
			for _, s := range tt.wantStdout {
				if !strings.Contains(td.stdout.String(), s) {
					t.Errorf("stdout %q missing %q", td.stdout, s)
				}
			}
			for _, s := range tt.skipStdout {
				if strings.Contains(td.stdout.String(), s) {
					t.Errorf("stdout %q should not contain %q", td.stdout, s)
				}
			}
			if !strings.Contains(td.stderr.String(), "FAILED b.md: render timed out") {
				t.Errorf("stderr = %q, want FAILED line", td.stderr)
			}
			if !strings.Contains(logs.String(), "unknown language") {
				t.Errorf("warning not logged: %q", logs.String())
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestBatchError - Overall outcome
// ---------------------------------------------------------------------------

func TestBatchError(t *testing.T) {
	t.Parallel()

	if err := batchError([]ConversionResult{{InputPath: "a.md"}}); err != nil {
		t.Errorf("batchError(all ok) = %v, want nil", err)
	}

	err := batchError([]ConversionResult{
		{InputPath: "a.md"},
		{InputPath: "b.md", Err: mdprint.ErrPageLoad},
		{InputPath: "c.md", Err: os.ErrPermission},
	})
	if !errors.Is(err, ErrConversionFailed) || !errors.Is(err, mdprint.ErrPageLoad) {
		t.Errorf("error = %v, want ErrConversionFailed wrapping the first failure", err)
	}
	if !strings.Contains(err.Error(), "2 of 3") {
		t.Errorf("error = %q, want failure count", err)
	}
}
