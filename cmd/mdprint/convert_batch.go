package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/mdprint"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Sentinel errors for batch operations.
var (
	ErrReadMarkdown    = errors.New("failed to read markdown file")
	ErrWriteOutput     = errors.New("failed to write output file")
	ErrCreateOutputDir = errors.New("failed to create output directory")
)

// CLIConverter is the interface for the conversion service.
type CLIConverter interface {
	Convert(ctx context.Context, input mdprint.Input) (*mdprint.ConvertResult, error)
}

// Compile-time interface implementation check.
var _ CLIConverter = (*mdprint.Converter)(nil)

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Warnings   []string
	Err        error
	Duration   time.Duration
}

// convertBatch converts files concurrently, at most pool.Size() at a time.
// Results are indexed like files regardless of completion order.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	results := make([]ConversionResult, len(files))

	var g errgroup.Group
	g.SetLimit(pool.Size())

	for i, f := range files {
		g.Go(func() error {
			results[i] = convertWithPool(ctx, pool, f, params)
			return nil // failures are per file, siblings keep going
		})
	}

	_ = g.Wait()
	return results
}

// convertWithPool borrows a converter for one file.
func convertWithPool(ctx context.Context, pool Pool, f FileToConvert, params *conversionParams) ConversionResult {
	if err := ctx.Err(); err != nil {
		return ConversionResult{InputPath: f.InputPath, Err: err}
	}

	conv, err := pool.Acquire(ctx)
	if err != nil {
		return ConversionResult{InputPath: f.InputPath, Err: err}
	}
	defer pool.Release(conv)

	return convertFile(ctx, conv, f, params)
}

// convertFile processes a single file and returns the result.
func convertFile(ctx context.Context, conv CLIConverter, f FileToConvert, params *conversionParams) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}
	fail := func(err error) ConversionResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrReadMarkdown, err))
	}

	if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrCreateOutputDir, err))
	}

	res, err := conv.Convert(ctx, params.input(string(content), filepath.Dir(f.InputPath)))
	if err != nil {
		return fail(err)
	}
	result.Warnings = res.Warnings

	if params.htmlOnly {
		// #nosec G306 -- HTML files are meant to be readable
		if err := os.WriteFile(f.OutputPath, res.HTML, filePermissions); err != nil {
			return fail(fmt.Errorf("%w: %w", ErrWriteOutput, err))
		}
		result.Duration = time.Since(start)
		return result
	}

	if params.htmlOutput {
		// #nosec G306 -- HTML files are meant to be readable
		if err := os.WriteFile(htmlOutputPath(f.OutputPath), res.HTML, filePermissions); err != nil {
			return fail(fmt.Errorf("%w: %w", ErrWriteOutput, err))
		}
	}

	// #nosec G306 -- PDFs are meant to be readable
	if err := os.WriteFile(f.OutputPath, res.PDF, filePermissions); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrWriteOutput, err))
	}

	result.Duration = time.Since(start)
	return result
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResults outputs conversion results. Content warnings go to the
// logger, failures to stderr with a hint, successes to stdout.
func printResults(results []ConversionResult, common commonFlags, deps *Dependencies, logger zerolog.Logger, hc *hintContext) ResultSummary {
	summary := countResults(results)

	for _, r := range results {
		for _, w := range r.Warnings {
			logger.Warn().Str("file", r.InputPath).Msg(w)
		}

		if r.Err != nil {
			fmt.Fprintf(deps.Stderr, "FAILED %s: %v%s\n", r.InputPath, r.Err, hc.hintFor(r.Err))
			continue
		}

		if common.quiet {
			continue
		}

		if common.verbose {
			fmt.Fprintf(deps.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(deps.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !common.quiet && len(results) > 1 {
		fmt.Fprintf(deps.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary
}

// batchError returns nil when every conversion succeeded. Otherwise it
// wraps the first failure so the exit code reflects its cause.
func batchError(results []ConversionResult) error {
	summary := countResults(results)
	if summary.Failed == 0 {
		return nil
	}
	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("%w: %d of %d file(s): %w", ErrConversionFailed, summary.Failed, len(results), r.Err)
		}
	}
	return nil
}
