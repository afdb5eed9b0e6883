package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	ctx, stop := notifyContext(context.Background())
	code := run(ctx, os.Args[1:], DefaultDeps())
	stop()
	os.Exit(code)
}

// run dispatches the command line and returns the process exit code.
// A bare Markdown path is shorthand for "convert <path>".
func run(ctx context.Context, args []string, deps *Dependencies) int {
	if len(args) == 0 {
		printUsage(deps.Stderr)
		return ExitUsage
	}

	switch args[0] {
	case "convert":
		return runConvertCmd(ctx, args[1:], deps)
	case "version", "--version":
		fmt.Fprintf(deps.Stdout, "mdprint %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(args[1:], deps)
	}

	if looksLikeInput(args[0]) {
		return runConvertCmd(ctx, args, deps)
	}

	fmt.Fprintf(deps.Stderr, "unknown command: %s\n\n", args[0])
	printUsage(deps.Stderr)
	return ExitUsage
}

// looksLikeInput reports whether arg names Markdown input rather than a
// command: a Markdown file, a glob or a path with a separator.
func looksLikeInput(arg string) bool {
	if strings.HasPrefix(arg, "-") {
		return true
	}
	if isMarkdownFile(arg) || hasGlobMeta(arg) {
		return true
	}
	return strings.ContainsRune(arg, filepath.Separator) || strings.Contains(arg, "/")
}

// runConvertCmd parses convert flags, configures logging and runs the
// conversion, translating the outcome into an exit code.
func runConvertCmd(ctx context.Context, args []string, deps *Dependencies) int {
	flags, positional, err := parseConvertFlags(args, deps.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	logger := newLogger(deps.Stderr, flags.common.quiet, flags.common.verbose)

	// maxprocs.Set only fails on an invalid GOMAXPROCS env value, in which
	// case the runtime default stays in place.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Debug().Msgf(format, args...)
	}))

	hc := &hintContext{configName: flags.common.config, runtimeDir: flags.assets.runtimeDir}
	if err := runConvert(ctx, positional, flags, deps, logger, hc); err != nil {
		if errors.Is(err, ErrConversionFailed) {
			// Per-file failures were already printed with their hints.
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %v%s\n", err, hc.hintFor(err))
		}
		return exitCodeFor(err)
	}
	return ExitSuccess
}
