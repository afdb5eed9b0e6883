package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Output extensions.
const (
	pdfExt  = ".pdf"
	htmlExt = ".html"
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension = errors.New("file must have .md or .markdown extension")
	ErrNoMarkdownFiles  = errors.New("no markdown files found")
	ErrOutputConflict   = errors.New("output names a single file but several inputs were found")
)

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// discoverFiles expands inputs (files, directories, glob patterns) into the
// list of Markdown files to convert. Duplicates are dropped, first
// occurrence wins.
func discoverFiles(inputs []string, outputDir, outputExt string) ([]FileToConvert, error) {
	var files []FileToConvert
	seen := make(map[string]bool)

	add := func(path, base string) {
		key := filepath.Clean(path)
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, FileToConvert{
			InputPath:  path,
			OutputPath: resolveOutputPath(path, outputDir, base, outputExt),
		})
	}

	for _, input := range inputs {
		if err := expandInput(input, add); err != nil {
			return nil, err
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoMarkdownFiles, strings.Join(inputs, ", "))
	}
	if len(files) > 1 && isOutputFile(outputDir) {
		return nil, fmt.Errorf("%w: %s (%d files)", ErrOutputConflict, outputDir, len(files))
	}
	return files, nil
}

// expandInput calls add for every Markdown file named by input. base is the
// directory whose layout is mirrored under the output directory.
func expandInput(input string, add func(path, base string)) error {
	if hasGlobMeta(input) {
		matches, err := filepath.Glob(input)
		if err != nil {
			return fmt.Errorf("expanding %q: %w", input, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return err
			}
			if info.IsDir() {
				if err := walkMarkdown(m, add); err != nil {
					return err
				}
				continue
			}
			if isMarkdownFile(m) {
				add(m, "")
			}
		}
		return nil
	}

	info, err := os.Stat(input)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return walkMarkdown(input, add)
	}
	if err := validateMarkdownExtension(input); err != nil {
		return err
	}
	add(input, "")
	return nil
}

// walkMarkdown adds every Markdown file below dir.
func walkMarkdown(dir string, add func(path, base string)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !isMarkdownFile(path) {
			return nil
		}
		add(path, dir)
		return nil
	})
}

// resolveOutputPath determines the output path for a markdown file.
// Files found under baseInputDir keep their relative layout.
func resolveOutputPath(inputPath, outputDir, baseInputDir, outputExt string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base+outputExt)
	}

	if isOutputFile(outputDir) {
		return outputDir
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			relDir := filepath.Dir(relPath)
			return filepath.Join(outputDir, relDir, base+outputExt)
		}
	}

	return filepath.Join(outputDir, base+outputExt)
}

// isOutputFile reports whether the -o value names a file, not a directory.
func isOutputFile(output string) bool {
	ext := strings.ToLower(filepath.Ext(output))
	return ext == pdfExt || ext == htmlExt
}

// isMarkdownFile reports whether path has a Markdown extension.
func isMarkdownFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// hasGlobMeta reports whether s contains filepath.Match metacharacters.
func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// validateMarkdownExtension checks that the file has a .md or .markdown extension.
func validateMarkdownExtension(path string) error {
	if !isMarkdownFile(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	return nil
}

// htmlOutputPath returns the HTML path corresponding to a PDF path.
func htmlOutputPath(pdfPath string) string {
	return strings.TrimSuffix(pdfPath, pdfExt) + htmlExt
}
