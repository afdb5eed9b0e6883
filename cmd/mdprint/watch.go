package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// watchDebounce coalesces the burst of events editors emit for one save.
const watchDebounce = 250 * time.Millisecond

// fileWatcher maps file system events on watched inputs back to
// conversion jobs.
type fileWatcher struct {
	watcher   *fsnotify.Watcher
	known     map[string]FileToConvert // cleaned input path -> job
	roots     []string                 // directory inputs, new files below them are picked up
	outputDir string
	outputExt string
	logger    zerolog.Logger
}

// newFileWatcher watches the directories holding files plus every
// directory input and the directories below it.
func newFileWatcher(inputs []string, files []FileToConvert, outputDir, outputExt string, logger zerolog.Logger) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("starting watcher: %w", err)
	}

	fw := &fileWatcher{
		watcher:   w,
		known:     make(map[string]FileToConvert, len(files)),
		outputDir: outputDir,
		outputExt: outputExt,
		logger:    logger,
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		path := filepath.Clean(f.InputPath)
		fw.known[path] = f
		dirs[filepath.Dir(path)] = true
	}
	for _, in := range inputs {
		if hasGlobMeta(in) {
			continue
		}
		if info, err := os.Stat(in); err == nil && info.IsDir() {
			fw.roots = append(fw.roots, filepath.Clean(in))
		}
	}

	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	for _, root := range fw.roots {
		if _, err := fw.watchTree(root); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("watching %s: %w", root, err)
		}
	}
	return fw, nil
}

// watchTree watches dir and every directory below it. It returns the
// Markdown files already inside, which may predate the watch.
func (fw *fileWatcher) watchTree(dir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.watcher.Add(path)
		}
		if isMarkdownFile(path) {
			found = append(found, path)
		}
		return nil
	})
	return found, err
}

// rootOf returns the directory input containing path.
func (fw *fileWatcher) rootOf(path string) (string, bool) {
	for _, root := range fw.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return root, true
	}
	return "", false
}

// jobFor returns the conversion job for a changed path. Unknown Markdown
// files below a directory input become new jobs.
func (fw *fileWatcher) jobFor(path string) (FileToConvert, bool) {
	path = filepath.Clean(path)
	if f, ok := fw.known[path]; ok {
		return f, true
	}
	if !isMarkdownFile(path) {
		return FileToConvert{}, false
	}

	root, ok := fw.rootOf(path)
	if !ok {
		return FileToConvert{}, false
	}
	f := FileToConvert{
		InputPath:  path,
		OutputPath: resolveOutputPath(path, fw.outputDir, root, fw.outputExt),
	}
	fw.known[path] = f
	return f, true
}

// newDirectory starts watching a directory created below a directory input
// and returns jobs for the Markdown files it already holds.
func (fw *fileWatcher) newDirectory(path string) []FileToConvert {
	if _, ok := fw.rootOf(path); !ok {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil
	}

	found, err := fw.watchTree(path)
	if err != nil {
		fw.logger.Warn().Err(err).Str("dir", path).Msg("watching new directory")
	}
	jobs := make([]FileToConvert, 0, len(found))
	for _, p := range found {
		if job, ok := fw.jobFor(p); ok {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// run delivers debounced batches of changed files to onChange until ctx
// is done. It closes the underlying watcher on return.
func (fw *fileWatcher) run(ctx context.Context, onChange func(context.Context, []FileToConvert)) error {
	defer fw.watcher.Close()

	pending := make(map[string]FileToConvert)
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if jobs := fw.newDirectory(event.Name); len(jobs) > 0 {
					for _, job := range jobs {
						pending[job.InputPath] = job
					}
					timer.Reset(watchDebounce)
					continue
				}
			}
			job, ok := fw.jobFor(event.Name)
			if !ok {
				continue
			}
			pending[job.InputPath] = job
			timer.Reset(watchDebounce)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn().Err(err).Msg("watch error")

		case <-timer.C:
			batch := make([]FileToConvert, 0, len(pending))
			for _, job := range pending {
				batch = append(batch, job)
			}
			clear(pending)
			slices.SortFunc(batch, func(a, b FileToConvert) int {
				return strings.Compare(a.InputPath, b.InputPath)
			})

			fw.logger.Debug().Int("files", len(batch)).Msg("inputs changed")
			onChange(ctx, batch)
		}
	}
}

// runWatch blocks, re-converting changed inputs until ctx is canceled.
func runWatch(ctx context.Context, inputs []string, files []FileToConvert, outputDir, outputExt string, onChange func(context.Context, []FileToConvert), logger zerolog.Logger) error {
	fw, err := newFileWatcher(inputs, files, outputDir, outputExt, logger)
	if err != nil {
		return err
	}
	return fw.run(ctx, onChange)
}
