package main

// Notes:
// - Test infrastructure shared by the CLI tests: mock converter, mock pool
//   and dependency wiring. No browser is ever started from these tests.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/mdprint"
)

// ---------------------------------------------------------------------------
// Mock Implementations
// ---------------------------------------------------------------------------

// mockConverter records inputs and returns canned output.
type mockConverter struct {
	mu       sync.Mutex
	inputs   []mdprint.Input
	err      error
	errFor   string // only fail documents containing this text ("" = all)
	delay    time.Duration
	warnings []string
}

func (m *mockConverter) Convert(ctx context.Context, in mdprint.Input) (*mdprint.ConvertResult, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, in)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.err != nil && (m.errFor == "" || strings.Contains(in.Markdown, m.errFor)) {
		return nil, m.err
	}

	res := &mdprint.ConvertResult{
		HTML:     []byte("<html>" + in.Markdown + "</html>"),
		Warnings: m.warnings,
	}
	if !in.HTMLOnly {
		res.PDF = []byte("%PDF-1.4 mock")
	}
	return res, nil
}

func (m *mockConverter) calls() []mdprint.Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mdprint.Input(nil), m.inputs...)
}

// mockPool hands out one shared converter and tracks concurrency.
type mockPool struct {
	conv       CLIConverter
	size       int
	acquireErr error

	mu        sync.Mutex
	active    int
	maxActive int
	closed    bool
	opts      int
}

func (p *mockPool) Acquire(ctx context.Context) (CLIConverter, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active++
	p.maxActive = max(p.maxActive, p.active)
	return p.conv, nil
}

func (p *mockPool) Release(CLIConverter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active--
}

func (p *mockPool) Size() int { return p.size }

func (p *mockPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

// testDeps bundles dependencies with the buffers and mocks behind them.
type testDeps struct {
	*Dependencies
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	conv   *mockConverter
	pool   *mockPool
	env    map[string]string
}

// newTestDeps returns dependencies writing to buffers, reading env from a
// map and building a mock pool.
func newTestDeps() *testDeps {
	td := &testDeps{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		conv:   &mockConverter{},
		env:    map[string]string{},
	}
	td.Dependencies = &Dependencies{
		Now:    func() time.Time { return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) },
		Stdout: td.stdout,
		Stderr: td.stderr,
		Getenv: func(k string) string { return td.env[k] },
		Environ: func() []string {
			var out []string
			for k, v := range td.env {
				out = append(out, k+"="+v)
			}
			return out
		},
		NewPool: func(size int, opts ...mdprint.Option) Pool {
			td.pool = &mockPool{conv: td.conv, size: size, opts: len(opts)}
			return td.pool
		},
	}
	return td
}

// writeFile creates dir/name with content, creating parents as needed.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// writeConfig writes a minimal config file so tests never pick up a
// user-level mdprint.yaml.
func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	if content == "" {
		content = "page:\n  format: letter\n"
	}
	return writeFile(t, dir, "mdprint-test.yaml", content)
}
