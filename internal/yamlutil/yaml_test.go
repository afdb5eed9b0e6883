package yamlutil_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/alnah/mdprint/internal/yamlutil"
)

type testConfig struct {
	Name    string `yaml:"name"`
	Count   int    `yaml:"count"`
	Enabled bool   `yaml:"enabled"`
}

// ---------------------------------------------------------------------------
// TestUnmarshal - Parses YAML into Go structs
// ---------------------------------------------------------------------------

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		dest    any
		wantErr error
	}{
		{name: "valid YAML", data: []byte("name: test\ncount: 42\nenabled: true"), dest: &testConfig{}},
		{name: "unknown fields ignored", data: []byte("name: test\nextra: 1"), dest: &testConfig{}},
		{name: "nil data", data: nil, dest: &testConfig{}, wantErr: yamlutil.ErrNilData},
		{name: "empty data", data: []byte{}, dest: &testConfig{}, wantErr: yamlutil.ErrNilData},
		{name: "nil destination", data: []byte("name: test"), dest: nil, wantErr: yamlutil.ErrNilDestination},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.Unmarshal(tt.data, tt.dest)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Unmarshal() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal() unexpected error: %v", err)
			}
			cfg := tt.dest.(*testConfig)
			if cfg.Name != "test" {
				t.Errorf("Name = %q, want %q", cfg.Name, "test")
			}
		})
	}
}

func TestUnmarshal_InvalidSyntax(t *testing.T) {
	t.Parallel()

	err := yamlutil.Unmarshal([]byte("name: [unclosed"), &testConfig{})
	if err == nil || !strings.HasPrefix(err.Error(), "yamlutil:") {
		t.Errorf("Unmarshal() error = %v, want yamlutil-prefixed error", err)
	}
}

// ---------------------------------------------------------------------------
// TestUnmarshalStrict - Rejects unknown fields
// ---------------------------------------------------------------------------

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	t.Run("known fields", func(t *testing.T) {
		t.Parallel()

		var cfg testConfig
		if err := yamlutil.UnmarshalStrict([]byte("name: a\ncount: 2"), &cfg); err != nil {
			t.Fatalf("UnmarshalStrict() unexpected error: %v", err)
		}
		if cfg.Count != 2 {
			t.Errorf("Count = %d, want 2", cfg.Count)
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		t.Parallel()

		var cfg testConfig
		if err := yamlutil.UnmarshalStrict([]byte("name: a\nunknown: 1"), &cfg); err == nil {
			t.Error("UnmarshalStrict() expected error for unknown field")
		}
	})
}

// ---------------------------------------------------------------------------
// TestDecodeMapping - Top-level mapping decoding
// ---------------------------------------------------------------------------

func TestDecodeMapping(t *testing.T) {
	t.Parallel()

	t.Run("mapping", func(t *testing.T) {
		t.Parallel()

		m, err := yamlutil.DecodeMapping([]byte("title: Hello\ntoc: true"))
		if err != nil {
			t.Fatalf("DecodeMapping() unexpected error: %v", err)
		}
		if m["title"] != "Hello" {
			t.Errorf("title = %v, want Hello", m["title"])
		}
		if m["toc"] != true {
			t.Errorf("toc = %v, want true", m["toc"])
		}
	})

	t.Run("sequence rejected", func(t *testing.T) {
		t.Parallel()

		_, err := yamlutil.DecodeMapping([]byte("- a\n- b"))
		if !errors.Is(err, yamlutil.ErrNotMapping) {
			t.Errorf("DecodeMapping() error = %v, want ErrNotMapping", err)
		}
	})

	t.Run("scalar rejected", func(t *testing.T) {
		t.Parallel()

		_, err := yamlutil.DecodeMapping([]byte("just text"))
		if !errors.Is(err, yamlutil.ErrNotMapping) {
			t.Errorf("DecodeMapping() error = %v, want ErrNotMapping", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestInputSizeLimit - Memory exhaustion guard
// ---------------------------------------------------------------------------

func TestInputSizeLimit(t *testing.T) {
	t.Parallel()

	big := []byte("name: " + strings.Repeat("x", yamlutil.MaxInputSize))
	err := yamlutil.Unmarshal(big, &testConfig{})
	if !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Errorf("Unmarshal() error = %v, want ErrInputTooLarge", err)
	}
}
