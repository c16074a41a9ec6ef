package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefault_PassesValidation(t *testing.T) {
	cfg := Default()
	if err := cfg.validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Association.MinTransactions != 20 {
		t.Fatalf("unexpected default min transactions: %d", cfg.Association.MinTransactions)
	}
	if cfg.Flow.WindowDays != 30 || cfg.Association.WindowDays != 90 {
		t.Fatalf("unexpected default windows: %+v", cfg)
	}
}

func TestLoad_NoPathReturnsDefaults(t *testing.T) {
	t.Setenv("ENGINE_TUNING_PATH", "")
	cfg := Load(nil)
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("expected compiled defaults without a tuning path")
	}
}

func TestLoad_OverlaysYAMLOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := []byte("flow:\n  window_days: 7\nassociation:\n  min_support: 0.05\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}
	t.Setenv("ENGINE_TUNING_PATH", path)

	cfg := Load(nil)
	if cfg.Flow.WindowDays != 7 {
		t.Fatalf("expected overridden window, got %d", cfg.Flow.WindowDays)
	}
	if cfg.Association.MinSupport != 0.05 {
		t.Fatalf("expected overridden support, got %v", cfg.Association.MinSupport)
	}
	// Untouched keys keep their defaults.
	if cfg.Flow.TopPaths != 5 || cfg.Association.MinConfidence != 0.3 {
		t.Fatalf("expected defaults preserved, got %+v", cfg)
	}
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	t.Setenv("ENGINE_TUNING_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	if cfg := Load(nil); !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("expected defaults on unreadable file")
	}
}

func TestLoad_MalformedYAMLFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("flow: [broken"), 0o600); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}
	t.Setenv("ENGINE_TUNING_PATH", path)
	if cfg := Load(nil); !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("expected defaults on malformed YAML")
	}
}

func TestLoad_RejectedValuesFallBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := []byte("association:\n  min_support: 2.0\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}
	t.Setenv("ENGINE_TUNING_PATH", path)

	cfg := Load(nil)
	if cfg.Association.MinSupport != Default().Association.MinSupport {
		t.Fatalf("out-of-range support must be rejected, got %v", cfg.Association.MinSupport)
	}
}
