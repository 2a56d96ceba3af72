package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	if cfg.BakedUVName != "TEXCOORD_4" || cfg.BakedUVIndex != 4 {
		t.Errorf("Default() baked uv = %q/%d, want TEXCOORD_4/4", cfg.BakedUVName, cfg.BakedUVIndex)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Generator = "custom-generator"
	cfg.ChartOptions.Padding = 3

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(cfg, path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Generator != "custom-generator" {
		t.Errorf("loaded.Generator = %q, want custom-generator", loaded.Generator)
	}
	if loaded.ChartOptions.Padding != 3 {
		t.Errorf("loaded.ChartOptions.Padding = %d, want 3", loaded.ChartOptions.Padding)
	}
	if loaded.BakedUVName != "TEXCOORD_4" {
		t.Errorf("loaded.BakedUVName = %q, want default TEXCOORD_4 preserved", loaded.BakedUVName)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of a missing file did not error")
	}
}
