package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Zer0-/polymer-bricks/internal/config"
	"github.com/Zer0-/polymer-bricks/internal/errors"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadConfig_DefaultsWithArgs(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg, err := loadConfig(&globalFlags{}, []string{"src", "out"})
	if err != nil {
		t.Fatalf("loadConfig error = %v", err)
	}
	wd, _ := os.Getwd()
	if cfg.SourcePath() != filepath.Join(wd, "src") {
		t.Errorf("SourcePath() = %q", cfg.SourcePath())
	}
	if cfg.OutputPath() != filepath.Join(wd, "out") {
		t.Errorf("OutputPath() = %q", cfg.OutputPath())
	}
}

func TestLoadConfig_NotFoundWithoutArgs(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := loadConfig(&globalFlags{}, nil)
	if !errors.IsCode(err, errors.CodeConfigNotFound) {
		t.Errorf("error = %v, want %s", err, errors.CodeConfigNotFound)
	}
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.New()
	cfg.Source = "lib"
	cfg.Manifest.Format = config.FormatYAML
	path := filepath.Join(dir, config.ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := loadConfig(&globalFlags{config: path}, nil)
	if err != nil {
		t.Fatalf("loadConfig error = %v", err)
	}
	if loaded.SourcePath() != filepath.Join(dir, "lib") {
		t.Errorf("SourcePath() = %q", loaded.SourcePath())
	}
	if loaded.Manifest.Format != config.FormatYAML {
		t.Errorf("Manifest.Format = %q", loaded.Manifest.Format)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1 << 20, "1.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
