package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Zer0-/polymer-bricks/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Source != DefaultSource {
		t.Errorf("Source = %q, want %q", cfg.Source, DefaultSource)
	}
	if cfg.Output != DefaultOutput {
		t.Errorf("Output = %q, want %q", cfg.Output, DefaultOutput)
	}
	if cfg.AssetRoot != DefaultAssetRoot {
		t.Errorf("AssetRoot = %q, want %q", cfg.AssetRoot, DefaultAssetRoot)
	}
	if cfg.Dev.Port != DefaultPort {
		t.Errorf("Dev.Port = %d, want %d", cfg.Dev.Port, DefaultPort)
	}
	if cfg.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want %d", cfg.MaxDepth, DefaultMaxDepth)
	}
	if cfg.Workers < 1 {
		t.Errorf("Workers = %d, want >= 1", cfg.Workers)
	}
	if len(cfg.Ignore) != len(DefaultIgnore) {
		t.Errorf("Ignore = %v, want %v", cfg.Ignore, DefaultIgnore)
	}
	if got := strings.Join(cfg.Extensions.Dependency, ","); got != "css,js,html" {
		t.Errorf("Extensions.Dependency = %q, want %q", got, "css,js,html")
	}

	// Defaults must not alias the package-level slice.
	cfg.Ignore[0] = "changed"
	if DefaultIgnore[0] == "changed" {
		t.Error("New() aliases DefaultIgnore")
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if !errors.IsCode(err, errors.CodeConfigNotFound) {
		t.Errorf("Load(missing) error = %v, want E141", err)
	}

	configJSON := `{
  "source": "bower_components",
  "output": "build",
  "ignore": ["demo", "**/test/**"],
  "assetRoot": "app:static",
  "manifest": {"format": "yaml"},
  "dev": {"port": 8080, "interval": "1s"},
  "publish": {"bucket": "assets", "prefix": "v1"}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Source != "bower_components" {
		t.Errorf("Source = %q, want %q", cfg.Source, "bower_components")
	}
	if cfg.Output != "build" {
		t.Errorf("Output = %q, want %q", cfg.Output, "build")
	}
	if len(cfg.Ignore) != 2 || cfg.Ignore[1] != "**/test/**" {
		t.Errorf("Ignore = %v", cfg.Ignore)
	}
	if cfg.AssetRoot != "app:static" {
		t.Errorf("AssetRoot = %q, want %q", cfg.AssetRoot, "app:static")
	}
	if cfg.Manifest.Format != FormatYAML {
		t.Errorf("Manifest.Format = %q, want %q", cfg.Manifest.Format, FormatYAML)
	}
	if cfg.Dev.Port != 8080 {
		t.Errorf("Dev.Port = %d, want %d", cfg.Dev.Port, 8080)
	}
	if time.Duration(cfg.Dev.Interval) != time.Second {
		t.Errorf("Dev.Interval = %v, want 1s", time.Duration(cfg.Dev.Interval))
	}
	if cfg.Publish.Bucket != "assets" || cfg.Publish.Region != DefaultRegion {
		t.Errorf("Publish = %+v", cfg.Publish)
	}

	// Unset fields keep their defaults.
	if cfg.Dev.Host != DefaultHost {
		t.Errorf("Dev.Host = %q, want %q", cfg.Dev.Host, DefaultHost)
	}
	if cfg.TemplateTag != DefaultTemplateTag {
		t.Errorf("TemplateTag = %q, want %q", cfg.TemplateTag, DefaultTemplateTag)
	}

	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), tmpDir)
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if !errors.IsCode(err, errors.CodeConfigInvalid) {
		t.Errorf("LoadFile error = %v, want E120", err)
	}
}

func TestLoadFile_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"tailwind": {"enabled": true}}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if !errors.IsCode(err, errors.CodeConfigUnknownKey) {
		t.Errorf("LoadFile error = %v, want E121", err)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := New()
	cfg.Output = "public"
	cfg.Dev.Interval = Duration(2 * time.Second)
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"interval": "2s"`) {
		t.Errorf("saved config does not encode interval as a string:\n%s", data)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if loaded.Output != "public" {
		t.Errorf("Output = %q, want %q", loaded.Output, "public")
	}
	if time.Duration(loaded.Dev.Interval) != 2*time.Second {
		t.Errorf("Dev.Interval = %v, want 2s", time.Duration(loaded.Dev.Interval))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"port too high", func(c *Config) { c.Dev.Port = 70000 }, true},
		{"negative port", func(c *Config) { c.Dev.Port = -1 }, true},
		{"negative depth", func(c *Config) { c.MaxDepth = -1 }, true},
		{"negative workers", func(c *Config) { c.Workers = -2 }, true},
		{"bad format", func(c *Config) { c.Manifest.Format = "xml" }, true},
		{"text format", func(c *Config) { c.Manifest.Format = FormatText }, false},
		{"bad template tag", func(c *Config) { c.TemplateTag = "<template>" }, true},
		{"unknown extension", func(c *Config) { c.Extensions.Dependency = []string{"png"} }, true},
		{"discover not a dependency", func(c *Config) {
			c.Extensions.Discover = []string{"js"}
			c.Extensions.Dependency = []string{"html", "css"}
		}, true},
		{"dotted extensions", func(c *Config) {
			c.Extensions.Discover = []string{".html"}
			c.Extensions.Dependency = []string{".html", ".css"}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDevAddress(t *testing.T) {
	cfg := New()
	cfg.Dev.Host = "0.0.0.0"
	cfg.Dev.Port = 9000

	if got := cfg.DevAddress(); got != "0.0.0.0:9000" {
		t.Errorf("DevAddress() = %q, want %q", got, "0.0.0.0:9000")
	}
	if got := cfg.DevURL(); got != "http://0.0.0.0:9000" {
		t.Errorf("DevURL() = %q, want %q", got, "http://0.0.0.0:9000")
	}
}

func TestPaths(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := New()
	cfg.configPath = filepath.Join(tmpDir, ConfigFileName)

	if got, want := cfg.SourcePath(), filepath.Join(tmpDir, DefaultSource); got != want {
		t.Errorf("SourcePath() = %q, want %q", got, want)
	}
	if got, want := cfg.OutputPath(), filepath.Join(tmpDir, DefaultOutput); got != want {
		t.Errorf("OutputPath() = %q, want %q", got, want)
	}
	if got, want := cfg.ComponentsPath(), filepath.Join(tmpDir, DefaultOutput, ComponentsDir); got != want {
		t.Errorf("ComponentsPath() = %q, want %q", got, want)
	}
	if got, want := cfg.ManifestPath(), filepath.Join(tmpDir, DefaultOutput, "manifest.json"); got != want {
		t.Errorf("ManifestPath() = %q, want %q", got, want)
	}

	cfg.Output = "/abs/out"
	if got := cfg.OutputPath(); got != "/abs/out" {
		t.Errorf("OutputPath() = %q, want absolute path unchanged", got)
	}
}

func TestManifestName(t *testing.T) {
	tests := []struct {
		format string
		name   string
		want   string
	}{
		{FormatJSON, "", "manifest.json"},
		{FormatYAML, "", "manifest.yaml"},
		{FormatText, "", "manifest.txt"},
		{FormatText, "bricks.py", "bricks.py"},
	}
	for _, tt := range tests {
		cfg := New()
		cfg.Manifest.Format = tt.format
		cfg.Manifest.Name = tt.name
		if got := cfg.ManifestName(); got != tt.want {
			t.Errorf("ManifestName(%s, %q) = %q, want %q", tt.format, tt.name, got, tt.want)
		}
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()

	if Exists(tmpDir) {
		t.Error("Exists() should be false before the file is created")
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if !Exists(tmpDir) {
		t.Error("Exists() should be true after the file is created")
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	root, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot error: %v", err)
	}
	if root != tmpDir {
		t.Errorf("FindProjectRoot() = %q, want %q", root, tmpDir)
	}
}

func TestDuration_UnmarshalNumber(t *testing.T) {
	var d Duration
	if err := d.UnmarshalJSON([]byte("1500000000")); err != nil {
		t.Fatal(err)
	}
	if time.Duration(d) != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", time.Duration(d))
	}
	if err := d.UnmarshalJSON([]byte(`"soon"`)); err == nil {
		t.Error("UnmarshalJSON(\"soon\") should fail")
	}
}
