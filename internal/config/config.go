package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/Zer0-/polymer-bricks/internal/errors"
	"github.com/Zer0-/polymer-bricks/pkg/component"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "bricks.json"

	// DefaultSource is the default component source directory.
	DefaultSource = "components"

	// DefaultOutput is the default build output directory.
	DefaultOutput = "dist"

	// ComponentsDir is the subdirectory of the output holding materialized
	// components. It is also the first segment of rewritten runtime paths.
	ComponentsDir = "components"

	// DefaultAssetRoot is the asset-root prefix written into the manifest.
	DefaultAssetRoot = "polymer_bricks:polymer_components/components"

	// DefaultTemplateTag is the templating container tag name.
	DefaultTemplateTag = "template"

	// DefaultMaxDepth bounds the length of a dependency chain.
	DefaultMaxDepth = 256

	// DefaultPort is the default development server port.
	DefaultPort = 3100

	// DefaultHost is the default development server host.
	DefaultHost = "localhost"

	// DefaultRegion is the default object storage region.
	DefaultRegion = "us-east-1"
)

// Manifest formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// DefaultIgnore lists path substrings excluded from root discovery.
var DefaultIgnore = []string{
	"demo",
	"index",
	"core-popup-menu/metadata",
	"smoke",
	"jquery",
	"highlightjs",
}

// Config represents the complete bricks.json configuration.
type Config struct {
	// Source is the component source directory.
	Source string `json:"source,omitempty"`

	// Output is the build output directory.
	Output string `json:"output,omitempty"`

	// Ignore contains path substrings (or doublestar globs) excluded from
	// root discovery.
	Ignore []string `json:"ignore,omitempty"`

	// AssetRoot is the prefix the host framework resolves asset paths
	// against. It is embedded in every generated leaf declaration.
	AssetRoot string `json:"assetRoot,omitempty"`

	// Extensions controls which files are discovered and classified.
	Extensions ExtensionsConfig `json:"extensions,omitempty"`

	// TemplateTag is the container whose nested references stay embedded.
	TemplateTag string `json:"templateTag,omitempty"`

	// MaxDepth bounds the length of a dependency chain.
	MaxDepth int `json:"maxDepth,omitempty"`

	// Workers limits concurrent file writes and uploads.
	Workers int `json:"workers,omitempty"`

	// Manifest contains manifest output configuration.
	Manifest ManifestConfig `json:"manifest,omitempty"`

	// Dev contains development server configuration.
	Dev DevConfig `json:"dev,omitempty"`

	// Publish contains object storage configuration.
	Publish PublishConfig `json:"publish,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ExtensionsConfig contains the recognized extension sets.
type ExtensionsConfig struct {
	// Discover lists extensions of root components.
	Discover []string `json:"discover,omitempty"`

	// Dependency lists extensions classified as dependencies.
	Dependency []string `json:"dependency,omitempty"`
}

// ManifestConfig contains manifest output settings.
type ManifestConfig struct {
	// Format is "json", "yaml", or "text".
	Format string `json:"format,omitempty"`

	// Name overrides the manifest file name.
	Name string `json:"name,omitempty"`
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to run the dev server on.
	Port int `json:"port,omitempty"`

	// Interval is how often the source tree is polled for changes.
	Interval Duration `json:"interval,omitempty"`
}

// PublishConfig contains object storage settings.
type PublishConfig struct {
	// Bucket is the destination bucket.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is prepended to every object key.
	Prefix string `json:"prefix,omitempty"`

	// Region is the bucket region.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the service endpoint (for S3-compatible stores).
	Endpoint string `json:"endpoint,omitempty"`

	// PathStyle forces path-style addressing.
	PathStyle bool `json:"pathStyle,omitempty"`

	// Profile selects a profile of the shared AWS config files.
	Profile string `json:"profile,omitempty"`

	// AccessKeyID and SecretAccessKey are static credentials, typically
	// for a local S3-compatible store. When unset the default AWS
	// credential chain applies.
	AccessKeyID     string `json:"accessKeyId,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty"`
}

// Duration is a time.Duration encoded as a string ("300ms") in JSON.
type Duration time.Duration

// MarshalJSON encodes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Source:    DefaultSource,
		Output:    DefaultOutput,
		Ignore:    append([]string(nil), DefaultIgnore...),
		AssetRoot: DefaultAssetRoot,
		Extensions: ExtensionsConfig{
			Discover:   []string{"html"},
			Dependency: append([]string(nil), component.DefaultExtensions...),
		},
		TemplateTag: DefaultTemplateTag,
		MaxDepth:    DefaultMaxDepth,
		Workers:     runtime.NumCPU(),
		Manifest: ManifestConfig{
			Format: FormatJSON,
		},
		Dev: DevConfig{
			Host:     DefaultHost,
			Port:     DefaultPort,
			Interval: Duration(300 * time.Millisecond),
		},
		Publish: PublishConfig{
			Region: DefaultRegion,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for bricks.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithPath(path).
				WithSuggestion("Create bricks.json or pass the source and output directories as arguments")
		}
		return nil, errors.New(errors.CodeConfigInvalid).WithPath(path).Wrap(err)
	}

	cfg := New()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		code := errors.CodeConfigInvalid
		if strings.Contains(err.Error(), "unknown field") {
			code = errors.CodeConfigUnknownKey
		}
		return nil, errors.New(code).
			WithPath(path).
			WithDetail("Failed to parse bricks.json: " + err.Error()).
			WithSuggestion("Check that bricks.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigInvalid).WithPath(path).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Source == "" {
		c.Source = DefaultSource
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.AssetRoot == "" {
		c.AssetRoot = DefaultAssetRoot
	}
	if len(c.Extensions.Discover) == 0 {
		c.Extensions.Discover = []string{"html"}
	}
	if len(c.Extensions.Dependency) == 0 {
		c.Extensions.Dependency = append([]string(nil), component.DefaultExtensions...)
	}
	if c.TemplateTag == "" {
		c.TemplateTag = DefaultTemplateTag
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Manifest.Format == "" {
		c.Manifest.Format = FormatJSON
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Interval == 0 {
		c.Dev.Interval = Duration(300 * time.Millisecond)
	}
	if c.Publish.Region == "" {
		c.Publish.Region = DefaultRegion
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New(errors.CodeConfigValue).
			WithDetail("dev.port must be between 0 and 65535")
	}
	if c.MaxDepth < 0 {
		return errors.New(errors.CodeConfigValue).
			WithDetail("maxDepth must not be negative")
	}
	if c.Workers < 0 {
		return errors.New(errors.CodeConfigValue).
			WithDetail("workers must not be negative")
	}
	switch c.Manifest.Format {
	case FormatJSON, FormatYAML, FormatText:
	default:
		return errors.New(errors.CodeConfigValue).
			WithDetail("manifest.format must be one of json, yaml, text; got " + strconv.Quote(c.Manifest.Format))
	}
	if strings.ContainsAny(c.TemplateTag, " <>/") {
		return errors.New(errors.CodeConfigValue).
			WithDetail("templateTag must be a bare tag name")
	}
	for _, set := range [][]string{c.Extensions.Discover, c.Extensions.Dependency} {
		if _, err := component.NewClassifier(set); err != nil {
			return err
		}
	}
	for _, ext := range c.Extensions.Discover {
		if !contains(c.Extensions.Dependency, ext) {
			return errors.New(errors.CodeConfigValue).
				WithDetail("discover extension " + strconv.Quote(ext) + " must also be a dependency extension")
		}
	}
	return nil
}

// SourcePath returns the absolute path to the component source directory.
func (c *Config) SourcePath() string {
	return c.abs(c.Source)
}

// OutputPath returns the absolute path to the build output directory.
func (c *Config) OutputPath() string {
	return c.abs(c.Output)
}

// ComponentsPath returns the absolute path to the materialized components.
func (c *Config) ComponentsPath() string {
	return filepath.Join(c.OutputPath(), ComponentsDir)
}

// ManifestName returns the manifest file name for the configured format.
func (c *Config) ManifestName() string {
	if c.Manifest.Name != "" {
		return c.Manifest.Name
	}
	switch c.Manifest.Format {
	case FormatYAML:
		return "manifest.yaml"
	case FormatText:
		return "manifest.txt"
	default:
		return "manifest.json"
	}
}

// ManifestPath returns the absolute path to the manifest file.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.OutputPath(), c.ManifestName())
}

// DevAddress returns the address string for the dev server.
func (c *Config) DevAddress() string {
	return c.Dev.Host + ":" + strconv.Itoa(c.Dev.Port)
}

// DevURL returns the full URL for the dev server.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}

func (c *Config) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if dir := c.Dir(); dir != "" {
		return filepath.Join(dir, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing bricks.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigNotFound).
				WithDetail("No bricks.json found in " + startDir + " or any parent directory").
				WithSuggestion("Create bricks.json or pass the source and output directories as arguments")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or the nearest parent that has a bricks.json.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}

func contains(list []string, s string) bool {
	s = strings.ToLower(strings.TrimPrefix(s, "."))
	for _, v := range list {
		if strings.ToLower(strings.TrimPrefix(v, ".")) == s {
			return true
		}
	}
	return false
}
