// Package config loads and validates the tkdocs configuration file.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sygic-travel/tkdocs/internal/foundation/errors"
)

// DefaultFileName is the configuration file looked up when --config is not given.
const DefaultFileName = "tkdocs.yaml"

// Config is the full tkdocs configuration.
type Config struct {
	Project     ProjectConfig     `yaml:"project"`
	Generator   GeneratorConfig   `yaml:"generator"`
	PostProcess PostProcessConfig `yaml:"postprocess"`
	Output      OutputConfig      `yaml:"output"`
	History     HistoryConfig     `yaml:"history"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Watch       WatchConfig       `yaml:"watch"`

	// baseDir is the directory of the loaded file; relative project roots resolve against it.
	baseDir string
}

// ProjectConfig locates the SDK sources and the version build setting.
type ProjectConfig struct {
	Root            string `yaml:"root"`
	VersionSource   string `yaml:"version_source"`
	VersionKey      string `yaml:"version_key"`
	FallbackVersion string `yaml:"fallback_version"`
}

// GeneratorConfig is the fixed jazzy configuration plus the supported tool version range.
type GeneratorConfig struct {
	Tool        string `yaml:"tool"`
	MinVersion  string `yaml:"min_version"`
	MaxVersion  string `yaml:"max_version"`
	InstallHint string `yaml:"install_hint,omitempty"`

	ObjC           bool   `yaml:"objc"`
	Clean          bool   `yaml:"clean"`
	FrameworkRoot  string `yaml:"framework_root"`
	SDK            string `yaml:"sdk,omitempty"`
	Module         string `yaml:"module"`
	UmbrellaHeader string `yaml:"umbrella_header"`
	Author         string `yaml:"author"`
	AuthorURL      string `yaml:"author_url"`
	GitHubURL      string `yaml:"github_url"`
	// GitHubFilePrefix is a literal prefix, "auto" to derive it from git HEAD, or empty to omit.
	GitHubFilePrefix string   `yaml:"github_file_prefix,omitempty"`
	Documentation    string   `yaml:"documentation"`
	Theme            string   `yaml:"theme"`
	MinACL           string   `yaml:"min_acl"`
	SkipUndocumented bool     `yaml:"skip_undocumented"`
	DownloadBadge    bool     `yaml:"download_badge"`
	ExtraArgs        []string `yaml:"extra_args,omitempty"`
}

// PostProcessConfig configures the HTML rewrite.
type PostProcessConfig struct {
	Selector           string       `yaml:"selector"`
	TitleToken         string       `yaml:"title_token"`
	Title              string       `yaml:"title"`
	ProductName        string       `yaml:"product_name"`
	BrandedProductName string       `yaml:"branded_product_name"`
	VersionToken       string       `yaml:"version_token"`
	Rules              []RuleConfig `yaml:"rules,omitempty"`
	Verify             bool         `yaml:"verify"`
}

// RuleConfig is an additional substitution applied after the built-in ones.
// "{{version}}" in Replacement expands to the resolved module version.
type RuleConfig struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// OutputConfig controls where documentation is written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Open      bool   `yaml:"open"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MetricsConfig controls the Prometheus textfile output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// WatchConfig controls `tkdocs watch`.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Ignore   []string      `yaml:"ignore,omitempty"`
}

// Load reads, expands and validates the configuration at path. A missing file is an error;
// use Default for a configuration without a file.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "resolve configuration path").Fatal().Build()
	}
	loadEnvFiles(filepath.Dir(absPath))

	data, err := os.ReadFile(filepath.Clean(absPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError(fmt.Sprintf("configuration file not found: %s", path)).
				WithHint("Create one with: tkdocs init").Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "read configuration file").Fatal().Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.baseDir = filepath.Dir(absPath)
	return cfg, nil
}

// Parse decodes YAML onto the defaults, expanding ${VAR} references first.
// Only set variables with identifier names are expanded, so regexp group
// references such as $1, ${1} and $$ in rule replacements survive.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	expanded := expandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.WrapError(err, errors.CategoryConfig, "parse configuration").Fatal().Build()
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProjectRoot returns the absolute project root.
func (c *Config) ProjectRoot() string {
	root := c.Project.Root
	if root == "" {
		root = "."
	}
	if !filepath.IsAbs(root) && c.baseDir != "" {
		root = filepath.Join(c.baseDir, root)
	}
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return root
}

// Path resolves p against the project root unless it is absolute.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectRoot(), p)
}

// OutputDir is the absolute generator output directory.
func (c *Config) OutputDir() string {
	return c.Path(c.Output.Directory)
}

// VersionSourcePath is the absolute path of the version source file.
func (c *Config) VersionSourcePath() string {
	return c.Path(c.Project.VersionSource)
}
