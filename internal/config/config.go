package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-exam2pdf/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxURLLength          = 2048 // Browser limit
	MaxPathLength         = 4096 // PATH_MAX on Linux
	MaxNameLength         = 50   // engine and style names
	MaxHeaderLength       = 200  // institute, title, motto
	MaxInstructionsLength = 5000 // Markdown block under the header
	MaxTextLength         = 500  // Footer free-form text
	MaxPageSizeLength     = 10   // "letter", "a4", "legal"
	MaxOrientationLength  = 10   // "portrait", "landscape"
)

// DefaultTimeout is the HTTP and browser timeout when none is configured.
const DefaultTimeout = 30 * time.Second

// appDirName is the directory searched under os.UserConfigDir.
const appDirName = "go-exam2pdf"

// Config holds all configuration for fetching and rendering an exam.
type Config struct {
	API    APIConfig    `yaml:"api"`
	Output OutputConfig `yaml:"output"`
	Render RenderConfig `yaml:"render"`
	Page   PageConfig   `yaml:"page"`
	Header HeaderConfig `yaml:"header"`
	Footer FooterConfig `yaml:"footer"`
}

// APIConfig locates the exam API. The bearer token is read from the
// environment only.
type APIConfig struct {
	BaseURL string `yaml:"baseURL"`
	Timeout string `yaml:"timeout"` // Go duration, e.g. "30s" (default: 30s)
}

// OutputConfig defines the output destination.
type OutputConfig struct {
	Path string `yaml:"path"` // Exact file (empty = session_XXXX.pdf)
	Dir  string `yaml:"dir"`  // Directory for generated names (empty = current)
}

// RenderConfig selects the PDF backend.
type RenderConfig struct {
	Engine string `yaml:"engine"` // "native" (default) or "chrome"
	Style  string `yaml:"style"`  // Embedded CSS for the chrome engine (default: "exam")
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string  `yaml:"size"`        // "letter", "a4", "legal" (default: "a4")
	Orientation string  `yaml:"orientation"` // "portrait", "landscape" (default: "portrait")
	Margin      float64 `yaml:"margin"`      // points (default: 36)
}

// HeaderConfig is the block printed above the first question.
// Empty fields fall back to the built-in header.
type HeaderConfig struct {
	Institute    string `yaml:"institute"`
	Title        string `yaml:"title"`
	Motto        string `yaml:"motto"`
	Instructions string `yaml:"instructions"` // Markdown
}

// FooterConfig defines the page footer.
type FooterConfig struct {
	Text           string `yaml:"text"`
	HidePageNumber bool   `yaml:"hidePageNumber"`
}

// Validate checks field lengths and enumerated values.
// Called automatically by LoadConfig, but available for callers
// who construct Config manually.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"api.baseURL", c.API.BaseURL, MaxURLLength},
		{"output.path", c.Output.Path, MaxPathLength},
		{"output.dir", c.Output.Dir, MaxPathLength},
		{"render.engine", c.Render.Engine, MaxNameLength},
		{"render.style", c.Render.Style, MaxNameLength},
		{"page.size", c.Page.Size, MaxPageSizeLength},
		{"page.orientation", c.Page.Orientation, MaxOrientationLength},
		{"header.institute", c.Header.Institute, MaxHeaderLength},
		{"header.title", c.Header.Title, MaxHeaderLength},
		{"header.motto", c.Header.Motto, MaxHeaderLength},
		{"header.instructions", c.Header.Instructions, MaxInstructionsLength},
		{"footer.text", c.Footer.Text, MaxTextLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: api.baseURL: %q is not an http(s) URL", ErrInvalidValue, c.API.BaseURL)
		}
	}

	if _, err := c.API.TimeoutDuration(); err != nil {
		return err
	}

	if c.Render.Engine != "" {
		switch strings.ToLower(c.Render.Engine) {
		case "native", "chrome":
			// valid
		default:
			return fmt.Errorf("%w: render.engine: %q (must be native or chrome)", ErrInvalidValue, c.Render.Engine)
		}
	}

	if c.Page.Margin < 0 {
		return fmt.Errorf("%w: page.margin: must not be negative, got %.1f", ErrInvalidValue, c.Page.Margin)
	}

	return nil
}

// TimeoutDuration parses API.Timeout. Empty means DefaultTimeout.
func (a APIConfig) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: api.timeout: %v", ErrInvalidValue, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: api.timeout: must be positive, got %s", ErrInvalidValue, a.Timeout)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a configuration where every field uses its built-in default.
func DefaultConfig() *Config {
	return &Config{
		API:    APIConfig{Timeout: DefaultTimeout.String()},
		Render: RenderConfig{Engine: "native"},
	}
}

// Marshal renders the configuration as YAML, for --print-config.
func (c *Config) Marshal() ([]byte, error) {
	return yamlutil.Marshal(c)
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// SearchPaths lists where a config name is looked up, in order:
// the current directory, then the user config directory.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, appDirName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file among SearchPaths.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
