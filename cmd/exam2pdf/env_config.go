package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/alnah/go-exam2pdf/internal/config"
	"github.com/alnah/go-exam2pdf/internal/fileutil"
)

// dotEnvFiles are loaded in order. godotenv never overrides a variable that
// is already set, so earlier files win over later ones.
var dotEnvFiles = []string{".env.local", ".env"}

// envConfig holds configuration from environment variables.
type envConfig struct {
	// API
	BaseURL string // EXAM2PDF_BASE_URL, fallback BASE_URL
	Token   string // EXAM2PDF_TOKEN, fallback TOKEN
	Timeout string // EXAM2PDF_TIMEOUT: Go duration

	// Files
	ConfigPath string // EXAM2PDF_CONFIG: config file name or path
	Output     string // EXAM2PDF_OUTPUT: output file or directory

	// Rendering
	Engine   string // EXAM2PDF_ENGINE: native, chrome
	Style    string // EXAM2PDF_STYLE: embedded CSS name
	PageSize string // EXAM2PDF_PAGE_SIZE: a4, letter, legal

	// Logging
	LogLevel string // EXAM2PDF_LOG_LEVEL: debug, info, warn, error
}

// knownEnvVars lists valid EXAM2PDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"EXAM2PDF_BASE_URL":  true,
	"EXAM2PDF_TOKEN":     true,
	"EXAM2PDF_TIMEOUT":   true,
	"EXAM2PDF_CONFIG":    true,
	"EXAM2PDF_OUTPUT":    true,
	"EXAM2PDF_ENGINE":    true,
	"EXAM2PDF_STYLE":     true,
	"EXAM2PDF_PAGE_SIZE": true,
	"EXAM2PDF_LOG_LEVEL": true,
	"EXAM2PDF_CONTAINER": true,
}

// loadDotEnv loads ENV_FILE, then .env.local and .env from the current
// directory. Missing files are skipped; unreadable ones are reported.
func loadDotEnv(w io.Writer) {
	files := dotEnvFiles
	if custom := os.Getenv("ENV_FILE"); custom != "" {
		files = append([]string{custom}, files...)
	}
	for _, f := range files {
		if !fileutil.FileExists(f) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			fmt.Fprintf(w, "warning: loading %s: %v\n", f, err)
		}
	}
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig() *envConfig {
	return &envConfig{
		BaseURL:    firstEnv("EXAM2PDF_BASE_URL", "BASE_URL"),
		Token:      firstEnv("EXAM2PDF_TOKEN", "TOKEN"),
		Timeout:    os.Getenv("EXAM2PDF_TIMEOUT"),
		ConfigPath: os.Getenv("EXAM2PDF_CONFIG"),
		Output:     os.Getenv("EXAM2PDF_OUTPUT"),
		Engine:     os.Getenv("EXAM2PDF_ENGINE"),
		Style:      os.Getenv("EXAM2PDF_STYLE"),
		PageSize:   os.Getenv("EXAM2PDF_PAGE_SIZE"),
		LogLevel:   os.Getenv("EXAM2PDF_LOG_LEVEL"),
	}
}

// firstEnv returns the first non-empty variable among names.
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// warnUnknownEnvVars logs warnings for unrecognized EXAM2PDF_* variables.
// Helps catch typos like EXAM2PDF_BASEURL instead of EXAM2PDF_BASE_URL.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "EXAM2PDF_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overrides config file values with set environment
// variables. CLI flags are applied afterwards by mergeFlags, giving:
// flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.BaseURL != "" {
		cfg.API.BaseURL = env.BaseURL
	}
	if env.Timeout != "" {
		cfg.API.Timeout = env.Timeout
	}
	if env.Output != "" {
		cfg.Output.Path = env.Output
	}
	if env.Engine != "" {
		cfg.Render.Engine = env.Engine
	}
	if env.Style != "" {
		cfg.Render.Style = env.Style
	}
	if env.PageSize != "" {
		cfg.Page.Size = env.PageSize
	}
}
