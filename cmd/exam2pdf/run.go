package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	exam2pdf "github.com/alnah/go-exam2pdf"
	"github.com/alnah/go-exam2pdf/internal/assets"
	"github.com/alnah/go-exam2pdf/internal/config"
	"github.com/alnah/go-exam2pdf/internal/examapi"
	"github.com/alnah/go-exam2pdf/internal/fileutil"
	"github.com/alnah/go-exam2pdf/internal/hints"
	"github.com/alnah/go-exam2pdf/internal/logger"
)

// Sentinel errors for CLI operations.
var (
	ErrMissingCredentials = errors.New("exam API base URL and token are required")
	ErrReadInput          = errors.New("failed to read questions file")
	ErrSaveJSON           = errors.New("failed to save questions JSON")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// defaultOutputBase is the stem of generated output names: session_XXXX.pdf.
const defaultOutputBase = "session"

// runGenerate fetches (or reads) the questions and writes the PDF.
func runGenerate(ctx context.Context, flags *cliFlags, env *Environment) error {
	envCfg := loadEnvConfig()
	if !flags.quiet {
		warnUnknownEnvVars(env.Stderr)
	}

	cfg, err := resolveConfig(flags, envCfg)
	if err != nil {
		return err
	}

	if flags.printConfig {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = env.Stdout.Write(data)
		return err
	}

	log, err := buildLogger(flags, envCfg, env)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	timeout, err := cfg.API.TimeoutDuration()
	if err != nil {
		return err
	}

	payload, err := loadPayload(ctx, flags, envCfg.Token, cfg, timeout, log, env)
	if err != nil {
		return err
	}

	if flags.saveJSON != "" {
		if err := os.WriteFile(flags.saveJSON, payload, filePermissions); err != nil { // #nosec G306 -- same audience as the PDF
			return fmt.Errorf("%w: %v", ErrSaveJSON, err)
		}
		log.Info("questions JSON saved", zap.String("path", flags.saveJSON))
	}

	questions, err := exam2pdf.ParseQuestions(payload)
	if err != nil {
		var pe *exam2pdf.ParseError
		if errors.As(err, &pe) {
			if snippet := describeParseError(payload, pe); snippet != "" {
				return fmt.Errorf("%w\n%s", err, snippet)
			}
		}
		return err
	}
	log.Debug("questions parsed", zap.Int("count", len(questions)))

	engine, err := exam2pdf.ParseEngine(cfg.Render.Engine)
	if err != nil {
		return err
	}
	gen, err := exam2pdf.NewGenerator(
		exam2pdf.WithEngine(engine),
		exam2pdf.WithStyle(cfg.Render.Style),
		exam2pdf.WithTimeout(timeout),
		exam2pdf.WithLogger(log),
	)
	if err != nil {
		return err
	}
	defer func() { _ = gen.Close() }()

	outputPath, err := resolveOutputPath(cfg.Output)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := gen.GenerateFile(ctx, buildInput(questions, cfg), outputPath); err != nil {
		return err
	}
	log.Debug("pdf rendered", zap.Duration("took", time.Since(start)), zap.String("engine", string(engine)))

	if !flags.quiet {
		fmt.Fprintf(env.Stdout, "PDF generated successfully: %s\n", outputPath)
	}
	return nil
}

// resolveConfig loads the config file (flag, then EXAM2PDF_CONFIG) and layers
// env vars and flags on top.
func resolveConfig(flags *cliFlags, envCfg *envConfig) (*config.Config, error) {
	cfg := config.DefaultConfig()
	name := flags.config
	if name == "" {
		name = envCfg.ConfigPath
	}
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *cliFlags, cfg *config.Config) {
	if flags.output != "" {
		cfg.Output.Path = flags.output
	}
	if flags.engine != "" {
		cfg.Render.Engine = flags.engine
	}
	if flags.style != "" {
		cfg.Render.Style = flags.style
	}
	if flags.timeout != "" {
		cfg.API.Timeout = flags.timeout
	}
	if flags.page.size != "" {
		cfg.Page.Size = flags.page.size
	}
	if flags.page.orientation != "" {
		cfg.Page.Orientation = flags.page.orientation
	}
	if flags.page.marginSet {
		cfg.Page.Margin = flags.page.margin
	}
	if flags.footer.text != "" {
		cfg.Footer.Text = flags.footer.text
	}
	if flags.footer.noPageNumber {
		cfg.Footer.HidePageNumber = true
	}
}

// buildLogger picks the level from --verbose/--quiet, then EXAM2PDF_LOG_LEVEL.
func buildLogger(flags *cliFlags, envCfg *envConfig, env *Environment) (*zap.Logger, error) {
	if env.Logger != nil {
		return env.Logger, nil
	}
	level := envCfg.LogLevel
	switch {
	case flags.verbose:
		level = "debug"
	case flags.quiet:
		level = "error"
	}
	log, err := logger.New(logger.Config{Level: level, Format: flags.logFormat})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return log, nil
}

// loadPayload reads --input, or runs the two-request API exchange.
func loadPayload(ctx context.Context, flags *cliFlags, token string, cfg *config.Config, timeout time.Duration, log *zap.Logger, env *Environment) ([]byte, error) {
	if flags.input != "" {
		data, err := os.ReadFile(flags.input) // #nosec G304 -- path is user-provided
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReadInput, err)
		}
		log.Debug("questions read from file", zap.String("path", flags.input), zap.Int("bytes", len(data)))
		return data, nil
	}

	if cfg.API.BaseURL == "" || token == "" {
		return nil, ErrMissingCredentials
	}
	fetcher, err := env.NewFetcher(examapi.Config{
		BaseURL: cfg.API.BaseURL,
		Token:   token,
		Timeout: timeout,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}
	return fetcher.Fetch(ctx)
}

// resolveOutputPath returns Output.Path, or a generated session_XXXX.pdf name
// when the path is empty or an existing directory.
func resolveOutputPath(out config.OutputConfig) (string, error) {
	dir := out.Dir
	if out.Path != "" {
		if !fileutil.DirExists(out.Path) {
			return out.Path, nil
		}
		dir = out.Path
	}

	name, err := fileutil.RandomizedName(defaultOutputBase, "pdf")
	if err != nil {
		return "", err
	}
	if dir == "" {
		return name, nil
	}
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return "", fmt.Errorf("%w: %v", exam2pdf.ErrWritePDF, err)
	}
	return filepath.Join(dir, name), nil
}

// buildInput maps the resolved config onto generator input.
// Empty header fields keep the built-in header text.
func buildInput(questions []exam2pdf.Question, cfg *config.Config) exam2pdf.Input {
	header := exam2pdf.DefaultHeader()
	if cfg.Header.Institute != "" {
		header.Institute = cfg.Header.Institute
	}
	if cfg.Header.Title != "" {
		header.Title = cfg.Header.Title
	}
	if cfg.Header.Motto != "" {
		header.Motto = cfg.Header.Motto
	}
	header.Instructions = cfg.Header.Instructions

	return exam2pdf.Input{
		Questions: questions,
		Header:    header,
		Footer: &exam2pdf.Footer{
			Text:           cfg.Footer.Text,
			ShowPageNumber: !cfg.Footer.HidePageNumber,
		},
		Page: &exam2pdf.PageSettings{
			Size:        cfg.Page.Size,
			Orientation: cfg.Page.Orientation,
			Margin:      cfg.Page.Margin,
		},
	}
}

// describeParseError quotes the offending line with a caret under the column.
func describeParseError(data []byte, pe *exam2pdf.ParseError) string {
	lines := bytes.Split(data, []byte{'\n'})
	if pe.Line < 1 || pe.Line > len(lines) {
		return ""
	}
	line := strings.TrimRight(string(lines[pe.Line-1]), "\r")
	col := max(pe.Column, 1)

	// Keep long minified lines readable: show at most 60 bytes around the column.
	const window = 30
	start := min(max(0, col-1-window), len(line))
	end := max(min(len(line), col-1+window), start)
	snippet := line[start:end]
	prefix := ""
	if start > 0 {
		prefix = "..."
	}

	gutter := fmt.Sprintf("  %d | ", pe.Line)
	caret := strings.Repeat(" ", len(gutter)+len(prefix)+col-1-start) + "^"
	return gutter + prefix + snippet + "\n" + caret
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error, flags *cliFlags) string {
	var statusErr *examapi.StatusError
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return hints.ForMissingCredentials()
	case errors.As(err, &statusErr):
		return hints.ForStatus(statusErr.Code)
	case errors.Is(err, exam2pdf.ErrInvalidJSON) && flags.input == "":
		return hints.ForInvalidJSON()
	case errors.Is(err, exam2pdf.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		name := flags.config
		if name == "" {
			name = os.Getenv("EXAM2PDF_CONFIG")
		}
		return hints.ForConfigNotFound(config.SearchPaths(name))
	case errors.Is(err, exam2pdf.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.NewEmbeddedLoader().StyleNames())
	case errors.Is(err, exam2pdf.ErrWritePDF):
		return hints.ForOutputDirectory()
	}
	return ""
}
