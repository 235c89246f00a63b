package exam2pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/alnah/go-exam2pdf/internal/pipeline"
)

// renderEngine turns a laid-out exam into PDF bytes.
type renderEngine interface {
	Render(ctx context.Context, doc *document) ([]byte, error)
	Close() error
}

// Compile-time interface checks.
var (
	_ renderEngine = (*nativeEngine)(nil)
	_ renderEngine = (*chromeEngine)(nil)
)

// document is the engine-independent form of an exam.
type document struct {
	Header *Header
	// InstructionsHTML is the rendered Markdown instructions fragment.
	InstructionsHTML string
	Footer           Footer
	Page             PageSettings
	Blocks           []questionBlock

	// html is filled by the chrome engine for Result.HTML.
	html string
}

// Generator renders question lists to PDF.
type Generator struct {
	cfg      generatorConfig
	log      *zap.Logger
	markdown pipeline.MarkdownConverter
	engine   renderEngine
}

// NewGenerator creates a Generator. The native engine is used unless
// WithEngine selects another one.
// Returns an error for an unknown engine or an unknown style.
func NewGenerator(opts ...Option) (*Generator, error) {
	g := &Generator{
		cfg: generatorConfig{
			engine:  EngineNative,
			timeout: defaultTimeout,
		},
		log:      zap.NewNop(),
		markdown: pipeline.NewGoldmarkConverter(),
	}

	for _, opt := range opts {
		opt(g)
	}

	// Engine injected by tests.
	if g.engine != nil {
		return g, nil
	}

	switch g.cfg.engine {
	case EngineNative:
		g.engine = newNativeEngine(g.log)
	case EngineChrome:
		engine, err := newChromeEngine(g.cfg.style, g.cfg.timeout, g.log)
		if err != nil {
			return nil, err
		}
		g.engine = engine
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidEngine, g.cfg.engine)
	}
	return g, nil
}

// Generate lays out the questions and renders them to PDF.
// Options whose image cannot be decoded are dropped and counted in
// Result.Skipped. Recovers from internal panics.
func (g *Generator) Generate(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: internal error: %v", ErrPDFGeneration, r)
		}
	}()

	if len(input.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	page := input.Page.withDefaults()
	if err := page.Validate(); err != nil {
		return nil, err
	}

	header := input.Header
	if header == nil {
		header = DefaultHeader()
	}
	footer := Footer{ShowPageNumber: true}
	if input.Footer != nil {
		footer = *input.Footer
	}

	instructions, err := g.markdown.ToHTML(ctx, header.Instructions)
	if err != nil {
		return nil, fmt.Errorf("rendering instructions: %w", err)
	}

	builder := &layoutBuilder{log: g.log}
	doc := &document{
		Header:           header,
		InstructionsHTML: instructions,
		Footer:           footer,
		Page:             page,
		Blocks:           builder.build(input.Questions),
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	g.log.Debug("exam laid out",
		zap.Int("questions", len(doc.Blocks)),
		zap.Int("images", builder.images),
		zap.Int("skipped", builder.skipped),
		zap.String("engine", string(g.cfg.engine)))

	pdf, err := g.engine.Render(ctx, doc)
	if err != nil {
		return nil, err
	}

	return &Result{
		PDF:     pdf,
		HTML:    []byte(doc.html),
		Skipped: builder.skipped,
	}, nil
}

// GenerateFile renders the questions and writes the PDF to path,
// creating parent directories as needed.
func (g *Generator) GenerateFile(ctx context.Context, input Input, path string) error {
	result, err := g.Generate(ctx, input)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("%w: creating directory %q: %v", ErrWritePDF, dir, err)
		}
	}
	if err := os.WriteFile(path, result.PDF, 0o644); err != nil { // #nosec G306 -- PDF output is meant to be shared
		return fmt.Errorf("%w: %v", ErrWritePDF, err)
	}

	g.log.Info("pdf written", zap.String("path", path), zap.Int("bytes", len(result.PDF)))
	return nil
}

// Close releases engine resources (headless Chrome for EngineChrome).
func (g *Generator) Close() error {
	if g.engine != nil {
		return g.engine.Close()
	}
	return nil
}
