package exam2pdf

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Page size constants.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in points (1pt = 1/72 inch).
const (
	MinMargin     = 18.0
	MaxMargin     = 216.0
	DefaultMargin = 36.0
)

// Engine selects the PDF backend.
type Engine string

// Available engines.
const (
	// EngineNative lays the document out in pure Go. No external process needed.
	EngineNative Engine = "native"
	// EngineChrome builds an HTML document and prints it with headless Chrome.
	EngineChrome Engine = "chrome"
)

// ParseEngine converts a user-provided engine name (case-insensitive).
// Empty means EngineNative.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(EngineNative):
		return EngineNative, nil
	case string(EngineChrome):
		return EngineChrome, nil
	}
	return "", fmt.Errorf("%w: %q (must be native or chrome)", ErrInvalidEngine, s)
}

// PageSettings configures PDF page dimensions.
type PageSettings struct {
	Size        string  // "letter", "a4", "legal"
	Orientation string  // "portrait", "landscape"
	Margin      float64 // points, applied to all sides
}

// DefaultPageSettings returns page settings with default values.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeA4,
		Orientation: OrientationPortrait,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}

	if !isValidPageSize(p.Size) {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}

	if !isValidOrientation(p.Orientation) {
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}

	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: %.1f (must be between %.0f and %.0f points)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}

	return nil
}

// withDefaults returns a copy of p with empty fields filled in.
func (p *PageSettings) withDefaults() PageSettings {
	out := *DefaultPageSettings()
	if p == nil {
		return out
	}
	if p.Size != "" {
		out.Size = strings.ToLower(p.Size)
	}
	if p.Orientation != "" {
		out.Orientation = strings.ToLower(p.Orientation)
	}
	if p.Margin != 0 {
		out.Margin = p.Margin
	}
	return out
}

// isValidPageSize checks if size is a known page size (case-insensitive).
// Empty means the default.
func isValidPageSize(size string) bool {
	switch strings.ToLower(size) {
	case "", PageSizeLetter, PageSizeA4, PageSizeLegal:
		return true
	}
	return false
}

// isValidOrientation checks if orientation is valid (case-insensitive).
// Empty means the default.
func isValidOrientation(orientation string) bool {
	switch strings.ToLower(orientation) {
	case "", OrientationPortrait, OrientationLandscape:
		return true
	}
	return false
}

// Header is the block printed above the first question.
type Header struct {
	Institute    string // large bold line
	Title        string // exam name
	Motto        string // centered line under the title
	Instructions string // Markdown, optional
}

// DefaultHeader returns the header printed when none is configured.
func DefaultHeader() *Header {
	return &Header{
		Institute: "Institute of Eximination",
		Title:     "MODEL ENTRANCE EXAM",
		Motto:     "Believe in yourself. Do great!",
	}
}

// Footer configures the page footer.
type Footer struct {
	ShowPageNumber bool
	Text           string // printed before the page number
}

// Input contains generation parameters.
type Input struct {
	Questions []Question    // required
	Header    *Header       // nil = DefaultHeader
	Footer    *Footer       // nil = page number only
	Page      *PageSettings // nil = defaults
}

// Result holds the generated document.
type Result struct {
	PDF []byte
	// HTML is the intermediate document for EngineChrome, empty otherwise.
	HTML []byte
	// Skipped counts options dropped because their image could not be used.
	Skipped int
}

// Option configures a Generator.
type Option func(*Generator)

// generatorConfig holds internal configuration for Generator.
type generatorConfig struct {
	engine  Engine
	timeout time.Duration
	style   string
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the browser timeout for EngineChrome.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("exam2pdf: WithTimeout duration must be positive")
	}
	return func(g *Generator) {
		g.cfg.timeout = d
	}
}

// WithEngine selects the PDF backend.
func WithEngine(e Engine) Option {
	return func(g *Generator) {
		g.cfg.engine = e
	}
}

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// WithStyle sets the embedded CSS style used by EngineChrome.
func WithStyle(name string) Option {
	return func(g *Generator) {
		g.cfg.style = name
	}
}
