package exam2pdf

import (
	"context"
	"fmt"
	"html"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/alnah/go-exam2pdf/internal/assets"
	"github.com/alnah/go-exam2pdf/internal/fileutil"
	"github.com/alnah/go-exam2pdf/internal/pipeline"
	"github.com/alnah/go-exam2pdf/internal/process"
)

// pdfRenderer abstracts PDF rendering from an HTML file to enable testing without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error)
	Close() error
}

// Compile-time interface check.
var _ pdfRenderer = (*rodRenderer)(nil)

// pdfOptions holds options for PDF generation.
type pdfOptions struct {
	Page   PageSettings
	Footer Footer
}

// Paper dimensions in inches, portrait.
var paperInches = map[string][2]float64{
	PageSizeA4:     {8.27, 11.69},
	PageSizeLetter: {8.5, 11},
	PageSizeLegal:  {8.5, 14},
}

const (
	pointsPerInch = 72.0
	// footerInches is added to the bottom margin when a footer is printed.
	footerInches = 0.25
)

// rodRenderer implements pdfRenderer using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodRenderer struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration
}

// newRodRenderer creates a rodRenderer with the given timeout.
func newRodRenderer(timeout time.Duration) *rodRenderer {
	return &rodRenderer{timeout: timeout}
}

// ensureBrowser lazily connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.launcher = l

	r.browser = rod.New().ControlURL(u)
	if err := r.browser.Connect(); err != nil {
		r.browser = nil
		r.kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return nil
}

// Close releases browser resources. Chrome helper processes are killed with
// their process group.
func (r *rodRenderer) Close() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	r.kill()
	return err
}

func (r *rodRenderer) kill() {
	if r.launcher == nil {
		return
	}
	if pid := r.launcher.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	r.launcher.Kill()
	r.launcher = nil
}

// RenderFromFile opens a local HTML file in headless Chrome and renders it to PDF.
// Returns explicit errors instead of panicking when browser operations fail.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	// Wait for page to load with timeout from context or default
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(buildPDFOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}

	return pdfBuf, nil
}

// buildPDFOptions constructs proto.PagePrintToPDF from page settings and footer.
func buildPDFOptions(opts *pdfOptions) *proto.PagePrintToPDF {
	page := DefaultPageSettings()
	var footer Footer
	if opts != nil {
		page = &opts.Page
		footer = opts.Footer
	}

	dims, ok := paperInches[page.Size]
	if !ok {
		dims = paperInches[PageSizeA4]
	}
	margin := page.Margin / pointsPerInch
	marginBottom := margin
	hasFooter := footer.ShowPageNumber || footer.Text != ""
	if hasFooter {
		marginBottom += footerInches
	}

	pdfOpts := &proto.PagePrintToPDF{
		Landscape:       page.Orientation == OrientationLandscape,
		PaperWidth:      floatPtr(dims[0]),
		PaperHeight:     floatPtr(dims[1]),
		MarginTop:       floatPtr(margin),
		MarginBottom:    floatPtr(marginBottom),
		MarginLeft:      floatPtr(margin),
		MarginRight:     floatPtr(margin),
		PrintBackground: true,
	}

	if hasFooter {
		pdfOpts.DisplayHeaderFooter = true
		pdfOpts.HeaderTemplate = "<span></span>" // Empty header
		pdfOpts.FooterTemplate = buildFooterTemplate(footer)
	}

	return pdfOpts
}

// buildFooterTemplate generates an HTML template for Chrome's native footer:
// the optional text, then "Page N", centered.
func buildFooterTemplate(f Footer) string {
	content := html.EscapeString(f.Text)
	if f.ShowPageNumber {
		if content != "" {
			content += " - "
		}
		content += `Page <span class="pageNumber"></span>`
	}
	if content == "" {
		return "<span></span>"
	}
	return fmt.Sprintf(`<div style="font-size: 9px; font-family: 'Times New Roman', Times, serif; width: 100%%; text-align: center;">%s</div>`, content)
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

// chromeEngine renders the exam template to HTML and prints it with headless Chrome.
type chromeEngine struct {
	log      *zap.Logger
	style    template.CSS
	document *pipeline.DocumentRenderer
	renderer pdfRenderer
}

// newChromeEngine loads the named style and the exam template.
// An empty style selects the default one.
func newChromeEngine(style string, timeout time.Duration, log *zap.Logger) (*chromeEngine, error) {
	loader := assets.NewEmbeddedLoader()
	if style == "" {
		style = assets.DefaultStyleName
	}
	css, err := loader.LoadStyle(style)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStyleNotFound, err)
	}
	tmpl, err := loader.LoadTemplate(assets.DefaultTemplateName)
	if err != nil {
		return nil, fmt.Errorf("loading exam template: %w", err)
	}
	document, err := pipeline.NewDocumentRenderer(tmpl)
	if err != nil {
		return nil, err
	}
	return &chromeEngine{
		log:      log,
		style:    pipeline.Stylesheet(css),
		document: document,
		renderer: newRodRenderer(timeout),
	}, nil
}

// Render builds the HTML document, writes it to a temp file and prints it.
// The HTML is kept on doc for Result.HTML.
func (e *chromeEngine) Render(ctx context.Context, doc *document) ([]byte, error) {
	data := toDocumentData(doc)
	data.Style = e.style
	htmlContent, err := e.document.Render(ctx, data)
	if err != nil {
		return nil, err
	}
	doc.html = htmlContent

	tmpPath, cleanup, err := fileutil.WriteTempFile(htmlContent, "html")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	defer cleanup()

	e.log.Debug("printing exam document", zap.String("file", tmpPath))
	return e.renderer.RenderFromFile(ctx, tmpPath, &pdfOptions{Page: doc.Page, Footer: doc.Footer})
}

// Close releases the browser.
func (e *chromeEngine) Close() error {
	if e.renderer != nil {
		return e.renderer.Close()
	}
	return nil
}

// toDocumentData converts laid-out blocks into template data.
func toDocumentData(doc *document) *pipeline.DocumentData {
	data := &pipeline.DocumentData{
		Questions: make([]pipeline.QuestionData, 0, len(doc.Blocks)),
	}
	if h := doc.Header; h != nil {
		data.Title = h.Title
		data.Header = &pipeline.HeaderData{
			Institute: h.Institute,
			Title:     h.Title,
			Motto:     h.Motto,
			// #nosec G203 -- produced by goldmark without raw HTML passthrough
			Instructions: template.HTML(doc.InstructionsHTML),
		}
	}

	for _, b := range doc.Blocks {
		q := pipeline.QuestionData{Number: b.Number, Title: b.Title}
		for _, img := range b.TitleImages {
			q.Images = append(q.Images, toImageData(img))
		}
		for _, opt := range b.Options {
			o := pipeline.OptionData{Label: opt.Label, Text: opt.Text}
			if opt.Image != nil {
				img := toImageData(opt.Image)
				o.Image = &img
			}
			q.Options = append(q.Options, o)
		}
		data.Questions = append(data.Questions, q)
	}
	return data
}

func toImageData(img *layoutImage) pipeline.ImageData {
	return pipeline.ImageData{
		// #nosec G203 -- base64 of a re-encoded PNG
		Src:    template.URL(img.dataURI()),
		Width:  img.Width,
		Height: img.Height,
	}
}
