package exam2pdf

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/alnah/go-exam2pdf/internal/pipeline"
)

// Native layout metrics, in points.
const (
	headerInset   = 54.0 // extra top margin above the header block
	footerReserve = 18.0 // extra bottom margin kept free for the footer
	footerOffset  = 30.0 // footer baseline distance from the page bottom
	optionIndent  = 20.0
	cellPadding   = 3.0
	labelGap      = 4.0
	lineHeight    = 14.0
)

// fpdfSizes maps page sizes to fpdf size names.
var fpdfSizes = map[string]string{
	PageSizeA4:     "A4",
	PageSizeLetter: "Letter",
	PageSizeLegal:  "Legal",
}

// nativeEngine lays the exam out directly with fpdf. It holds no resources.
type nativeEngine struct {
	log *zap.Logger
}

func newNativeEngine(log *zap.Logger) *nativeEngine {
	return &nativeEngine{log: log}
}

// Close is a no-op.
func (e *nativeEngine) Close() error { return nil }

// Render draws the header, every question block and a page footer.
func (e *nativeEngine) Render(ctx context.Context, doc *document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	orientation := "P"
	if doc.Page.Orientation == OrientationLandscape {
		orientation = "L"
	}
	size, ok := fpdfSizes[doc.Page.Size]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPageSize, doc.Page.Size)
	}

	pdf := fpdf.New(orientation, "pt", size, "")
	registerFonts(pdf)
	if pdf.Err() {
		return nil, fmt.Errorf("%w: font setup: %v", ErrPDFGeneration, pdf.Error())
	}
	margin := doc.Page.Margin
	pdf.SetMargins(margin, margin+headerInset, margin)
	pdf.SetAutoPageBreak(true, margin+footerReserve)
	pdf.SetCellMargin(0)

	w := &nativeWriter{
		pdf:    pdf,
		log:    e.log,
		glyphs: newGlyphChecker(),
	}
	w.checkGlyphs(zap.String("section", "footer"), doc.Footer.Text)
	pdf.SetFooterFunc(func() { w.footer(doc.Footer) })
	pdf.AddPage()

	if err := w.header(doc.Header, doc.InstructionsHTML); err != nil {
		return nil, err
	}

	for i := range doc.Blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w.question(&doc.Blocks[i])
		if pdf.Err() {
			return nil, fmt.Errorf("%w: question %d: %v", ErrPDFGeneration, doc.Blocks[i].Number, pdf.Error())
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return buf.Bytes(), nil
}

// nativeWriter draws into one fpdf document.
type nativeWriter struct {
	pdf    *fpdf.Fpdf
	log    *zap.Logger
	glyphs *glyphChecker
}

// checkGlyphs logs the runes of texts the font cannot draw. They print blank.
func (w *nativeWriter) checkGlyphs(where zap.Field, texts ...string) {
	missing := w.glyphs.missing(texts...)
	if len(missing) == 0 {
		return
	}
	w.log.Warn("characters missing from the PDF font",
		where, zap.String("runes", string(missing)), zap.Int("count", len(missing)))
}

func (w *nativeWriter) header(h *Header, instructions string) error {
	pdf := w.pdf

	if h.Institute != "" {
		pdf.SetFont(fontFamily, "B", 16)
		pdf.MultiCell(0, 20, fontSafe(h.Institute), "", "L", false)
		pdf.Ln(6)
	}
	if h.Title != "" {
		pdf.SetFont(fontFamily, "", 12)
		pdf.MultiCell(0, lineHeight, fontSafe(h.Title), "", "L", false)
		pdf.Ln(20)
	}
	if h.Motto != "" {
		pdf.SetFont(fontFamily, "B", 12)
		pdf.MultiCell(0, lineHeight, fontSafe(h.Motto), "", "C", false)
		pdf.Ln(12)
	}

	paragraphs, err := pipeline.Paragraphs(instructions)
	if err != nil {
		return fmt.Errorf("%w: instructions: %v", ErrHTMLParse, err)
	}
	w.checkGlyphs(zap.String("section", "header"),
		append([]string{h.Institute, h.Title, h.Motto}, paragraphs...)...)
	if len(paragraphs) > 0 {
		pdf.SetFont(fontFamily, "", 10)
		for _, p := range paragraphs {
			pdf.MultiCell(0, 12, fontSafe(p), "", "C", false)
		}
		pdf.Ln(20)
	}
	return nil
}

func (w *nativeWriter) footer(f Footer) {
	text := f.Text
	if f.ShowPageNumber {
		page := "Page " + strconv.Itoa(w.pdf.PageNo())
		if text != "" {
			text += " - " + page
		} else {
			text = page
		}
	}
	if text == "" {
		return
	}
	w.pdf.SetY(-footerOffset)
	w.pdf.SetFont(fontFamily, "", 9)
	w.pdf.CellFormat(0, 10, fontSafe(text), "", 0, "C", false, 0, "")
}

func (w *nativeWriter) question(b *questionBlock) {
	pdf := w.pdf
	left, _, _, _ := pdf.GetMargins()

	texts := []string{b.Title}
	for _, opt := range b.Options {
		texts = append(texts, opt.Text)
	}
	w.checkGlyphs(zap.Int("question", b.Number), texts...)

	pdf.SetFont(fontFamily, "", 11)
	pdf.SetX(left)
	pdf.MultiCell(0, lineHeight, fontSafe(strconv.Itoa(b.Number)+") "+b.Title), "", "L", false)
	pdf.Ln(6)

	for _, img := range b.TitleImages {
		if !w.register(img) {
			continue
		}
		iw, ih := w.fit(img, w.contentWidth()-optionIndent)
		pdf.ImageOptions(img.Name, left+optionIndent, -1, iw, ih, true, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		pdf.Ln(4)
	}

	if len(b.Options) > 0 {
		w.optionRow(b.Options)
	}
	pdf.Ln(8)
}

// optionRow draws the options side by side in equal columns, each vertically
// centered in the row.
func (w *nativeWriter) optionRow(options []optionCell) {
	pdf := w.pdf
	left, _, _, bottom := pdf.GetMargins()
	_, pageH := pdf.GetPageSize()

	pdf.SetFont(fontFamily, "", 11)
	colW := (w.contentWidth() - optionIndent) / float64(len(options))
	inner := colW - 2*cellPadding

	type cell struct {
		lines  []string
		image  *layoutImage
		labelW float64
		imgW   float64
		imgH   float64
		height float64
	}
	cells := make([]cell, len(options))
	rowH := lineHeight
	for i, opt := range options {
		c := cell{}
		if opt.Image != nil && w.register(opt.Image) {
			c.image = opt.Image
			c.labelW = pdf.GetStringWidth(opt.Label) + labelGap
			c.imgW, c.imgH = w.fit(opt.Image, inner-c.labelW)
			c.height = max(lineHeight, c.imgH)
		} else {
			text := opt.Label + " " + opt.Text
			if opt.Image != nil {
				text = opt.Label
			}
			c.lines = pdf.SplitText(fontSafe(text), inner)
			c.height = float64(max(len(c.lines), 1)) * lineHeight
		}
		cells[i] = c
		rowH = max(rowH, c.height)
	}
	rowH += 2 * cellPadding

	y := pdf.GetY()
	if y+rowH > pageH-bottom {
		pdf.AddPage()
		pdf.SetFont(fontFamily, "", 11)
		y = pdf.GetY()
	}

	for i, c := range cells {
		x := left + optionIndent + float64(i)*colW + cellPadding
		top := y + cellPadding + (rowH-2*cellPadding-c.height)/2

		if c.image != nil {
			pdf.SetXY(x, top+(c.height-lineHeight)/2)
			pdf.CellFormat(c.labelW, lineHeight, options[i].Label, "", 0, "L", false, 0, "")
			pdf.ImageOptions(c.image.Name, x+c.labelW, top+(c.height-c.imgH)/2, c.imgW, c.imgH,
				false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
			continue
		}
		for j, line := range c.lines {
			pdf.SetXY(x, top+float64(j)*lineHeight)
			pdf.CellFormat(inner, lineHeight, line, "", 0, "L", false, 0, "")
		}
	}
	pdf.SetXY(left, y+rowH)
}

// register adds an image to the document once. A PNG fpdf refuses is logged
// and reported as false, leaving the document usable.
func (w *nativeWriter) register(img *layoutImage) bool {
	if info := w.pdf.GetImageInfo(img.Name); info != nil {
		return true
	}
	w.pdf.RegisterImageOptionsReader(img.Name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(img.PNG))
	if w.pdf.Err() {
		w.log.Warn("image not embedded", zap.String("image", img.Name), zap.Error(w.pdf.Error()))
		w.pdf.ClearError()
		return false
	}
	return true
}

// fit shrinks an image to maxW, keeping its aspect ratio.
func (w *nativeWriter) fit(img *layoutImage, maxW float64) (float64, float64) {
	iw, ih := img.Width, img.Height
	if iw <= 0 || ih <= 0 {
		iw, ih = lineHeight, lineHeight
	}
	if maxW > 0 && iw > maxW {
		ih *= maxW / iw
		iw = maxW
	}
	return iw, ih
}

func (w *nativeWriter) contentWidth() float64 {
	pageW, _ := w.pdf.GetPageSize()
	left, _, right, _ := w.pdf.GetMargins()
	return pageW - left - right
}
