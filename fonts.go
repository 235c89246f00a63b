package exam2pdf

import (
	"sync"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

// fontFamily is the UTF-8 family the native engine writes with.
const fontFamily = "Go"

// maxFontRune is the last code point fpdf keeps widths for.
const maxFontRune = 0xFFFF

// fontFaces are the styles registered with every native document.
var fontFaces = []struct {
	style string
	ttf   []byte
}{
	{"", goregular.TTF},
	{"B", gobold.TTF},
}

// registerFonts adds the Go font family to pdf as UTF-8 fonts.
func registerFonts(pdf *fpdf.Fpdf) {
	for _, face := range fontFaces {
		pdf.AddUTF8FontFromBytes(fontFamily, face.style, face.ttf)
	}
}

// coverageFont answers glyph lookups. Bold covers the same code points.
var coverageFont = sync.OnceValues(func() (*sfnt.Font, error) {
	return sfnt.Parse(goregular.TTF)
})

// glyphChecker finds runes the font cannot draw.
type glyphChecker struct {
	font *sfnt.Font
	buf  sfnt.Buffer
	seen map[rune]bool // rune -> drawable
}

func newGlyphChecker() *glyphChecker {
	f, _ := coverageFont() // nil on error: every non-ASCII rune is reported
	return &glyphChecker{font: f, seen: make(map[rune]bool)}
}

// missing returns the distinct runes of texts with no glyph, in order of
// first appearance. ASCII is always drawable.
func (c *glyphChecker) missing(texts ...string) []rune {
	var out []rune
	reported := make(map[rune]bool)
	for _, s := range texts {
		for _, r := range s {
			if r < 0x80 || reported[r] {
				continue
			}
			if !c.drawable(r) {
				reported[r] = true
				out = append(out, r)
			}
		}
	}
	return out
}

func (c *glyphChecker) drawable(r rune) bool {
	if ok, cached := c.seen[r]; cached {
		return ok
	}
	ok := false
	if r <= maxFontRune && c.font != nil {
		idx, err := c.font.GlyphIndex(&c.buf, r)
		ok = err == nil && idx != 0
	}
	c.seen[r] = ok
	return ok
}

// fontSafe replaces code points fpdf cannot measure with '?'.
func fontSafe(s string) string {
	for _, r := range s {
		if r > maxFontRune {
			return replaceWide(s)
		}
	}
	return s
}

func replaceWide(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r > maxFontRune {
			out[i] = '?'
		}
	}
	return string(out)
}
