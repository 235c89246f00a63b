package exam2pdf

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// markupPrefix marks an answer field that carries HTML instead of plain text.
const markupPrefix = "<html>"

// mathSpanClass is the class of the span a math renderer wraps its image in.
const mathSpanClass = "mjpage"

// EmbeddedImage is an inline base64 image found in HTML.
type EmbeddedImage struct {
	Data   string // base64 payload, not decoded
	Format string // always "png"
	Width  int    // from the width attribute, in pixels
	Height int    // from the height attribute, in pixels
}

// Decode returns the raw image bytes.
func (img *EmbeddedImage) Decode() ([]byte, error) {
	if img == nil || img.Data == "" {
		return nil, ErrImageNotFound
	}
	raw, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return raw, nil
}

// DisplaySize returns the scaled size the image is laid out at.
func (img *EmbeddedImage) DisplaySize() (width, height float64) {
	return ScaleDimensions(float64(img.Width), float64(img.Height))
}

// ElementKind tags an Element.
type ElementKind int

// Element kinds.
const (
	ElementText ElementKind = iota
	ElementImage
)

func (k ElementKind) String() string {
	switch k {
	case ElementText:
		return "text"
	case ElementImage:
		return "image"
	}
	return "unknown"
}

// Element is one unit of content pulled out of an HTML fragment:
// either Text or an Image.
type Element struct {
	Kind  ElementKind
	Text  string
	Image *EmbeddedImage
}

// IsMarkup reports whether a question field holds HTML markup.
// Only the literal wrapper prefix is checked.
func IsMarkup(field string) bool {
	return strings.HasPrefix(field, markupPrefix)
}

// dimensionPattern matches the first width/height attribute pair.
var dimensionPattern = regexp.MustCompile(`width="(\d+)" height="(\d+)"`)

// ExtractBase64Image finds the first data:image/...;base64 marker in html.
// The payload ends at the next double quote. Width and height come from the
// first width="N" height="M" pair anywhere in html.
// Returns false if there is no marker or no dimension pair.
func ExtractBase64Image(html string) (*EmbeddedImage, bool) {
	start := strings.Index(html, "data:image/")
	if start == -1 {
		return nil, false
	}

	rel := strings.Index(html[start:], "base64,")
	if rel == -1 {
		return nil, false
	}
	payloadStart := start + rel + len("base64,")

	payloadEnd := strings.IndexByte(html[payloadStart:], '"')
	var payload string
	if payloadEnd == -1 {
		payload = html[payloadStart:]
	} else {
		payload = html[payloadStart : payloadStart+payloadEnd]
	}

	m := dimensionPattern.FindStringSubmatch(html)
	if m == nil {
		return nil, false
	}
	// \d+ guarantees digits; overflow is the only failure.
	width, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, false
	}
	height, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, false
	}

	return &EmbeddedImage{
		Data:   payload,
		Format: "png",
		Width:  width,
		Height: height,
	}, true
}

// ExtractContent walks p, img and span elements of an HTML fragment in
// document order. Images (direct, or nested in a math span) become image
// elements; everything else becomes trimmed text, skipped when empty.
func ExtractContent(html string) ([]Element, error) {
	if html == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTMLParse, err)
	}

	var elements []Element
	doc.Find("p, img, span").Each(func(_ int, s *goquery.Selection) {
		switch {
		case goquery.NodeName(s) == "img":
			if img, ok := imageFromSelection(s); ok {
				elements = append(elements, Element{Kind: ElementImage, Image: img})
			}
		case goquery.NodeName(s) == "span" && isMathSpan(s):
			nested := s.Find("img").First()
			if nested.Length() == 0 {
				return
			}
			if img, ok := imageFromSelection(nested); ok {
				elements = append(elements, Element{Kind: ElementImage, Image: img})
			}
		default:
			if text := strings.TrimSpace(s.Text()); text != "" {
				elements = append(elements, Element{Kind: ElementText, Text: text})
			}
		}
	})

	return elements, nil
}

// imageFromSelection serializes an img node and extracts its payload.
func imageFromSelection(s *goquery.Selection) (*EmbeddedImage, bool) {
	outer, err := goquery.OuterHtml(s)
	if err != nil {
		return nil, false
	}
	return ExtractBase64Image(outer)
}

// isMathSpan reports whether the class list is exactly the math renderer's.
func isMathSpan(s *goquery.Selection) bool {
	class, ok := s.Attr("class")
	if !ok {
		return false
	}
	fields := strings.Fields(class)
	return len(fields) == 1 && fields[0] == mathSpanClass
}

var tagPattern = regexp.MustCompile(`<.*?>`)

// CleanText strips tags and the TeX inline delimiters \( \) from a field
// and trims it. &ndash; becomes a plain hyphen.
func CleanText(raw string) string {
	if raw == "" {
		return ""
	}
	text := tagPattern.ReplaceAllString(raw, "")
	text = strings.ReplaceAll(text, "&ndash;", "-")
	text = strings.ReplaceAll(text, `\(`, "")
	text = strings.ReplaceAll(text, `\)`, "")
	return strings.TrimSpace(text)
}
