package exam2pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // payloads labelled png are sometimes gif
	_ "image/jpeg"
	"image/png"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// optionLetters labels the four answer slots.
const optionLetters = "abcd"

// layoutImage is an embedded image decoded and re-encoded as 8-bit PNG,
// ready for either engine.
type layoutImage struct {
	Name   string  // unique registration name
	PNG    []byte  // normalized PNG bytes
	Width  float64 // display width in points
	Height float64 // display height in points
}

// dataURI returns the image as an inline data URI.
func (img *layoutImage) dataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(img.PNG)
}

// optionCell is one lettered answer: text, or a label followed by an image.
type optionCell struct {
	Label string // "a)"
	Text  string
	Image *layoutImage
}

// questionBlock is everything printed for one question.
type questionBlock struct {
	Number      int
	Title       string
	TitleImages []*layoutImage
	Options     []optionCell
}

// layoutBuilder turns question records into printable blocks.
// Options whose image cannot be used are logged and dropped.
type layoutBuilder struct {
	log     *zap.Logger
	images  int
	skipped int
}

func (b *layoutBuilder) build(questions []Question) []questionBlock {
	blocks := make([]questionBlock, 0, len(questions))
	for i, q := range questions {
		blocks = append(blocks, b.buildQuestion(i+1, q.Data))
	}
	return blocks
}

func (b *layoutBuilder) buildQuestion(number int, data QuestionData) questionBlock {
	block := questionBlock{Number: number}

	if IsMarkup(data.Title) {
		block.Title, block.TitleImages = b.markupTitle(number, data.Title)
	} else {
		block.Title = CleanText(data.Title)
	}

	for j, answer := range data.Answers {
		label := string(optionLetters[j]) + ")"
		if !IsMarkup(answer) {
			block.Options = append(block.Options, optionCell{Label: label, Text: CleanText(answer)})
			continue
		}

		cell, ok := b.markupOption(number, label, answer)
		if !ok {
			b.skipped++
			continue
		}
		block.Options = append(block.Options, cell)
	}
	return block
}

// markupTitle keeps the text of an HTML title and collects its images.
func (b *layoutBuilder) markupTitle(number int, html string) (string, []*layoutImage) {
	text := markupText(html)
	elements, err := ExtractContent(html)
	if err != nil {
		b.log.Warn("question title not parsed, images skipped",
			zap.Int("question", number), zap.Error(err))
		return text, nil
	}

	var images []*layoutImage
	for _, el := range elements {
		if el.Kind != ElementImage {
			continue
		}
		img, err := b.prepareImage(el.Image)
		if err != nil {
			b.log.Warn("title image dropped", zap.Int("question", number), zap.Error(err))
			continue
		}
		images = append(images, img)
	}
	return text, images
}

// markupOption resolves an HTML answer: its first image when it has one,
// its text otherwise.
func (b *layoutBuilder) markupOption(number int, label, html string) (optionCell, bool) {
	embedded, found := ExtractBase64Image(html)
	if found {
		img, err := b.prepareImage(embedded)
		if err != nil {
			b.log.Warn("option dropped: image unusable",
				zap.Int("question", number), zap.String("option", label), zap.Error(err))
			return optionCell{}, false
		}
		return optionCell{Label: label, Image: img}, true
	}

	if text := markupText(html); text != "" {
		return optionCell{Label: label, Text: text}, true
	}

	b.log.Warn("option dropped: markup has no image or text",
		zap.Int("question", number), zap.String("option", label))
	return optionCell{}, false
}

// blockTag matches tags that end a line of text in the source markup.
var blockTag = regexp.MustCompile(`(?i)</?(p|div|br|li|tr|h[1-6])\b[^>]*>`)

// markupText is CleanText over the whole fragment, so text nested in inline
// elements appears once. Block boundaries become single spaces.
func markupText(html string) string {
	return strings.Join(strings.Fields(CleanText(blockTag.ReplaceAllString(html, " "))), " ")
}

// prepareImage decodes an embedded image and re-encodes it as 8-bit RGBA PNG.
// The payload is labelled png but is decoded by content, so gif and jpeg work.
func (b *layoutBuilder) prepareImage(embedded *EmbeddedImage) (*layoutImage, error) {
	raw, err := embedded.Decode()
	if err != nil {
		return nil, err
	}
	normalized, err := normalizePNG(raw)
	if err != nil {
		return nil, err
	}

	b.images++
	w, h := embedded.DisplaySize()
	return &layoutImage{
		Name:   "img" + strconv.Itoa(b.images),
		PNG:    normalized,
		Width:  w,
		Height: h,
	}, nil
}

// normalizePNG decodes any registered image format and writes a
// non-interlaced 8-bit RGBA PNG.
func normalizePNG(raw []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrImageDecode)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return buf.Bytes(), nil
}
