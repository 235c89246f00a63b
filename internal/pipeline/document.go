package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrDocumentRender indicates the exam template could not be executed.
var ErrDocumentRender = errors.New("exam document rendering failed")

// ImageData is an inline image with its display size in points.
type ImageData struct {
	Src    template.URL // data URI
	Width  float64
	Height float64
}

// OptionData is one lettered answer. Image is nil for text answers.
type OptionData struct {
	Label string
	Text  string
	Image *ImageData
}

// QuestionData is one numbered question.
type QuestionData struct {
	Number  int
	Title   string
	Images  []ImageData
	Options []OptionData
}

// HeaderData is printed once, above the first question.
type HeaderData struct {
	Institute    string
	Title        string
	Motto        string
	Instructions template.HTML // trusted: produced by GoldmarkConverter
}

// DocumentData is the root value passed to the exam template.
type DocumentData struct {
	Title     string
	Style     template.CSS // built by Stylesheet
	Header    *HeaderData
	Questions []QuestionData
}

// Stylesheet marks css as trusted for the <style> element of the exam
// template. "</" is escaped so the sheet cannot close the element early.
func Stylesheet(css string) template.CSS {
	return template.CSS(strings.ReplaceAll(css, "</", `<\/`))
}

// DocumentRenderer renders exam documents from a parsed template.
type DocumentRenderer struct {
	tmpl *template.Template
}

// NewDocumentRenderer parses the exam template.
func NewDocumentRenderer(tmplContent string) (*DocumentRenderer, error) {
	tmpl, err := template.New("exam").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing exam template: %w", err)
	}
	return &DocumentRenderer{tmpl: tmpl}, nil
}

// Render executes the template into a complete HTML document.
func (r *DocumentRenderer) Render(ctx context.Context, data *DocumentData) (string, error) {
	if data == nil {
		return "", fmt.Errorf("%w: nil document", ErrDocumentRender)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDocumentRender, err)
	}
	return buf.String(), nil
}
