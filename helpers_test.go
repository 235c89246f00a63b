package exam2pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// testPNG returns a w x h PNG filled with a gradient.
func testPNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / max(w, 1)), G: uint8(y * 255 / max(h, 1)), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}
	return buf.Bytes()
}

// imgTag wraps PNG bytes in the markup the exam API uses for equations.
func imgTag(data []byte, width, height int) string {
	return fmt.Sprintf(`<img src="data:image/png;base64,%s" width="%d" height="%d" alt="eq">`,
		base64.StdEncoding.EncodeToString(data), width, height)
}

// markupAnswer is an answer field holding an inline image.
func markupAnswer(data []byte, width, height int) string {
	return `<html><p>` + imgTag(data, width, height) + `</p></html>`
}

func textQuestion(title string, answers ...string) Question {
	var q Question
	q.Data.Title = title
	copy(q.Data.Answers[:], answers)
	return q
}
