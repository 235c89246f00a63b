package exam2pdf

import "errors"

// Sentinel errors for library operations.
var (
	ErrNoQuestions     = errors.New("no questions to render")
	ErrInvalidQuestion = errors.New("invalid question record")
	ErrInvalidJSON     = errors.New("invalid question JSON")
	ErrImageDecode     = errors.New("failed to decode embedded image")
	ErrImageNotFound   = errors.New("no embedded image found")
	ErrHTMLParse       = errors.New("failed to parse HTML content")
	ErrPDFGeneration   = errors.New("PDF generation failed")
	ErrWritePDF        = errors.New("failed to write PDF file")

	// Browser engine errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")

	// Settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")
	ErrInvalidEngine      = errors.New("invalid render engine")
	ErrStyleNotFound      = errors.New("style not found")
)
