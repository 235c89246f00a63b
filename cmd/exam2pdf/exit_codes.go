package main

import (
	"errors"
	"os"

	exam2pdf "github.com/alnah/go-exam2pdf"
	"github.com/alnah/go-exam2pdf/internal/config"
	"github.com/alnah/go-exam2pdf/internal/examapi"
)

// Exit codes for the exam2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // PDF written
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // Unreadable input, unwritable output, malformed payload
	ExitBrowser = 4 // Browser/Chrome errors
	ExitFetch   = 5 // Exam API unreachable or refused the request
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Fetch errors (exit 5)
	if errors.Is(err, examapi.ErrRequest) ||
		errors.Is(err, examapi.ErrStatus) ||
		errors.Is(err, examapi.ErrDecode) ||
		errors.Is(err, examapi.ErrNoSession) ||
		errors.Is(err, examapi.ErrTooLarge) {
		return ExitFetch
	}

	// Browser errors (exit 4)
	if errors.Is(err, exam2pdf.ErrBrowserConnect) ||
		errors.Is(err, exam2pdf.ErrPageCreate) ||
		errors.Is(err, exam2pdf.ErrPageLoad) {
		return ExitBrowser
	}

	// I/O and payload errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrSaveJSON) ||
		errors.Is(err, exam2pdf.ErrWritePDF) ||
		errors.Is(err, exam2pdf.ErrInvalidJSON) ||
		errors.Is(err, exam2pdf.ErrInvalidQuestion) ||
		errors.Is(err, exam2pdf.ErrNoQuestions) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, examapi.ErrConfig) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, exam2pdf.ErrInvalidPageSize) ||
		errors.Is(err, exam2pdf.ErrInvalidOrientation) ||
		errors.Is(err, exam2pdf.ErrInvalidMargin) ||
		errors.Is(err, exam2pdf.ErrInvalidEngine) ||
		errors.Is(err, exam2pdf.ErrStyleNotFound) {
		return ExitUsage
	}

	return ExitGeneral
}
