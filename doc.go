// Package exam2pdf renders multiple-choice exam questions to PDF.
//
// # Quick Start
//
// Parse the questions payload, create a generator, and close it when done:
//
//	questions, err := exam2pdf.ParseQuestions(payload)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	gen, err := exam2pdf.NewGenerator()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gen.Close()
//
//	err = gen.GenerateFile(ctx, exam2pdf.Input{Questions: questions}, "exam.pdf")
//
// Fetching the payload from the exam API lives in internal/examapi and is
// wired up by cmd/exam2pdf.
//
// # Question Fields
//
// Each record carries a title and four answers. A field that starts with the
// literal "<html>" holds markup: answers resolve to their first inline
// base64 image (see ExtractBase64Image), titles keep their text and images
// (see ExtractContent). Other fields are cleaned with CleanText. Image sizes
// are reduced by width band (see ScaleDimensions).
//
// Options whose image cannot be decoded are dropped and counted in
// Result.Skipped instead of failing the document.
//
// # Engines
//
// EngineNative (default) lays pages out in pure Go with fpdf. EngineChrome
// renders an HTML document from an embedded template and style and prints it
// with headless Chrome (go-rod):
//
//	gen, err := exam2pdf.NewGenerator(
//	    exam2pdf.WithEngine(exam2pdf.EngineChrome),
//	    exam2pdf.WithStyle("compact"),
//	    exam2pdf.WithTimeout(2 * time.Minute),
//	    exam2pdf.WithLogger(logger),
//	)
//
// Per-document settings are passed via Input:
//
//	result, err := gen.Generate(ctx, exam2pdf.Input{
//	    Questions: questions,
//	    Header:    &exam2pdf.Header{Institute: "Springfield", Instructions: "Answer **all** questions."},
//	    Footer:    &exam2pdf.Footer{Text: "Term 1", ShowPageNumber: true},
//	    Page:      &exam2pdf.PageSettings{Size: "letter"},
//	})
//
// # Browser Requirements
//
// Only EngineChrome needs Chrome/Chromium. The go-rod library downloads a
// managed Chromium on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package exam2pdf
