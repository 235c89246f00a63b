// Package pipeline builds the HTML side of an exam document:
//   - Markdown instructions to HTML via Goldmark, with syntax highlighting
//   - plain-text paragraphs from an HTML fragment, for the native engine
//   - the exam document itself, rendered from an html/template with the
//     selected stylesheet in its <head>
//
// PDF generation is handled by the root exam2pdf package.
package pipeline
