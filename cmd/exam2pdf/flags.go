package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrUsage marks invalid command-line usage.
var ErrUsage = errors.New("invalid usage")

// pageFlags holds page layout flags.
type pageFlags struct {
	size        string
	orientation string
	margin      float64
	marginSet   bool // --margin given, even as 0
}

// footerFlags holds footer flags.
type footerFlags struct {
	text         string
	noPageNumber bool
}

// cliFlags holds every flag of the generate command.
type cliFlags struct {
	config      string
	output      string
	input       string
	saveJSON    string
	printConfig bool
	engine      string
	style       string
	timeout     string
	page        pageFlags
	footer      footerFlags
	quiet       bool
	verbose     bool
	logFormat   string
	version     bool
	help        bool
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: a4, letter, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in points (18-216)")
}

// addFooterFlags adds footer flags to a FlagSet.
func addFooterFlags(fs *flag.FlagSet, f *footerFlags) {
	fs.StringVar(&f.text, "footer-text", "", "text printed before the page number")
	fs.BoolVar(&f.noPageNumber, "no-page-number", false, "hide page numbers")
}

// parseFlags parses the generate command flags. Positional arguments are
// rejected.
func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	fs := flag.NewFlagSet("exam2pdf", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := &cliFlags{}

	// I/O
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVarP(&f.output, "output", "o", "", "output PDF file or directory")
	fs.StringVarP(&f.input, "input", "i", "", "read questions JSON from a file instead of the API")
	fs.StringVar(&f.saveJSON, "save-json", "", "also write the fetched questions JSON to this file")
	fs.BoolVar(&f.printConfig, "print-config", false, "print the resolved configuration and exit")

	// Rendering
	fs.StringVarP(&f.engine, "engine", "e", "", "render engine: native, chrome")
	fs.StringVar(&f.style, "style", "", "embedded CSS style for the chrome engine")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "API and browser timeout (e.g. 30s, 2m)")
	addPageFlags(fs, &f.page)
	addFooterFlags(fs, &f.footer)

	// Output control
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: console, json")
	fs.BoolVar(&f.version, "version", false, "show version")
	fs.BoolVarP(&f.help, "help", "h", false, "show help")

	if err := fs.Parse(args); err != nil {
		printUsage(stderr)
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	f.page.marginSet = fs.Changed("margin")
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}
	if f.quiet && f.verbose {
		return nil, fmt.Errorf("%w: --quiet and --verbose are mutually exclusive", ErrUsage)
	}
	return f, nil
}
