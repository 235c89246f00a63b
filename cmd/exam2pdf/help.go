package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: exam2pdf [flags]")
	fmt.Fprintln(w, "       exam2pdf <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fetch exam questions from the exam API and render them to PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  doctor     Check credentials, browser and system setup")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -o, --output <path>       Output PDF file or directory (default: session_XXXX.pdf)")
	fmt.Fprintln(w, "  -i, --input <file>        Render a saved questions JSON instead of fetching")
	fmt.Fprintln(w, "      --save-json <file>    Also write the fetched JSON to a file")
	fmt.Fprintln(w, "      --print-config        Print the resolved configuration and exit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "  -e, --engine <s>          Engine: native (default), chrome")
	fmt.Fprintln(w, "      --style <s>           Embedded CSS style for chrome: exam, compact")
	fmt.Fprintln(w, "  -t, --timeout <d>         API and browser timeout (default: 30s)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: a4, letter, legal")
	fmt.Fprintln(w, "      --orientation <s>     Orientation: portrait, landscape")
	fmt.Fprintln(w, "      --margin <f>          Margin in points (18-216)")
	fmt.Fprintln(w, "      --footer-text <s>     Text printed before the page number")
	fmt.Fprintln(w, "      --no-page-number      Hide page numbers")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
	fmt.Fprintln(w, "      --log-format <s>      Log format: console, json")
	fmt.Fprintln(w, "      --version             Show version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  EXAM2PDF_BASE_URL, EXAM2PDF_TOKEN (or BASE_URL, TOKEN)   exam API")
	fmt.Fprintln(w, "  EXAM2PDF_CONFIG, EXAM2PDF_OUTPUT, EXAM2PDF_ENGINE, EXAM2PDF_STYLE,")
	fmt.Fprintln(w, "  EXAM2PDF_PAGE_SIZE, EXAM2PDF_TIMEOUT, EXAM2PDF_LOG_LEVEL")
	fmt.Fprintln(w, "  .env.local and .env are loaded first (ENV_FILE adds another file).")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: exam2pdf doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check API credentials, Chrome availability and system setup.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json    Output results as JSON")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: exam2pdf version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: exam2pdf help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
