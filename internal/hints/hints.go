// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"net/http"
	"os"
	"strings"

	"github.com/alnah/go-exam2pdf/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	hints = append(hints, "or use --engine native, which needs no browser")

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing the timeout for slow APIs or
// large exams.
func ForTimeout() string {
	return format("raise the limit with --timeout or EXAM2PDF_TIMEOUT")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-exam2pdf/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-exam2pdf") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForMissingCredentials names the variables that locate the exam API.
func ForMissingCredentials() string {
	return format("set EXAM2PDF_BASE_URL and EXAM2PDF_TOKEN (or BASE_URL and TOKEN) in the environment or a .env file, or pass --input questions.json")
}

// ForStatus returns a hint for an HTTP status returned by the exam API.
func ForStatus(code int) string {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return format("the API rejected the token; check EXAM2PDF_TOKEN")
	case http.StatusNotFound:
		return format("endpoint not found; EXAM2PDF_BASE_URL should end before /mock-test")
	}
	if code >= http.StatusInternalServerError {
		return format("the exam API failed; try again later")
	}
	return ""
}

// ForInvalidJSON points at the flag that saves the raw payload for inspection.
func ForInvalidJSON() string {
	return format("inspect the payload with --save-json questions.json")
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForStyleNotFound returns hints for style not found errors.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
