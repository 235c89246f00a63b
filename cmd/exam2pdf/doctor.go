package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	exam2pdf "github.com/alnah/go-exam2pdf"
	"github.com/alnah/go-exam2pdf/internal/fileutil"
)

// doctorStatus summarizes a diagnostic run.
type doctorStatus string

const (
	statusReady    doctorStatus = "ready"
	statusWarnings doctorStatus = "warnings"
	statusErrors   doctorStatus = "errors"
)

// doctorResult is what `exam2pdf doctor --json` prints.
type doctorResult struct {
	Status   doctorStatus `json:"status"`
	API      apiInfo      `json:"api"`
	Chrome   chromeInfo   `json:"chrome"`
	Env      envInfo      `json:"environment"`
	System   systemInfo   `json:"system"`
	Warnings []string     `json:"warnings,omitempty"`
	Errors   []string     `json:"errors,omitempty"`
}

// apiInfo describes the exam API settings. The token value is never kept.
type apiInfo struct {
	BaseURL  string `json:"base_url,omitempty"`
	HasToken bool   `json:"has_token"`
	Timeout  string `json:"timeout,omitempty"`
}

type chromeInfo struct {
	Required bool   `json:"required"` // engine is chrome
	Found    bool   `json:"found"`
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
	Sandbox  bool   `json:"sandbox"`
}

type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Engine        string `json:"engine"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"` // signal that matched
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

type systemInfo struct {
	TempWritable bool   `json:"temp_writable"`
	OutputDir    string `json:"output_dir,omitempty"`
	OutputExists bool   `json:"output_dir_exists"`
}

func (r *doctorResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *doctorResult) failf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// runDoctorCmd runs the diagnostics and prints them.
// Warnings alone still exit 0; any error exits 1.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOutput := fs.Bool("json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printDoctorUsage(env.Stdout)
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "doctor: %v\n", err)
		printDoctorUsage(env.Stderr)
		return ExitUsage
	}

	result := runDoctor(loadEnvConfig())

	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor checks the environment the generate command would run in.
func runDoctor(envCfg *envConfig) *doctorResult {
	engine, engineErr := exam2pdf.ParseEngine(envCfg.Engine)
	result := &doctorResult{
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			Engine:     string(engine),
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}
	if engineErr != nil {
		result.Errors = append(result.Errors, engineErr.Error())
	}

	checkAPI(result, envCfg)
	checkChrome(result, engine == exam2pdf.EngineChrome)
	// Sandbox advice depends on Chrome.Required, so this runs after checkChrome.
	checkEnvironment(result)
	checkSystem(result, envCfg.Output)

	switch {
	case len(result.Errors) > 0:
		result.Status = statusErrors
	case len(result.Warnings) > 0:
		result.Status = statusWarnings
	default:
		result.Status = statusReady
	}
	return result
}

// checkAPI validates the exam API settings. Missing credentials are only
// warnings since --input needs neither; malformed values are errors.
func checkAPI(result *doctorResult, envCfg *envConfig) {
	result.API.BaseURL = envCfg.BaseURL
	result.API.HasToken = envCfg.Token != ""
	result.API.Timeout = envCfg.Timeout

	if envCfg.BaseURL == "" {
		result.warnf("EXAM2PDF_BASE_URL not set; only --input files can be rendered")
	} else if u, err := url.Parse(envCfg.BaseURL); err != nil || u.Host == "" ||
		(u.Scheme != "http" && u.Scheme != "https") {
		result.failf("EXAM2PDF_BASE_URL %q is not an http(s) URL", envCfg.BaseURL)
	}
	if envCfg.Token == "" {
		result.warnf("EXAM2PDF_TOKEN not set; the exam API will reject requests")
	}
	if envCfg.Timeout != "" {
		if d, err := time.ParseDuration(envCfg.Timeout); err != nil || d <= 0 {
			result.failf("EXAM2PDF_TIMEOUT %q is not a positive duration (e.g. 30s)", envCfg.Timeout)
		}
	}
}

// checkChrome locates a browser. ROD_BROWSER_BIN wins over rod's lookup.
// Problems are errors only when the chrome engine is selected.
func checkChrome(result *doctorResult, required bool) {
	result.Chrome.Required = required
	problem := func(msg string) {
		if required {
			result.failf("%s", msg)
			return
		}
		result.warnf("%s (only needed for --engine chrome)", msg)
	}

	path := result.Env.BrowserBin
	if path == "" {
		var ok bool
		if path, ok = launcher.LookPath(); !ok {
			problem("Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}
	if _, err := os.Stat(path); err != nil {
		problem("Chrome not found at " + path)
		return
	}
	result.Chrome.Found = true
	result.Chrome.Path = path

	out, err := exec.Command(path, "--version").Output() // #nosec G204 -- path from rod lookup or ROD_BROWSER_BIN
	if err != nil {
		result.warnf("Could not get Chrome version: %v", err)
	} else {
		result.Chrome.Version = strings.TrimSpace(string(out))
	}
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

var ciEnvVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// checkEnvironment flags containers and CI runners, where Chrome usually
// needs ROD_NO_SANDBOX=1.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()
	for _, name := range ciEnvVars {
		if os.Getenv(name) != "" {
			result.Env.CI = true
			break
		}
	}

	sandboxed := result.Env.NoSandbox != "1"
	if result.Chrome.Required && sandboxed && (result.Env.Container || result.Env.CI) {
		result.warnf("Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer reports whether we run in a container and which signal said so.
func isContainer() (bool, string) {
	if os.Getenv("EXAM2PDF_CONTAINER") == "1" {
		return true, "EXAM2PDF_CONTAINER=1"
	}
	if fileutil.FileExists("/.dockerenv") {
		return true, "/.dockerenv"
	}
	// Set by podman and systemd-nspawn.
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem makes sure the temp directory accepts files (the chrome engine
// prints from one) and looks at the EXAM2PDF_OUTPUT directory, if set.
func checkSystem(result *doctorResult, output string) {
	tmp := os.TempDir()
	checkFile := filepath.Join(tmp, "exam2pdf-doctor-check")
	if err := os.WriteFile(checkFile, []byte("ok"), 0o600); err != nil {
		result.failf("Temp directory not writable: %s", tmp)
	} else {
		_ = os.Remove(checkFile)
		result.System.TempWritable = true
	}

	if output == "" {
		return
	}
	// A directory is used as is; anything else is a file path.
	dir := output
	if !fileutil.DirExists(dir) {
		dir = filepath.Dir(output)
	}
	result.System.OutputDir = dir
	result.System.OutputExists = fileutil.DirExists(dir)
	if !result.System.OutputExists {
		result.warnf("Output directory %s does not exist yet; it will be created", dir)
	}
}

// checkLine writes one indented "[LEVEL] text" line.
func checkLine(w io.Writer, level, format string, args ...any) {
	fmt.Fprintf(w, "  [%s] %s\n", level, fmt.Sprintf(format, args...))
}

// printDoctorResult writes the human-readable report.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprint(w, "exam2pdf doctor\n\n")

	fmt.Fprintln(w, "Exam API")
	if r.API.BaseURL != "" {
		checkLine(w, "OK", "Base URL: %s", r.API.BaseURL)
	} else {
		checkLine(w, "WARN", "Base URL: not set")
	}
	if r.API.HasToken {
		checkLine(w, "OK", "Token: set")
	} else {
		checkLine(w, "WARN", "Token: not set")
	}
	if r.API.Timeout != "" {
		checkLine(w, "OK", "Timeout: %s", r.API.Timeout)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	switch {
	case r.Chrome.Found:
		checkLine(w, "OK", "Found at %s", r.Chrome.Path)
		if r.Chrome.Version != "" {
			checkLine(w, "OK", "Version: %s", r.Chrome.Version)
		}
		sandbox := "enabled"
		if !r.Chrome.Sandbox {
			sandbox = "disabled (ROD_NO_SANDBOX=1)"
		}
		checkLine(w, "OK", "Sandbox: %s", sandbox)
	case r.Chrome.Required:
		checkLine(w, "ERROR", "Not found")
	default:
		checkLine(w, "WARN", "Not found (native engine does not need it)")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	checkLine(w, "OK", "Platform: %s/%s", r.Env.OS, r.Env.Arch)
	if r.Env.Engine != "" {
		checkLine(w, "OK", "Engine: %s", r.Env.Engine)
	}
	if r.Env.Container {
		checkLine(w, "OK", "Container: detected (%s)", r.Env.ContainerHint)
	}
	if r.Env.CI {
		checkLine(w, "OK", "CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		checkLine(w, "OK", "Temp directory: writable")
	} else {
		checkLine(w, "ERROR", "Temp directory: not writable")
	}
	switch {
	case r.System.OutputDir == "":
	case r.System.OutputExists:
		checkLine(w, "OK", "Output directory: %s", r.System.OutputDir)
	default:
		checkLine(w, "WARN", "Output directory: %s (missing)", r.System.OutputDir)
	}
	fmt.Fprintln(w)

	for _, group := range []struct {
		title, level string
		msgs         []string
	}{
		{"Warnings:", "WARN", r.Warnings},
		{"Errors:", "ERROR", r.Errors},
	} {
		if len(group.msgs) == 0 {
			continue
		}
		fmt.Fprintln(w, group.title)
		for _, msg := range group.msgs {
			checkLine(w, group.level, "%s", msg)
		}
		fmt.Fprintln(w)
	}

	// Status line last so scripts can grep it.
	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to generate")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
