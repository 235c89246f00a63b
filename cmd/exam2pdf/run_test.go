package main

// Notes:
// - runMain end to end with the native engine: PDFs are real but small.
// - The exam API is replaced by fakeFetcher through Environment.NewFetcher.
// - Tests use t.Setenv() (via clearExamEnv), which prevents t.Parallel().

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	exam2pdf "github.com/alnah/go-exam2pdf"
	"github.com/alnah/go-exam2pdf/internal/config"
	"github.com/alnah/go-exam2pdf/internal/examapi"
)

func assertPDFFile(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path) // #nosec G304 -- test path
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("%s is not a PDF: %q", path, data[:min(len(data), 16)])
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_Input - Rendering a saved JSON file
// ---------------------------------------------------------------------------

func TestRunMain_Input(t *testing.T) {
	clearExamEnv(t)
	dir := t.TempDir()
	input := writeFile(t, dir, "questions.json", twoQuestions)
	output := filepath.Join(dir, "exam.pdf")

	fetcher := &fakeFetcher{}
	env, stdout, stderr := testEnv(fetcher)

	code := runMain([]string{"-i", input, "-o", output}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	assertPDFFile(t, output)
	if fetcher.calls != 0 {
		t.Errorf("fetcher called %d times with --input", fetcher.calls)
	}
	if want := "PDF generated successfully: " + output; !strings.Contains(stdout.String(), want) {
		t.Errorf("stdout = %q, want %q", stdout.String(), want)
	}
}

func TestRunMain_Quiet(t *testing.T) {
	clearExamEnv(t)
	dir := t.TempDir()
	input := writeFile(t, dir, "questions.json", twoQuestions)

	env, stdout, _ := testEnv(nil)
	code := runMain([]string{"-q", "-i", input, "-o", filepath.Join(dir, "exam.pdf")}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("quiet run wrote to stdout: %q", stdout.String())
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_Fetch - Exam API path
// ---------------------------------------------------------------------------

func TestRunMain_Fetch(t *testing.T) {
	clearExamEnv(t)
	t.Setenv("EXAM2PDF_BASE_URL", "https://exam.example.com/api")
	t.Setenv("EXAM2PDF_TOKEN", "s3cret")
	dir := t.TempDir()
	output := filepath.Join(dir, "exam.pdf")
	saved := filepath.Join(dir, "saved.json")

	fetcher := &fakeFetcher{payload: []byte(twoQuestions)}
	env, _, stderr := testEnv(fetcher)
	env.Logger = zap.NewNop()

	code := runMain([]string{"-o", output, "--save-json", saved, "-t", "45s"}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}

	if fetcher.calls != 1 {
		t.Errorf("fetcher calls = %d, want 1", fetcher.calls)
	}
	if fetcher.cfg.BaseURL != "https://exam.example.com/api" || fetcher.cfg.Token != "s3cret" {
		t.Errorf("fetcher config = %+v", fetcher.cfg)
	}
	if fetcher.cfg.Timeout.String() != "45s" {
		t.Errorf("fetcher timeout = %v, want 45s", fetcher.cfg.Timeout)
	}
	if fetcher.cfg.Logger == nil {
		t.Error("fetcher logger not set")
	}
	assertPDFFile(t, output)

	data, err := os.ReadFile(saved) // #nosec G304 -- test path
	if err != nil {
		t.Fatalf("saved JSON: %v", err)
	}
	if string(data) != twoQuestions {
		t.Errorf("saved JSON differs from the fetched payload")
	}
}

func TestRunMain_FetchErrors(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		token    string
		fetcher  *fakeFetcher
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing credentials",
			fetcher:  &fakeFetcher{},
			wantCode: ExitUsage,
			wantErr:  "base URL and token are required",
		},
		{
			name:     "missing token",
			baseURL:  "https://exam.example.com",
			fetcher:  &fakeFetcher{},
			wantCode: ExitUsage,
			wantErr:  "base URL and token are required",
		},
		{
			name:     "http status",
			baseURL:  "https://exam.example.com",
			token:    "expired",
			fetcher:  &fakeFetcher{err: &examapi.StatusError{Code: 401}},
			wantCode: ExitFetch,
			wantErr:  "HTTP 401",
		},
		{
			name:     "transport",
			baseURL:  "https://exam.example.com",
			token:    "t",
			fetcher:  &fakeFetcher{err: examapi.ErrRequest},
			wantCode: ExitFetch,
			wantErr:  "request failed",
		},
		{
			name:     "invalid configuration",
			baseURL:  "https://exam.example.com",
			token:    "t",
			fetcher:  nil,
			wantCode: ExitUsage,
			wantErr:  "invalid exam API configuration",
		},
		{
			name:     "not questions",
			baseURL:  "https://exam.example.com",
			token:    "t",
			fetcher:  &fakeFetcher{payload: []byte(`{"status": "ok"}`)},
			wantCode: ExitIO,
			wantErr:  "no \"data\" or \"questions\" array",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearExamEnv(t)
			t.Setenv("EXAM2PDF_BASE_URL", tt.baseURL)
			t.Setenv("EXAM2PDF_TOKEN", tt.token)

			env, _, stderr := testEnv(tt.fetcher)
			env.Logger = zap.NewNop()
			code := runMain([]string{"-o", filepath.Join(t.TempDir(), "exam.pdf")}, env)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(stderr.String(), tt.wantErr) {
				t.Errorf("stderr = %q, want substring %q", stderr.String(), tt.wantErr)
			}
		})
	}
}

func TestRunMain_MissingCredentialsHint(t *testing.T) {
	clearExamEnv(t)
	env, _, stderr := testEnv(&fakeFetcher{})

	runMain([]string{"-o", filepath.Join(t.TempDir(), "exam.pdf")}, env)
	if !strings.Contains(stderr.String(), "EXAM2PDF_TOKEN") {
		t.Errorf("hint missing from stderr: %q", stderr.String())
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_InvalidInput - Payload errors
// ---------------------------------------------------------------------------

func TestRunMain_InvalidJSON(t *testing.T) {
	clearExamEnv(t)
	dir := t.TempDir()
	input := writeFile(t, dir, "broken.json", "{\"data\": [\n  {\"questionData\": oops}\n]}")

	env, _, stderr := testEnv(nil)
	code := runMain([]string{"-i", input, "-o", filepath.Join(dir, "exam.pdf")}, env)

	if code != ExitIO {
		t.Errorf("exit code = %d, want %d", code, ExitIO)
	}
	out := stderr.String()
	if !strings.Contains(out, "line 2") {
		t.Errorf("position missing: %q", out)
	}
	if !strings.Contains(out, `  2 |   {"questionData": oops}`) {
		t.Errorf("snippet missing: %q", out)
	}
	if !strings.Contains(out, "^") {
		t.Errorf("caret missing: %q", out)
	}
}

func TestRunMain_InputErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		missing  bool
		wantCode int
		wantErr  string
	}{
		{name: "missing file", missing: true, wantCode: ExitIO, wantErr: "failed to read questions file"},
		{name: "empty list", content: `[]`, wantCode: ExitIO, wantErr: "no questions"},
		{name: "missing field", content: `[{"questionData": {"question_plain_title": "t"}}]`, wantCode: ExitIO, wantErr: "ans1_plain_text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearExamEnv(t)
			dir := t.TempDir()
			input := filepath.Join(dir, "questions.json")
			if !tt.missing {
				input = writeFile(t, dir, "questions.json", tt.content)
			}

			env, _, stderr := testEnv(nil)
			code := runMain([]string{"-i", input, "-o", filepath.Join(dir, "exam.pdf")}, env)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(stderr.String(), tt.wantErr) {
				t.Errorf("stderr = %q, want substring %q", stderr.String(), tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_Output - Output path resolution
// ---------------------------------------------------------------------------

func TestRunMain_OutputDirectory(t *testing.T) {
	clearExamEnv(t)
	dir := t.TempDir()
	input := writeFile(t, dir, "questions.json", twoQuestions)
	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0o750); err != nil {
		t.Fatalf("setup: %v", err)
	}

	env, _, stderr := testEnv(nil)
	if code := runMain([]string{"-i", input, "-o", outDir}, env); code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}

	matches, err := filepath.Glob(filepath.Join(outDir, "session_*.pdf"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("generated files = %v, want one session_*.pdf", matches)
	}
	assertPDFFile(t, matches[0])
}

func TestRunMain_PrintConfig(t *testing.T) {
	clearExamEnv(t)
	t.Setenv("EXAM2PDF_BASE_URL", "https://exam.example.com")
	t.Setenv("EXAM2PDF_TOKEN", "never-printed")

	fetcher := &fakeFetcher{}
	env, stdout, _ := testEnv(fetcher)
	code := runMain([]string{"--print-config", "-p", "letter", "--footer-text", "Term 1"}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}

	out := stdout.String()
	for _, want := range []string{"https://exam.example.com", "letter", "Term 1", "native"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "never-printed") {
		t.Error("token printed")
	}
	if fetcher.calls != 0 {
		t.Error("--print-config fetched questions")
	}
}

func TestRunMain_ConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown config", []string{"-c", "does-not-exist-anywhere"}, "does-not-exist-anywhere"},
		{"invalid engine", []string{"-e", "latex"}, "latex"},
		{"invalid page size", []string{"-p", "a3"}, "a3"},
		{"invalid timeout", []string{"-t", "soon"}, "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearExamEnv(t)
			dir := t.TempDir()
			input := writeFile(t, dir, "questions.json", twoQuestions)

			env, _, stderr := testEnv(nil)
			args := append([]string{"-i", input, "-o", filepath.Join(dir, "exam.pdf")}, tt.args...)
			code := runMain(args, env)

			if code == ExitSuccess {
				t.Fatal("expected failure")
			}
			if !strings.Contains(stderr.String(), tt.wantErr) {
				t.Errorf("stderr = %q, want substring %q", stderr.String(), tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMergeFlags - Flag priority
// ---------------------------------------------------------------------------

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		API:    config.APIConfig{Timeout: "30s"},
		Render: config.RenderConfig{Engine: "native", Style: "exam"},
		Page:   config.PageConfig{Size: "a4", Orientation: "portrait", Margin: 36},
		Output: config.OutputConfig{Path: "file.pdf"},
		Footer: config.FooterConfig{Text: "file footer"},
	}
	flags := &cliFlags{
		output:  "flag.pdf",
		engine:  "chrome",
		timeout: "1m",
		page:    pageFlags{size: "letter", margin: 72, marginSet: true},
		footer:  footerFlags{noPageNumber: true},
	}
	mergeFlags(flags, cfg)

	if cfg.Output.Path != "flag.pdf" || cfg.Render.Engine != "chrome" || cfg.API.Timeout != "1m" {
		t.Errorf("flag values not applied: %+v", cfg)
	}
	if cfg.Page.Size != "letter" || cfg.Page.Margin != 72 || !cfg.Footer.HidePageNumber {
		t.Errorf("page/footer flags not applied: %+v", cfg)
	}
	if cfg.Render.Style != "exam" || cfg.Page.Orientation != "portrait" || cfg.Footer.Text != "file footer" {
		t.Errorf("unset flags overrode the config: %+v", cfg)
	}
}

func TestMergeFlags_ZeroMargin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		flags pageFlags
		want  float64
	}{
		{"unset keeps config", pageFlags{}, 50},
		{"explicit zero overrides", pageFlags{marginSet: true}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &config.Config{Page: config.PageConfig{Margin: 50}}
			mergeFlags(&cliFlags{page: tt.flags}, cfg)
			if cfg.Page.Margin != tt.want {
				t.Errorf("Margin = %v, want %v", cfg.Page.Margin, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestBuildInput - Config to generator input
// ---------------------------------------------------------------------------

func TestBuildInput(t *testing.T) {
	t.Parallel()

	questions := []exam2pdf.Question{{Data: exam2pdf.QuestionData{Title: "q"}}}
	cfg := &config.Config{
		Header: config.HeaderConfig{Title: "Midterm", Instructions: "Answer **all**."},
		Footer: config.FooterConfig{Text: "Term 1", HidePageNumber: true},
		Page:   config.PageConfig{Size: "legal", Orientation: "landscape", Margin: 50},
	}

	in := buildInput(questions, cfg)
	def := exam2pdf.DefaultHeader()

	if len(in.Questions) != 1 {
		t.Errorf("questions = %d, want 1", len(in.Questions))
	}
	if in.Header.Title != "Midterm" || in.Header.Instructions != "Answer **all**." {
		t.Errorf("header = %+v", in.Header)
	}
	if in.Header.Institute != def.Institute || in.Header.Motto != def.Motto {
		t.Errorf("empty header fields should keep defaults: %+v", in.Header)
	}
	if in.Footer.Text != "Term 1" || in.Footer.ShowPageNumber {
		t.Errorf("footer = %+v", in.Footer)
	}
	if in.Page.Size != "legal" || in.Page.Orientation != "landscape" || in.Page.Margin != 50 {
		t.Errorf("page = %+v", in.Page)
	}
}

// ---------------------------------------------------------------------------
// TestResolveOutputPath - Explicit, directory and generated names
// ---------------------------------------------------------------------------

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("explicit file", func(t *testing.T) {
		t.Parallel()
		want := filepath.Join(dir, "exam.pdf")
		got, err := resolveOutputPath(config.OutputConfig{Path: want})
		if err != nil || got != want {
			t.Errorf("resolveOutputPath() = %q, %v; want %q", got, err, want)
		}
	})

	t.Run("existing directory", func(t *testing.T) {
		t.Parallel()
		got, err := resolveOutputPath(config.OutputConfig{Path: dir})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if filepath.Dir(got) != dir || !strings.HasPrefix(filepath.Base(got), "session_") || filepath.Ext(got) != ".pdf" {
			t.Errorf("resolveOutputPath() = %q", got)
		}
	})

	t.Run("dir is created", func(t *testing.T) {
		t.Parallel()
		target := filepath.Join(dir, "nested", "out")
		got, err := resolveOutputPath(config.OutputConfig{Dir: target})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if filepath.Dir(got) != target {
			t.Errorf("resolveOutputPath() = %q, want inside %q", got, target)
		}
		if info, err := os.Stat(target); err != nil || !info.IsDir() {
			t.Errorf("directory not created: %v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		got, err := resolveOutputPath(config.OutputConfig{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if filepath.Dir(got) != "." || !strings.HasPrefix(got, "session_") {
			t.Errorf("resolveOutputPath() = %q", got)
		}
	})

	t.Run("dir under a file", func(t *testing.T) {
		t.Parallel()
		file := writeFile(t, dir, "plain", "x")
		_, err := resolveOutputPath(config.OutputConfig{Dir: filepath.Join(file, "sub")})
		if !errors.Is(err, exam2pdf.ErrWritePDF) {
			t.Errorf("error = %v, want ErrWritePDF", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestDescribeParseError - Snippet and caret
// ---------------------------------------------------------------------------

func TestDescribeParseError(t *testing.T) {
	t.Parallel()

	long := `[` + strings.Repeat(`"padding", `, 10) + `oops]`

	tests := []struct {
		name string
		data string
		pe   exam2pdf.ParseError
		want string
	}{
		{
			name: "short line",
			data: "[\n  oops\n]",
			pe:   exam2pdf.ParseError{Line: 2, Column: 3},
			want: "  2 |   oops\n" + strings.Repeat(" ", 8) + "^",
		},
		{
			name: "column past end",
			data: "[1,",
			pe:   exam2pdf.ParseError{Line: 1, Column: 9},
			want: "  1 | [1,\n" + strings.Repeat(" ", 14) + "^",
		},
		{
			name: "line out of range",
			data: "[]",
			pe:   exam2pdf.ParseError{Line: 5, Column: 1},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := describeParseError([]byte(tt.data), &tt.pe)
			if got != tt.want {
				t.Errorf("describeParseError() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}

	t.Run("long line is windowed", func(t *testing.T) {
		t.Parallel()
		col := strings.Index(long, "oops") + 1
		got := describeParseError([]byte(long), &exam2pdf.ParseError{Line: 1, Column: col})

		lines := strings.Split(got, "\n")
		if len(lines) != 2 {
			t.Fatalf("got %d lines, want 2", len(lines))
		}
		if !strings.HasPrefix(lines[0], "  1 | ...") {
			t.Errorf("snippet = %q, want elided prefix", lines[0])
		}
		caret := strings.Index(lines[1], "^")
		if lines[0][caret:caret+4] != "oops" {
			t.Errorf("caret under %q, want oops", lines[0][caret:])
		}
	})
}
