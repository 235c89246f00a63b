package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alnah/go-exam2pdf/internal/examapi"
)

// twoQuestions is a minimal well-formed questions payload.
const twoQuestions = `{"data": [
  {"questionData": {"question_plain_title": "2 + 2 = ?",
    "ans1_plain_text": "3", "ans2_plain_text": "4", "ans3_plain_text": "5", "ans4_plain_text": "22"}},
  {"questionData": {"question_plain_title": "Is water wet?",
    "ans1_plain_text": "true", "ans2_plain_text": "false", "ans3_plain_text": "null", "ans4_plain_text": "maybe"}}
]}`

// fakeFetcher returns a fixed payload and records its configuration.
type fakeFetcher struct {
	payload []byte
	err     error
	cfg     examapi.Config
	calls   int
}

func (f *fakeFetcher) Fetch(context.Context) ([]byte, error) {
	f.calls++
	return f.payload, f.err
}

// testEnv returns an Environment writing to buffers and fetching from fetcher.
func testEnv(fetcher *fakeFetcher) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Stdout: &stdout,
		Stderr: &stderr,
		NewFetcher: func(cfg examapi.Config) (Fetcher, error) {
			if fetcher == nil {
				return nil, examapi.ErrConfig
			}
			fetcher.cfg = cfg
			return fetcher, nil
		},
	}
	return env, &stdout, &stderr
}

// clearExamEnv unsets every variable the CLI reads.
func clearExamEnv(t *testing.T) {
	t.Helper()
	for name := range knownEnvVars {
		t.Setenv(name, "")
	}
	for _, name := range []string{"BASE_URL", "TOKEN", "ENV_FILE"} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}
