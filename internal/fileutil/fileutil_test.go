package fileutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/alnah/go-exam2pdf/internal/fileutil"
)

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extension string
		wantErr   error
	}{
		{name: "pdf", extension: "pdf"},
		{name: "html", extension: "html"},
		{name: "empty", extension: "", wantErr: fileutil.ErrExtensionEmpty},
		{name: "forward slash", extension: "../etc/passwd", wantErr: fileutil.ErrExtensionPathTraversal},
		{name: "backslash", extension: "..\\windows", wantErr: fileutil.ErrExtensionPathTraversal},
		{name: "null byte", extension: "html\x00exe", wantErr: fileutil.ErrExtensionPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateExtension(tt.extension)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtension(%q) = %v, want %v", tt.extension, err, tt.wantErr)
			}
		})
	}
}

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	content := "<html><body>1) What is 2+2?</body></html>"
	path, cleanup, err := fileutil.WriteTempFile(content, "html")
	if err != nil {
		t.Fatalf("WriteTempFile() error = %v", err)
	}

	if !strings.HasPrefix(filepath.Base(path), "exam2pdf-") {
		t.Errorf("name %q, want exam2pdf- prefix", filepath.Base(path))
	}
	if filepath.Ext(path) != ".html" {
		t.Errorf("extension = %q, want .html", filepath.Ext(path))
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading temp file: %v", err)
	}
	if string(got) != content {
		t.Errorf("content = %q, want %q", got, content)
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still exists after cleanup: %v", err)
	}
}

func TestWriteTempFile_InvalidExtension(t *testing.T) {
	t.Parallel()

	_, cleanup, err := fileutil.WriteTempFile("x", "../html")
	if !errors.Is(err, fileutil.ErrExtensionPathTraversal) {
		t.Errorf("error = %v, want ErrExtensionPathTraversal", err)
	}
	if cleanup != nil {
		t.Error("cleanup should be nil on error")
	}
}

// Modifies TMPDIR, not parallel.
func TestWriteTempFile_CreateTempError(t *testing.T) {
	t.Setenv("TMPDIR", filepath.Join(t.TempDir(), "missing"))

	if _, _, err := fileutil.WriteTempFile("x", "html"); err == nil {
		t.Fatal("expected error for missing temp directory")
	}
}

func TestRandomizedName(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^session_[0-9a-f]{4}\.pdf$`)
	seen := make(map[string]bool)
	for range 20 {
		name, err := fileutil.RandomizedName("session", "pdf")
		if err != nil {
			t.Fatalf("RandomizedName() error = %v", err)
		}
		if !pattern.MatchString(name) {
			t.Fatalf("RandomizedName() = %q, want session_XXXX.pdf", name)
		}
		seen[name] = true
	}
	if len(seen) < 2 {
		t.Error("RandomizedName() returned the same name 20 times")
	}
}

func TestRandomizedName_InvalidExtension(t *testing.T) {
	t.Parallel()

	if _, err := fileutil.RandomizedName("session", ""); !errors.Is(err, fileutil.ErrExtensionEmpty) {
		t.Errorf("error = %v, want ErrExtensionEmpty", err)
	}
}

func TestFileExistsAndDirExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "questions.json")
	if err := os.WriteFile(file, []byte("[]"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tests := []struct {
		name     string
		path     string
		wantFile bool
		wantDir  bool
	}{
		{name: "regular file", path: file, wantFile: true},
		{name: "directory", path: dir, wantDir: true},
		{name: "missing", path: filepath.Join(dir, "nope")},
	}

	for _, tt := range tests {
		if got := fileutil.FileExists(tt.path); got != tt.wantFile {
			t.Errorf("%s: FileExists = %v, want %v", tt.name, got, tt.wantFile)
		}
		if got := fileutil.DirExists(tt.path); got != tt.wantDir {
			t.Errorf("%s: DirExists = %v, want %v", tt.name, got, tt.wantDir)
		}
	}
}
