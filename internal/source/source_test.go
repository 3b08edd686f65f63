package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "solution.py")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := "def game(s):\n    return s\n"
	path := writeTempFile(t, content)

	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Text != content {
		t.Error("text mismatch")
	}
	if f.Path != path {
		t.Errorf("got path %q, want %q", f.Path, path)
	}
	if !strings.HasPrefix(f.Hash, "sha256:") {
		t.Errorf("expected sha256 prefix, got %s", f.Hash)
	}
	if len(f.Lines()) != 3 {
		t.Errorf("expected 3 lines, got %d", len(f.Lines()))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/solution.py"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadNormalizes(t *testing.T) {
	f, err := Read(strings.NewReader("\ufeffa = 1\r\nb = 2\r\n"), "<stdin>")
	if err != nil {
		t.Fatal(err)
	}
	if f.Text != "a = 1\nb = 2\n" {
		t.Errorf("got %q", f.Text)
	}
	if f.Path != "<stdin>" {
		t.Errorf("got path %q", f.Path)
	}
}

func TestHashStable(t *testing.T) {
	a, _ := Read(strings.NewReader("x"), "a")
	b, _ := Read(strings.NewReader("x"), "b")
	c, _ := Read(strings.NewReader("y"), "c")
	if a.Hash != b.Hash {
		t.Error("same content should hash the same")
	}
	if a.Hash == c.Hash {
		t.Error("different content should hash differently")
	}
}
