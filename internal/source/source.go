// Package source reads submissions from disk or stdin.
package source

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// File holds a loaded submission.
type File struct {
	Path string
	// Text is the content with a leading byte-order mark removed and CRLF
	// line endings folded to LF, so columns match what editors show.
	Text string
	Hash string
}

// Load reads path, or standard input when path is "-".
func Load(path string) (*File, error) {
	if path == Stdin {
		return Read(os.Stdin, "<stdin>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source.Load: %w", err)
	}
	return fromBytes(path, data), nil
}

// Read loads a submission from r, recording name as its path.
func Read(r io.Reader, name string) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("source.Read: %w", err)
	}
	return fromBytes(name, data), nil
}

func fromBytes(path string, data []byte) *File {
	h := sha256.Sum256(data)
	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return &File{
		Path: path,
		Text: text,
		Hash: fmt.Sprintf("sha256:%x", h),
	}
}

// Lines splits the text into lines.
func (f *File) Lines() []string {
	return strings.Split(f.Text, "\n")
}
