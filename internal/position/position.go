// Package position maps character offsets in a source buffer to 1-based
// line and column pairs.
//
// Offsets count runes, not bytes, so a column is the number of characters
// from the start of the line.
package position

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Position is a 1-based line/column pair.
type Position struct {
	Line   int
	Column int
}

// String formats the position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Locate returns the position of the rune at offset in buffer. Offsets
// outside [0, rune count] are clamped.
func Locate(buffer string, offset int) Position {
	if offset < 0 {
		offset = 0
	}
	line, lastNL, i := 1, -1, 0
	for _, r := range buffer {
		if i >= offset {
			break
		}
		if r == '\n' {
			line++
			lastNL = i
		}
		i++
	}
	return Position{Line: line, Column: i - lastNL}
}

// Index answers repeated Locate queries against one buffer.
type Index struct {
	// newlines holds the rune offset of every '\n'.
	newlines []int
	size     int
}

// NewIndex scans buffer once.
func NewIndex(buffer string) *Index {
	idx := &Index{}
	i := 0
	for _, r := range buffer {
		if r == '\n' {
			idx.newlines = append(idx.newlines, i)
		}
		i++
	}
	idx.size = i
	return idx
}

// Len is the buffer length in runes.
func (x *Index) Len() int { return x.size }

// Locate is equivalent to the package-level Locate on the indexed buffer.
func (x *Index) Locate(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > x.size {
		offset = x.size
	}
	// Number of newlines strictly before offset.
	n := sort.SearchInts(x.newlines, offset)
	lastNL := -1
	if n > 0 {
		lastNL = x.newlines[n-1]
	}
	return Position{Line: n + 1, Column: offset - lastNL}
}

// Parse reads a "line:column" location. Locations such as "custom" do not
// parse.
func Parse(loc string) (Position, error) {
	lineText, colText, ok := strings.Cut(loc, ":")
	if !ok {
		return Position{}, fmt.Errorf("position.Parse: %q is not line:column", loc)
	}
	line, err := strconv.Atoi(strings.TrimSpace(lineText))
	if err != nil || line < 1 {
		return Position{}, fmt.Errorf("position.Parse: bad line in %q", loc)
	}
	col, err := strconv.Atoi(strings.TrimSpace(colText))
	if err != nil || col < 1 {
		return Position{}, fmt.Errorf("position.Parse: bad column in %q", loc)
	}
	return Position{Line: line, Column: col}, nil
}
