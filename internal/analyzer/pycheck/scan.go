package pycheck

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Line is one logical line of Python: string contents blanked, comments
// removed, continuation lines joined with a space.
type Line struct {
	No     int // physical line where the logical line starts
	Indent int
	Code   string
}

// Func is a function definition and the logical lines of its body.
type Func struct {
	Name       string
	Line       int
	Indent     int
	Decorators []string
	Body       []Line
}

// File is the scanned form of a source buffer.
type File struct {
	// Masked holds physical lines with strings blanked and comments
	// removed; Masked[i] is line i+1.
	Masked []string
	Lines  []Line
	Funcs  []*Func
}

// Func returns the last definition of name, matching Python rebinding.
func (f *File) Func(name string) *Func {
	var found *Func
	for _, fn := range f.Funcs {
		if fn.Name == name {
			found = fn
		}
	}
	return found
}

// SyntaxError reports source the scanner cannot make sense of.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

type opener struct {
	ch        rune
	line, col int
}

var closers = map[rune]rune{')': '(', ']': '[', '}': '{'}

// mask blanks string literal contents and strips comments, tracking
// brackets so unbalanced input is reported. cont[i] is true when physical
// line i+2 continues the logical line containing line i+1.
func mask(src string) (masked []string, cont []bool, serr *SyntaxError) {
	lines := strings.Split(src, "\n")
	masked = make([]string, len(lines))
	cont = make([]bool, len(lines))

	var (
		stack     []opener
		inStr     bool
		quote     rune
		triple    bool
		strLine   int
		strCol    int
		escaped   bool
		firstErr  *SyntaxError
		recordErr = func(e *SyntaxError) {
			if firstErr == nil {
				firstErr = e
			}
		}
	)

	for li, raw := range lines {
		runes := []rune(raw)
		var b strings.Builder
		for ci := 0; ci < len(runes); ci++ {
			r := runes[ci]
			if inStr {
				switch {
				case escaped:
					escaped = false
					b.WriteRune(' ')
				case r == '\\':
					escaped = true
					b.WriteRune(' ')
				case r == quote && (!triple || hasRun(runes, ci, quote, 3)):
					inStr = false
					if triple {
						b.WriteString(strings.Repeat(string(quote), 3))
						ci += 2
					} else {
						b.WriteRune(r)
					}
				default:
					b.WriteRune(' ')
				}
				continue
			}
			switch r {
			case '#':
				ci = len(runes)
				continue
			case '\'', '"':
				inStr, quote, strLine, strCol = true, r, li+1, ci+1
				triple = hasRun(runes, ci, r, 3)
				if triple {
					b.WriteString(strings.Repeat(string(r), 3))
					ci += 2
				} else {
					b.WriteRune(r)
				}
				continue
			case '(', '[', '{':
				stack = append(stack, opener{ch: r, line: li + 1, col: ci + 1})
			case ')', ']', '}':
				if len(stack) == 0 {
					recordErr(&SyntaxError{Line: li + 1, Col: ci + 1, Msg: fmt.Sprintf("unmatched '%c'", r)})
				} else {
					top := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					if top.ch != closers[r] {
						recordErr(&SyntaxError{Line: li + 1, Col: ci + 1,
							Msg: fmt.Sprintf("closing parenthesis '%c' does not match opening parenthesis '%c' on line %d", r, top.ch, top.line)})
					}
				}
			}
			b.WriteRune(r)
		}

		code := strings.TrimRight(b.String(), " \t\r")
		lineEndsWithBackslash := strings.HasSuffix(code, "\\")
		if inStr {
			// Backslash-newline continues a short string; a triple-quoted
			// string continues regardless.
			if !triple && !escaped {
				recordErr(&SyntaxError{Line: strLine, Col: strCol, Msg: "unterminated string literal"})
				inStr = false
			}
			escaped = false
		}
		if lineEndsWithBackslash && !inStr {
			code = strings.TrimRight(strings.TrimSuffix(code, "\\"), " \t")
		}
		masked[li] = code
		cont[li] = inStr || len(stack) > 0 || lineEndsWithBackslash
	}

	if inStr {
		recordErr(&SyntaxError{Line: strLine, Col: strCol, Msg: "unterminated triple-quoted string literal"})
	}
	if len(stack) > 0 {
		top := stack[len(stack)-1]
		recordErr(&SyntaxError{Line: top.line, Col: top.col, Msg: fmt.Sprintf("'%c' was never closed", top.ch)})
	}
	return masked, cont, firstErr
}

func hasRun(runes []rune, at int, r rune, n int) bool {
	if at+n > len(runes) {
		return false
	}
	for i := 0; i < n; i++ {
		if runes[at+i] != r {
			return false
		}
	}
	return true
}

func indentOf(raw string) int {
	n := 0
	for _, r := range raw {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 8 - n%8
		case '\f':
			n = 0
		default:
			return n
		}
	}
	return n
}

var (
	defPattern       = regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)
	defHeaderPattern = regexp.MustCompile(`^(?:async\s+)?def\s+[A-Za-z_]\w*\s*\(.*\)\s*(?:->[^:]*)?:(.*)$`)
	decoratorPattern = regexp.MustCompile(`^@\s*([A-Za-z_][\w.]*)`)
)

// Parse scans src into logical lines and function definitions. It checks
// bracket, string and indentation structure only; it is not a Python
// parser.
func Parse(src string) (*File, error) {
	masked, cont, serr := mask(src)
	if serr != nil {
		return nil, serr
	}
	rawLines := strings.Split(src, "\n")

	f := &File{Masked: masked}
	continuing := false
	for i, code := range masked {
		if continuing && len(f.Lines) > 0 {
			last := &f.Lines[len(f.Lines)-1]
			if t := strings.TrimSpace(code); t != "" {
				last.Code += " " + t
			}
		} else if t := strings.TrimSpace(code); t != "" {
			f.Lines = append(f.Lines, Line{No: i + 1, Indent: indentOf(rawLines[i]), Code: t})
		}
		continuing = cont[i]
	}

	if err := collectFuncs(f); err != nil {
		return nil, err
	}
	if err := checkIndentation(f.Lines, len(rawLines)); err != nil {
		return nil, err
	}
	return f, nil
}

func checkIndentation(lines []Line, total int) *SyntaxError {
	stack := []int{0}
	for i, ln := range lines {
		top := stack[len(stack)-1]
		opensBlock := i > 0 && strings.HasSuffix(lines[i-1].Code, ":")
		switch {
		case opensBlock && ln.Indent <= top:
			return &SyntaxError{Line: ln.No, Col: 1, Msg: fmt.Sprintf("expected an indented block after line %d", lines[i-1].No)}
		case ln.Indent > top && !opensBlock:
			return &SyntaxError{Line: ln.No, Col: ln.Indent + 1, Msg: "unexpected indent"}
		case ln.Indent > top:
			stack = append(stack, ln.Indent)
		case ln.Indent < top:
			for len(stack) > 1 && stack[len(stack)-1] > ln.Indent {
				stack = stack[:len(stack)-1]
			}
			if stack[len(stack)-1] != ln.Indent {
				return &SyntaxError{Line: ln.No, Col: ln.Indent + 1, Msg: "unindent does not match any outer indentation level"}
			}
		}
	}
	if n := len(lines); n > 0 && strings.HasSuffix(lines[n-1].Code, ":") {
		return &SyntaxError{Line: min(lines[n-1].No+1, total), Col: 1, Msg: fmt.Sprintf("expected an indented block after line %d", lines[n-1].No)}
	}
	return nil
}

func collectFuncs(f *File) *SyntaxError {
	for i, ln := range f.Lines {
		m := defPattern.FindStringSubmatch(ln.Code)
		if m == nil {
			continue
		}
		header := defHeaderPattern.FindStringSubmatch(ln.Code)
		if header == nil {
			return &SyntaxError{Line: ln.No, Col: utf8.RuneCountInString(ln.Code) + ln.Indent + 1, Msg: "expected ':'"}
		}
		fn := &Func{Name: m[1], Line: ln.No, Indent: ln.Indent}

		for j := i - 1; j >= 0; j-- {
			prev := f.Lines[j]
			dm := decoratorPattern.FindStringSubmatch(prev.Code)
			if prev.Indent != ln.Indent || dm == nil {
				break
			}
			fn.Decorators = append([]string{prev.Code[1:]}, fn.Decorators...)
		}

		if inline := strings.TrimSpace(header[1]); inline != "" {
			fn.Body = append(fn.Body, Line{No: ln.No, Indent: ln.Indent + 1, Code: inline})
		}
		for _, next := range f.Lines[i+1:] {
			if next.Indent <= ln.Indent {
				break
			}
			fn.Body = append(fn.Body, next)
		}
		f.Funcs = append(f.Funcs, fn)
	}
	return nil
}
