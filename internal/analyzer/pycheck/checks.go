package pycheck

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultChecks returns every built-in check. Registration order is the
// order findings are reported in.
func DefaultChecks() []*Check {
	return []*Check{
		CheckRequireFunction,
		CheckRecursion,
		CheckBaseCase,
		CheckNoInput,
		CheckMemo,
		CheckRequireLoop,
		CheckDivisorTest,
		CheckSqrtBound,
		CheckPrintResult,
	}
}

// gameFuncs are the entry points of game-theory solutions.
var gameFuncs = []string{"game", "f"}

// solver returns the first defined entry point among gameFuncs.
func solver(f *File) *Func {
	for _, name := range gameFuncs {
		if fn := f.Func(name); fn != nil {
			return fn
		}
	}
	return nil
}

var CheckRequireFunction = &Check{
	ID:       "require-function",
	Doc:      "a game(...) or f(...) function is defined",
	Severity: "error",
	Run: func(p *Pass) {
		if solver(p.File) == nil {
			p.Report(1, 1, "No function game(...) or f(...) defined.")
		}
	},
}

var CheckRecursion = &Check{
	ID:       "recursion",
	Doc:      "the solver function calls itself",
	Severity: "error",
	Run: func(p *Pass) {
		fn := solver(p.File)
		if fn == nil {
			return
		}
		for _, name := range gameFuncs {
			if g := p.File.Func(name); g != nil && callsName(g.Body, name) {
				return
			}
		}
		p.Report(fn.Line, 1, "Recursive call not found.")
	},
}

var CheckBaseCase = &Check{
	ID:       "base-case",
	Doc:      "the solver has an if branch that returns",
	Severity: "warning",
	Run: func(p *Pass) {
		fn := solver(p.File)
		if fn == nil {
			return
		}
		for _, name := range gameFuncs {
			if g := p.File.Func(name); g != nil && hasBaseCase(g.Body) {
				return
			}
		}
		p.Report(fn.Line, 1, "No base case found (if ... return).")
	},
}

var CheckNoInput = &Check{
	ID:       "no-input",
	Doc:      "no interactive input() calls",
	Severity: "info",
	Run: func(p *Pass) {
		for i, line := range p.File.Masked {
			if loc := inputCall.FindStringSubmatchIndex(line); loc != nil {
				// Columns count characters, matching marker and pattern
				// positions, not UTF-8 bytes.
				col := utf8.RuneCountInString(line[:loc[2]]) + 1
				p.Report(i+1, col, "input() call found; these tasks usually do not need interactive input.")
				return
			}
		}
	},
}

var CheckMemo = &Check{
	ID:       "memo",
	Doc:      "the solver is memoized with lru_cache or cache",
	Severity: "info",
	Run: func(p *Pass) {
		fn := solver(p.File)
		if fn == nil {
			return
		}
		for _, name := range gameFuncs {
			if g := p.File.Func(name); g != nil && memoized(g) {
				return
			}
		}
		p.Report(fn.Line, 1, "No caching found (lru_cache/cache).")
	},
}

var CheckRequireLoop = &Check{
	ID:       "require-loop",
	Doc:      "candidates are enumerated with a for loop over range(...)",
	Severity: "error",
	Run: func(p *Pass) {
		if firstMatchLine(p.File, rangeLoop) == 0 {
			p.Report(1, 1, "No for loop over range(...) found.")
		}
	},
}

var CheckDivisorTest = &Check{
	ID:       "divisor-check",
	Doc:      "divisibility is tested with n % d == 0",
	Severity: "warning",
	Run: func(p *Pass) {
		if firstMatchLine(p.File, divisorTest) == 0 {
			p.Report(1, 1, "No divisibility test (n % d == 0) found.")
		}
	},
}

var CheckSqrtBound = &Check{
	ID:       "sqrt-bound",
	Doc:      "divisor search stops at the square root",
	Severity: "info",
	Run: func(p *Pass) {
		loop := firstMatchLine(p.File, rangeLoop)
		if loop == 0 || firstMatchLine(p.File, sqrtBound) != 0 {
			return
		}
		p.Report(loop, 1, "Divisor search can stop at the square root of n.")
	},
}

var CheckPrintResult = &Check{
	ID:       "print-result",
	Doc:      "the answer is printed",
	Severity: "warning",
	Run: func(p *Pass) {
		if firstMatchLine(p.File, printCall) == 0 {
			p.Report(1, 1, "Result is never printed.")
		}
	},
}

var (
	inputCall   = regexp.MustCompile(`(?:^|[^\w.])(input)\s*\(`)
	printCall   = regexp.MustCompile(`(?:^|[^\w.])print\s*\(`)
	rangeLoop   = regexp.MustCompile(`\bfor\b[^:]*\bin\s+range\s*\(`)
	divisorTest = regexp.MustCompile(`%[^=]*==\s*0\b|\bnot\s+[\w.\[\]()]+\s*%`)
	sqrtBound   = regexp.MustCompile(`\*\*\s*\(?\s*(?:0?\.5|1\s*/\s*2)|\b(?:isqrt|sqrt)\s*\(|\b\w+\s*\*\s*\w+\s*<=?`)
	ifHeader    = regexp.MustCompile(`^(?:if|elif)\b`)
	inlineRet   = regexp.MustCompile(`^(?:if|elif)\b.*:\s*return\b`)
	returnStmt  = regexp.MustCompile(`^return\b`)
	defLine     = regexp.MustCompile(`^(?:async\s+)?def\s`)
)

func callPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\w.])` + regexp.QuoteMeta(name) + `\s*\(`)
}

func callsName(body []Line, name string) bool {
	re := callPattern(name)
	for _, ln := range body {
		if defLine.MatchString(ln.Code) {
			continue
		}
		if re.MatchString(ln.Code) {
			return true
		}
	}
	return false
}

// hasBaseCase reports whether any if/elif in body returns directly from
// its own block.
func hasBaseCase(body []Line) bool {
	for i, ln := range body {
		if !ifHeader.MatchString(ln.Code) {
			continue
		}
		if inlineRet.MatchString(ln.Code) {
			return true
		}
		if !strings.HasSuffix(ln.Code, ":") || i+1 >= len(body) {
			continue
		}
		child := body[i+1].Indent
		if child <= ln.Indent {
			continue
		}
		for _, next := range body[i+1:] {
			if next.Indent <= ln.Indent {
				break
			}
			if next.Indent == child && returnStmt.MatchString(next.Code) {
				return true
			}
		}
	}
	return false
}

func memoized(fn *Func) bool {
	for _, d := range fn.Decorators {
		name := d
		if i := strings.IndexAny(name, "( "); i >= 0 {
			name = name[:i]
		}
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		if name == "lru_cache" || name == "cache" {
			return true
		}
	}
	return false
}

// firstMatchLine returns the physical line of the first logical line
// matching re, or 0.
func firstMatchLine(f *File, re *regexp.Regexp) int {
	for _, ln := range f.Lines {
		if re.MatchString(ln.Code) {
			return ln.No
		}
	}
	return 0
}
