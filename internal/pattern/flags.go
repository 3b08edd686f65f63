package pattern

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// flagSet is the parsed form of a rule's flags string.
type flagSet struct {
	global  bool
	sticky  bool
	options regexp2.RegexOptions
}

// parseFlags interprets JavaScript-style flag letters. An empty string
// means "g". Unknown or repeated letters are rejected. Expressions always
// compile in ECMAScript mode, so \w, \d and $ behave as in a browser.
func parseFlags(flags string) (flagSet, error) {
	if flags == "" {
		flags = "g"
	}
	fs := flagSet{options: regexp2.ECMAScript}
	seen := make(map[rune]bool, len(flags))
	for _, f := range flags {
		if seen[f] {
			return flagSet{}, fmt.Errorf("repeated flag %q", f)
		}
		seen[f] = true
		switch f {
		case 'g':
			fs.global = true
		case 'y':
			fs.sticky = true
		case 'i':
			fs.options |= regexp2.IgnoreCase
		case 'm':
			fs.options |= regexp2.Multiline
		case 's':
			fs.options |= regexp2.Singleline
		case 'u':
			// Matching already works on runes.
		default:
			return flagSet{}, fmt.Errorf("unknown flag %q", f)
		}
	}
	return fs, nil
}
