package gitvers

import (
	"strings"

	"github.com/blang/semver"
)

// TagOrder compares two short tag names, returning a negative number when a
// sorts before b, zero when they are equal and a positive number otherwise.
// The greatest tag under the order is the latest release.
type TagOrder func(a, b string) int

// LexicalOrder orders tags as plain strings, so release-9.0.0 is later than
// release-10.0.0. It is the default.
func LexicalOrder(a, b string) int {
	return strings.Compare(a, b)
}

// VersionOrder orders tags by the semantic version their match group
// extracts. Tags whose version does not parse sort below those that do, and
// among themselves fall back to LexicalOrder. An invalid pattern or match
// group makes every version unparseable.
func VersionOrder(pattern, matchGroup string) TagOrder {
	re, invalid := compileTagPattern(pattern)
	if invalid == nil {
		invalid = checkTemplate(re, matchGroup)
	}

	parse := func(tag string) (semver.Version, bool) {
		if invalid != nil {
			return semver.Version{}, false
		}
		raw, ok := expandVersion(re, tag, matchGroup)
		if !ok {
			return semver.Version{}, false
		}
		v, err := semver.ParseTolerant(raw)
		if err != nil {
			return semver.Version{}, false
		}
		return v, true
	}

	return func(a, b string) int {
		va, okA := parse(a)
		vb, okB := parse(b)

		switch {
		case okA && okB:
			if c := va.Compare(vb); c != 0 {
				return c
			}
			return LexicalOrder(a, b)
		case okA:
			return 1
		case okB:
			return -1
		default:
			return LexicalOrder(a, b)
		}
	}
}
