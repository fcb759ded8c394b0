package gitvers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// compileTagPattern compiles a release tag pattern so that it only matches
// whole tag names.
func compileTagPattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid release tag pattern %q: %w", pattern, err)
	}
	return re, nil
}

// extractVersion expands matchGroup against the capture groups of tag.
func extractVersion(tag, pattern, matchGroup string) (string, error) {
	if tag == "" {
		return "", ErrNoReleaseTag
	}

	re, err := compileTagPattern(pattern)
	if err != nil {
		return "", err
	}

	if err := checkTemplate(re, matchGroup); err != nil {
		return "", err
	}

	version, ok := expandVersion(re, tag, matchGroup)
	if !ok {
		return "", fmt.Errorf("%w: %q does not match %q", ErrPatternMismatch, tag, pattern)
	}

	return version, nil
}

func expandVersion(re *regexp.Regexp, tag, matchGroup string) (string, bool) {
	match := re.FindStringSubmatchIndex(tag)
	if match == nil {
		return "", false
	}
	return string(re.ExpandString(nil, matchGroup, tag, match)), true
}

// checkTemplate rejects templates that reference capture groups re does not
// define. regexp.Expand would silently substitute an empty string for them.
// Malformed references are left alone, Expand copies them verbatim.
func checkTemplate(re *regexp.Regexp, template string) error {
	for {
		i := strings.IndexByte(template, '$')
		if i < 0 {
			return nil
		}
		template = template[i+1:]

		if strings.HasPrefix(template, "$") {
			template = template[1:]
			continue
		}

		name, rest, ok := templateRef(template)
		if !ok {
			continue
		}
		template = rest

		if num, err := strconv.Atoi(name); err == nil && !(name[0] == '0' && len(name) > 1) {
			if num > re.NumSubexp() {
				return fmt.Errorf("%w: $%s (pattern has %d groups)", ErrUnknownGroup, name, re.NumSubexp())
			}
			continue
		}

		if re.SubexpIndex(name) < 0 {
			return fmt.Errorf("%w: ${%s}", ErrUnknownGroup, name)
		}
	}
}

// templateRef parses the reference following a '$' the same way
// regexp.Expand does: a run of letters, digits and underscores, optionally
// wrapped in braces.
func templateRef(s string) (name, rest string, ok bool) {
	brace := strings.HasPrefix(s, "{")
	if brace {
		s = s[1:]
	}

	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		i += size
	}
	if i == 0 {
		return "", "", false
	}
	name = s[:i]

	if brace {
		if i >= len(s) || s[i] != '}' {
			return "", "", false
		}
		i++
	}

	return name, s[i:], true
}
