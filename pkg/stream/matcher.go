// Package stream implements discovery of newly appended batch containers on
// an infinite-scroll page. Batches carry monotonically increasing decimal
// ids; the matcher recognizes ids strictly greater than a threshold, and the
// tracker drives the scroll/settle/snapshot polling cycle.
package stream

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher matches decimal digit strings whose numeric value is strictly
// greater than a fixed threshold. The matched set is built as a regular
// expression alternation: any candidate with more digits than the threshold,
// plus one alternative per threshold digit position below 9 (exact prefix,
// strictly greater digit at that position, free suffix).
type Matcher struct {
	threshold string
	re        *regexp.Regexp
}

// NewMatcher builds a Matcher for the given threshold. The threshold must be
// a canonical non-negative decimal: digits only, no leading zeros except "0"
// itself.
func NewMatcher(threshold string) (*Matcher, error) {
	if threshold == "" {
		return nil, fmt.Errorf("threshold must not be empty")
	}
	if !isDigits(threshold) {
		return nil, fmt.Errorf("threshold %q contains non-digit characters", threshold)
	}
	if len(threshold) > 1 && threshold[0] == '0' {
		return nil, fmt.Errorf("threshold %q has leading zeros", threshold)
	}

	n := len(threshold)

	// Candidates with more digits are always greater, given canonical form.
	alternatives := []string{fmt.Sprintf(`[1-9]\d{%d,}`, n)}

	// Same digit count: exact prefix up to position i, strictly greater
	// digit at i, any digits after. A 9 at position i admits no greater
	// digit and contributes nothing.
	for i := 0; i < n; i++ {
		d := threshold[i]
		if d == '9' {
			continue
		}
		var b strings.Builder
		b.WriteString(threshold[:i])
		if d+1 == '9' {
			b.WriteByte('9')
		} else {
			fmt.Fprintf(&b, "[%c-9]", d+1)
		}
		if rest := n - i - 1; rest > 0 {
			fmt.Fprintf(&b, `\d{%d}`, rest)
		}
		alternatives = append(alternatives, b.String())
	}

	re, err := regexp.Compile("^(?:" + strings.Join(alternatives, "|") + ")$")
	if err != nil {
		return nil, fmt.Errorf("failed to compile threshold pattern: %w", err)
	}

	return &Matcher{threshold: threshold, re: re}, nil
}

// Match reports whether candidate is a canonical decimal strictly greater
// than the threshold. The empty string never matches.
func (m *Matcher) Match(candidate string) bool {
	if candidate == "" {
		return false
	}
	return m.re.MatchString(candidate)
}

// Threshold returns the threshold this matcher was built from.
func (m *Matcher) Threshold() string {
	return m.threshold
}

// Pattern returns the compiled alternation, mainly for logging.
func (m *Matcher) Pattern() string {
	return m.re.String()
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// compareIDs orders two canonical decimal strings numerically: more digits
// wins, equal digit counts fall back to byte comparison.
func compareIDs(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
