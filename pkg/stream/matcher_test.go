package stream

import (
	"fmt"
	"strconv"
	"testing"
)

func TestMatcherRejectsBadThresholds(t *testing.T) {
	for _, threshold := range []string{"", "12a", "-5", "007", "1.5", " 9"} {
		if _, err := NewMatcher(threshold); err == nil {
			t.Errorf("NewMatcher(%q) expected error, got nil", threshold)
		}
	}
}

func TestMatcherZeroThreshold(t *testing.T) {
	m, err := NewMatcher("0")
	if err != nil {
		t.Fatalf("NewMatcher(0): %v", err)
	}

	if m.Match("0") {
		t.Error("threshold 0 must not match candidate 0")
	}
	if m.Match("") {
		t.Error("empty candidate must never match")
	}
	for _, candidate := range []string{"1", "9", "10", "42", "100", "999999"} {
		if !m.Match(candidate) {
			t.Errorf("threshold 0 should match %s", candidate)
		}
	}
}

func TestMatcherNineBoundaries(t *testing.T) {
	// A threshold of all nines admits only candidates with more digits.
	for _, threshold := range []string{"9", "99", "999", "9999"} {
		m, err := NewMatcher(threshold)
		if err != nil {
			t.Fatalf("NewMatcher(%s): %v", threshold, err)
		}
		for _, same := range []string{threshold, "1" + threshold[1:]} {
			if m.Match(same) {
				t.Errorf("threshold %s must not match same-length %s", threshold, same)
			}
		}
		longer := "1" + threshold[:len(threshold)]
		if !m.Match(longer) {
			t.Errorf("threshold %s should match longer %s", threshold, longer)
		}
	}
}

func TestMatcherAgainstNumericComparison(t *testing.T) {
	thresholds := []uint64{
		0, 1, 5, 8, 9, 10, 19, 42, 56, 88, 90, 99,
		100, 123, 409, 899, 900, 909, 990, 999,
		1000, 5999, 9099, 42424, 99999, 100000, 123456, 909090,
	}

	for _, tv := range thresholds {
		threshold := strconv.FormatUint(tv, 10)
		t.Run(threshold, func(t *testing.T) {
			m, err := NewMatcher(threshold)
			if err != nil {
				t.Fatalf("NewMatcher(%s): %v", threshold, err)
			}

			check := func(cv uint64) {
				candidate := strconv.FormatUint(cv, 10)
				want := cv > tv
				if got := m.Match(candidate); got != want {
					t.Errorf("threshold %s candidate %s: match = %v, want %v (pattern %s)",
						threshold, candidate, got, want, m.Pattern())
				}
			}

			// Dense sweep near zero plus a band around the threshold.
			for cv := uint64(0); cv <= 1200; cv++ {
				check(cv)
			}
			lo := uint64(0)
			if tv > 600 {
				lo = tv - 600
			}
			for cv := lo; cv <= tv+600; cv++ {
				check(cv)
			}
			// Digit-count boundaries above and below.
			for _, cv := range []uint64{9, 10, 99, 100, 999, 1000, 9999, 10000, 99999, 100000, 999999, 1000000} {
				check(cv)
			}
		})
	}
}

func TestCompareIDs(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"0", "0", 0},
		{"2", "10", -1},
		{"10", "2", 1},
		{"56", "57", -1},
		{"100", "99", 1},
		{"123456", "123455", 1},
	}
	for _, c := range cases {
		if got := compareIDs(c.a, c.b); got != c.want {
			t.Errorf("compareIDs(%s, %s) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func ExampleMatcher_Match() {
	m, _ := NewMatcher("56")
	fmt.Println(m.Match("56"), m.Match("57"), m.Match("61"), m.Match("100"))
	// Output: false true true true
}
