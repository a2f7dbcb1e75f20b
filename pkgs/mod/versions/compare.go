package versions

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Compare orders two version strings. Versions that both parse as semantic
// versions are compared by semver precedence; anything else falls back to a
// natural ordering where digit runs compare numerically, so "1.10" sorts
// after "1.9" and "cci.20230101" after "cci.20221231".
func Compare(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return naturalCompare(a, b)
}

func naturalCompare(a, b string) int {
	for a != "" && b != "" {
		da, db := isDigit(a[0]), isDigit(b[0])
		if da != db {
			// digits sort before letters and separators
			if da {
				return -1
			}
			return 1
		}
		var ra, rb string
		if da {
			ra, a = leadingRun(a, isDigit)
			rb, b = leadingRun(b, isDigit)
			ra = strings.TrimLeft(ra, "0")
			rb = strings.TrimLeft(rb, "0")
			if len(ra) != len(rb) {
				return sign(len(ra) - len(rb))
			}
		} else {
			ra, a = leadingRun(a, notDigit)
			rb, b = leadingRun(b, notDigit)
		}
		if c := strings.Compare(ra, rb); c != 0 {
			return c
		}
	}
	return sign(len(a) - len(b))
}

func leadingRun(s string, keep func(byte) bool) (run, rest string) {
	i := 0
	for i < len(s) && keep(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func notDigit(c byte) bool { return !isDigit(c) }

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
