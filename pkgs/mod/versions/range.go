package versions

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ConstraintParseError reports a version constraint that cannot be used:
// malformed syntax or a range that no version can satisfy.
type ConstraintParseError struct {
	Constraint string
	Reason     string
	Err        error
}

func (e *ConstraintParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid version range %q: %s: %v", e.Constraint, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid version range %q: %s", e.Constraint, e.Reason)
}

func (e *ConstraintParseError) Unwrap() error {
	return e.Err
}

type bound struct {
	v         *semver.Version // nil means unbounded
	inclusive bool
}

// Range is a parsed version constraint such as "1.81.0" (pinned) or
// ">=3.25.0 <3.30.0". All terms must hold at once. The zero Range matches
// nothing.
type Range struct {
	text  string
	terms []string
	c     *semver.Constraints

	lower, upper bound
	// excluded holds the versions of != terms.
	excluded []*semver.Version
}

// ParseRange parses a space separated list of comparison terms. Each term
// is an operator (>=, >, <=, <, =, !=, ~, ^) followed by a version; a bare
// version pins that exact version. A range that admits no version at all
// fails with *ConstraintParseError.
func ParseRange(text string) (Range, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Range{}, &ConstraintParseError{Constraint: text, Reason: "empty constraint"}
	}
	if strings.Contains(text, "||") {
		return Range{}, &ConstraintParseError{Constraint: text, Reason: "alternatives (||) are not supported"}
	}

	r := Range{text: text}
	for _, term := range splitTerms(text) {
		if err := r.add(term); err != nil {
			return Range{}, &ConstraintParseError{Constraint: text, Reason: "bad term " + term, Err: err}
		}
	}
	if r.Empty() {
		return Range{}, &ConstraintParseError{Constraint: text, Reason: "range is empty: no version satisfies all terms"}
	}
	c, err := semver.NewConstraint(strings.Join(r.terms, ", "))
	if err != nil {
		return Range{}, &ConstraintParseError{Constraint: text, Reason: "malformed constraint", Err: err}
	}
	r.c = c
	return r, nil
}

// MustParseRange is like ParseRange but panics on error.
func MustParseRange(text string) Range {
	r, err := ParseRange(text)
	if err != nil {
		panic(err)
	}
	return r
}

// splitTerms splits on white space, gluing a dangling operator (">= 1.0")
// to the version that follows it.
func splitTerms(text string) []string {
	fields := strings.Fields(text)
	terms := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if strings.Trim(f, "<>=!~^") == "" && i+1 < len(fields) {
			f += fields[i+1]
			i++
		}
		terms = append(terms, f)
	}
	return terms
}

var operators = []string{">=", "<=", "!=", ">", "<", "=", "~", "^"}

func (r *Range) add(term string) error {
	op, ver := "", term
	for _, o := range operators {
		if strings.HasPrefix(term, o) {
			op, ver = o, strings.TrimSpace(term[len(o):])
			break
		}
	}
	if core, _, _ := strings.Cut(ver, "-"); strings.ContainsAny(core, "xX*") {
		return fmt.Errorf("wildcards are not supported")
	}
	v, err := semver.NewVersion(ver)
	if err != nil {
		return err
	}
	switch op {
	case ">=":
		r.raise(bound{v, true})
	case ">":
		r.raise(bound{v, false})
	case "<=":
		r.cap(bound{v, true})
	case "<":
		r.cap(bound{v, false})
	case "", "=":
		r.raise(bound{v, true})
		r.cap(bound{v, true})
	case "~":
		r.raise(bound{v, true})
		var next semver.Version
		if strings.Count(strings.TrimPrefix(ver, "v"), ".") == 0 {
			next = v.IncMajor()
		} else {
			next = v.IncMinor()
		}
		r.cap(bound{&next, false})
	case "^":
		r.raise(bound{v, true})
		var next semver.Version
		switch {
		case v.Major() > 0:
			next = v.IncMajor()
		case v.Minor() > 0:
			next = v.IncMinor()
		default:
			next = v.IncPatch()
		}
		r.cap(bound{&next, false})
	case "!=":
		r.excluded = append(r.excluded, v)
	}
	if op == "" {
		op = "="
	}
	r.terms = append(r.terms, op+v.Original())
	return nil
}

// raise tightens the lower bound.
func (r *Range) raise(b bound) {
	if r.lower.v == nil {
		r.lower = b
		return
	}
	switch c := b.v.Compare(r.lower.v); {
	case c > 0:
		r.lower = b
	case c == 0:
		r.lower.inclusive = r.lower.inclusive && b.inclusive
	}
}

// cap tightens the upper bound.
func (r *Range) cap(b bound) {
	if r.upper.v == nil {
		r.upper = b
		return
	}
	switch c := b.v.Compare(r.upper.v); {
	case c < 0:
		r.upper = b
	case c == 0:
		r.upper.inclusive = r.upper.inclusive && b.inclusive
	}
}

// String returns the constraint text as written.
func (r Range) String() string {
	return r.text
}

// Empty reports whether no version can satisfy r. A range pinned to a
// version it also excludes is empty.
func (r Range) Empty() bool {
	if r.lower.v == nil || r.upper.v == nil {
		return false
	}
	c := r.lower.v.Compare(r.upper.v)
	if c > 0 || (c == 0 && !(r.lower.inclusive && r.upper.inclusive)) {
		return true
	}
	return c == 0 && r.excludes(r.lower.v)
}

func (r Range) excludes(v *semver.Version) bool {
	for _, x := range r.excluded {
		if x.Equal(v) {
			return true
		}
	}
	return false
}

// Pinned returns the single version r admits, if it admits exactly one.
func (r Range) Pinned() (string, bool) {
	if r.lower.v == nil || r.upper.v == nil || !r.lower.inclusive || !r.upper.inclusive {
		return "", false
	}
	if !r.lower.v.Equal(r.upper.v) {
		return "", false
	}
	return r.lower.v.Original(), true
}

// Contains reports whether version satisfies every term of r. Versions that
// are not semantic versions never match.
func (r Range) Contains(version string) bool {
	if r.c == nil {
		return false
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return r.c.Check(v)
}

// Intersect returns the range satisfied by versions matching both a and b.
// ok is false when the two ranges are disjoint.
func Intersect(a, b Range) (r Range, ok bool) {
	if a.c == nil || b.c == nil {
		return Range{}, false
	}
	if a.text == b.text {
		return a, true
	}
	r = Range{
		text:  a.text + " " + b.text,
		terms:    append(append([]string(nil), a.terms...), b.terms...),
		lower:    a.lower,
		upper:    a.upper,
		excluded: append(append([]*semver.Version(nil), a.excluded...), b.excluded...),
	}
	if b.lower.v != nil {
		r.raise(b.lower)
	}
	if b.upper.v != nil {
		r.cap(b.upper)
	}
	if r.Empty() {
		return Range{}, false
	}
	c, err := semver.NewConstraint(strings.Join(r.terms, ", "))
	if err != nil {
		return Range{}, false
	}
	r.c = c
	return r, true
}
