package options

import (
	"cmp"
	"maps"
	"slices"

	"github.com/kontex-neuro/xvcpkg/formula"
)

// Key addresses one option of one package.
type Key struct {
	Package string `json:"package"`
	Option  string `json:"option"`
}

func (k Key) String() string {
	return k.Package + ":" + k.Option
}

// Source tells which layer wrote an entry.
type Source int

const (
	// SourceDefault is the package's published default.
	SourceDefault Source = iota
	// SourceOverride is a targeted override.
	SourceOverride
	// SourceRule is a bulk rule.
	SourceRule
)

func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceOverride:
		return "override"
	case SourceRule:
		return "rule"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Entry is the effective value of one option.
type Entry struct {
	Key
	Value  string `json:"value"`
	Source Source `json:"source"`
}

// Map is an effective option map. It is never modified once built; pass
// it by value.
type Map struct {
	entries map[Key]Entry
}

// Lookup returns the entry of pkg's option.
func (m Map) Lookup(pkg, option string) (Entry, bool) {
	e, ok := m.entries[Key{pkg, option}]
	return e, ok
}

// Get returns the value of pkg's option.
func (m Map) Get(pkg, option string) (string, bool) {
	e, ok := m.Lookup(pkg, option)
	return e.Value, ok
}

// Len returns the number of entries.
func (m Map) Len() int {
	return len(m.entries)
}

// Entries returns every entry ordered by package then option.
func (m Map) Entries() []Entry {
	out := slices.Collect(maps.Values(m.entries))
	slices.SortFunc(out, func(a, b Entry) int {
		return cmp.Or(cmp.Compare(a.Package, b.Package), cmp.Compare(a.Option, b.Option))
	})
	return out
}

// Packages returns the packages with at least one entry, sorted.
func (m Map) Packages() []string {
	var pkgs []string
	for k := range m.entries {
		if !slices.Contains(pkgs, k.Package) {
			pkgs = append(pkgs, k.Package)
		}
	}
	slices.Sort(pkgs)
	return pkgs
}

// Package returns the option values of pkg.
func (m Map) Package(pkg string) formula.Options {
	opts := make(formula.Options)
	for k, e := range m.entries {
		if k.Package == pkg {
			opts[k.Option] = e.Value
		}
	}
	return opts
}

// Equal reports whether m and o hold the same entries.
func (m Map) Equal(o Map) bool {
	return maps.Equal(m.entries, o.entries)
}
