// Package provider answers the two questions the resolver asks about a
// dependency: which options it declares and which release satisfies a
// version range.
package provider

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/kontex-neuro/xvcpkg/formula"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/versions"
)

// ErrUnknownPackage is returned for a package the provider does not know.
var ErrUnknownPackage = errors.New("unknown package")

// NoMatchingVersionError reports a range that no release satisfies.
type NoMatchingVersionError struct {
	Name  string
	Range versions.Range
}

func (e *NoMatchingVersionError) Error() string {
	return fmt.Sprintf("no release of %s matches [%s]", e.Name, e.Range)
}

// Provider is the source of dependency schemas and releases.
type Provider interface {
	// QuerySchema returns the schema of name.
	QuerySchema(ctx context.Context, name string) (*Schema, error)
	// ResolveVersion returns the highest release of name within r.
	ResolveVersion(ctx context.Context, name string, r versions.Range) (string, error)
}

// Release is one published version of a package with its own requirements.
type Release struct {
	Version  string
	Requires []formula.Requirement
}

// Schema describes a package: its options with defaults, its releases and
// how consumers find it.
type Schema struct {
	Name     string
	Options  []formula.OptionDef
	Releases []Release

	// CMakeFileName is the base name of the <name>-config.cmake file.
	// Defaults to Name.
	CMakeFileName string
	// CMakeTarget is the imported target consumers link. Defaults to
	// Name::Name.
	CMakeTarget string
	Libs        []string
}

// Option returns the declaration of option name.
func (s *Schema) Option(name string) (formula.OptionDef, bool) {
	i := slices.IndexFunc(s.Options, func(d formula.OptionDef) bool { return d.Name == name })
	if i < 0 {
		return formula.OptionDef{}, false
	}
	return s.Options[i], true
}

// Defaults returns the default value of every declared option.
func (s *Schema) Defaults() formula.Options {
	opts := make(formula.Options, len(s.Options))
	for _, d := range s.Options {
		opts[d.Name] = d.Default
	}
	return opts
}

// Release returns the release with the given version.
func (s *Schema) Release(version string) (Release, bool) {
	for _, r := range s.Releases {
		if r.Version == version {
			return r, true
		}
	}
	return Release{}, false
}

// FileName returns the CMake config file base name.
func (s *Schema) FileName() string {
	if s.CMakeFileName != "" {
		return s.CMakeFileName
	}
	return s.Name
}

// Target returns the CMake imported target name.
func (s *Schema) Target() string {
	if s.CMakeTarget != "" {
		return s.CMakeTarget
	}
	return s.Name + "::" + s.Name
}
