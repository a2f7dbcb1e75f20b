// Package module defines the module.Version type along with support code.
package module

import (
	"fmt"
	"path/filepath"
	"strings"
)

// A Version (for clients, a module.Version) represents a specific version
// of a package identified by its path.
type Version struct {
	Path    string // Package name, e.g. "boost"
	Version string // Version string (e.g., "1.81.0")
}

// String returns the "path/version" reference form of v.
func (v Version) String() string {
	if v.Version == "" {
		return v.Path
	}
	return v.Path + "/" + v.Version
}

// EscapePath returns the escaped form of the given module path as a valid
// file system path. It fails if the module path is invalid.
func EscapePath(path string) (escaped string, err error) {
	return filepath.Localize(path)
}

// SplitRef splits a package reference of the form "name/constraint" into
// its name and constraint text. A constraint in brackets ("name/[>=1.0 <2]")
// is returned without the brackets.
func SplitRef(ref string) (path, constraint string, err error) {
	path, constraint, ok := strings.Cut(strings.TrimSpace(ref), "/")
	if !ok || path == "" || constraint == "" {
		return "", "", fmt.Errorf("invalid reference %q: want name/version", ref)
	}
	if strings.HasPrefix(constraint, "[") {
		if !strings.HasSuffix(constraint, "]") {
			return "", "", fmt.Errorf("invalid reference %q: unterminated version range", ref)
		}
		constraint = strings.TrimSpace(constraint[1 : len(constraint)-1])
		if constraint == "" {
			return "", "", fmt.Errorf("invalid reference %q: empty version range", ref)
		}
	}
	return path, constraint, nil
}
