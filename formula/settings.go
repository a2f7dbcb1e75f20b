package formula

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Settings is the configuration tuple fixed for one build invocation.
type Settings struct {
	OS        string `json:"os"`
	Compiler  string `json:"compiler"`
	BuildType string `json:"build_type"`
	Arch      string `json:"arch"`
}

// BuildTypes lists the accepted values of Settings.BuildType.
var BuildTypes = []string{"Debug", "Release", "RelWithDebInfo", "MinSizeRel"}

// Validate reports the first missing or unsupported setting.
func (s Settings) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"os", s.OS},
		{"compiler", s.Compiler},
		{"build_type", s.BuildType},
		{"arch", s.Arch},
	} {
		if f.value == "" {
			return fmt.Errorf("setting %s is not defined", f.name)
		}
		if strings.ContainsAny(f.value, `/\ `) {
			return fmt.Errorf("setting %s=%q contains a path separator or space", f.name, f.value)
		}
	}
	if !slices.Contains(BuildTypes, s.BuildType) {
		return fmt.Errorf("setting build_type=%q is not one of %v", s.BuildType, BuildTypes)
	}
	return nil
}

// String renders s as "os-compiler-build_type-arch", the key used for
// layout and cache directories.
func (s Settings) String() string {
	return s.OS + "-" + s.Compiler + "-" + s.BuildType + "-" + s.Arch
}

// MultiConfig reports whether the toolchain selected by s builds every
// build type from one build tree (Visual Studio style generators).
func (s Settings) MultiConfig() bool {
	return strings.HasPrefix(strings.ToLower(s.Compiler), "msvc")
}

// Set assigns a setting by its key.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "os":
		s.OS = value
	case "compiler":
		s.Compiler = value
	case "build_type":
		s.BuildType = value
	case "arch":
		s.Arch = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// Matrix holds candidate values per setting key. Keys are setting names as
// accepted by Settings.Set.
type Matrix map[string][]string

// Expand returns the cartesian product of m applied on top of base. Keys are
// visited alphabetically and values in declaration order, so the result is
// stable. An empty matrix expands to base alone.
func (m Matrix) Expand(base Settings) ([]Settings, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []Settings{base}
	for _, k := range keys {
		values := m[k]
		if len(values) == 0 {
			continue
		}
		next := make([]Settings, 0, len(result)*len(values))
		for _, prev := range result {
			for _, v := range values {
				s := prev
				if err := s.Set(k, v); err != nil {
					return nil, err
				}
				next = append(next, s)
			}
		}
		result = next
	}
	return result, nil
}

// Count returns the number of combinations Expand yields.
func (m Matrix) Count() int {
	count := 1
	for _, v := range m {
		if len(v) > 0 {
			count *= len(v)
		}
	}
	return count
}
