// Package profile loads build profiles: the settings, recipe options and
// tool configuration of a build, kept in YAML files.
//
//	settings:
//	  os: Linux
//	  compiler: gcc12
//	  build_type: Release
//	  arch: x86_64
//	options:
//	  build_testing: true
//	conf:
//	  cmake: /opt/cmake/bin/cmake
package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/kontex-neuro/xvcpkg/formula"
	"github.com/kontex-neuro/xvcpkg/internal/env"
)

// Ext is the file extension of named profiles.
const Ext = ".yaml"

// Profile is one build configuration.
type Profile struct {
	Settings formula.Settings `json:"settings"`
	// Options holds values for the recipe's own options.
	Options map[string]any `json:"options,omitempty"`
	Conf    Conf           `json:"conf,omitempty"`
}

// Conf configures the tools and locations a build uses.
type Conf struct {
	// CMake is the cmake executable; "cmake" from PATH when empty.
	CMake string `json:"cmake,omitempty"`
	// Catalog is an HCL package catalog replacing the builtin one.
	Catalog string `json:"catalog,omitempty"`
	// Workspace holds installed packages and published infos.
	Workspace string `json:"workspace,omitempty"`
}

// Default returns the profile of the host with a Release build type.
func Default() *Profile {
	p := &Profile{Settings: formula.Settings{BuildType: "Release"}}
	switch runtime.GOOS {
	case "windows":
		p.Settings.OS, p.Settings.Compiler = "Windows", "msvc193"
	case "darwin":
		p.Settings.OS, p.Settings.Compiler = "Macos", "apple-clang15"
	default:
		p.Settings.OS, p.Settings.Compiler = "Linux", "gcc12"
	}
	switch runtime.GOARCH {
	case "arm64":
		p.Settings.Arch = "armv8"
	case "386":
		p.Settings.Arch = "x86"
	default:
		p.Settings.Arch = "x86_64"
	}
	return p
}

// Parse decodes a profile. Settings left out keep the host defaults;
// unknown fields are rejected.
func Parse(data []byte) (*Profile, error) {
	p := Default()
	if err := yaml.UnmarshalStrict(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return p, nil
}

// Load reads the profile at ref. A ref without a path separator that names
// no file is looked up in env.ProfilesDir.
func Load(ref string) (*Profile, error) {
	data, err := os.ReadFile(ref)
	if errors.Is(err, fs.ErrNotExist) && !strings.ContainsAny(ref, `/\`) {
		var dir string
		if dir, err = env.ProfilesDir(); err != nil {
			return nil, err
		}
		name := ref
		if filepath.Ext(name) == "" {
			name += Ext
		}
		data, err = os.ReadFile(filepath.Join(dir, name))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %q: %w", ref, err)
	}
	return Parse(data)
}

// Apply layers "key=value" assignments onto p: settings first, then
// recipe options.
func (p *Profile) Apply(settings, options []string) error {
	for _, kv := range settings {
		k, v, err := splitAssign(kv)
		if err != nil {
			return err
		}
		if err := p.Settings.Set(k, v); err != nil {
			return err
		}
	}
	for _, kv := range options {
		k, v, err := splitAssign(kv)
		if err != nil {
			return err
		}
		if p.Options == nil {
			p.Options = make(map[string]any)
		}
		p.Options[k] = v
	}
	return nil
}

func splitAssign(kv string) (string, string, error) {
	k, v, ok := strings.Cut(kv, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", "", fmt.Errorf("invalid assignment %q, want key=value", kv)
	}
	return k, strings.TrimSpace(v), nil
}

// RecipeOptions returns the recipe option values in canonical form.
func (p *Profile) RecipeOptions() map[string]string {
	out := make(map[string]string, len(p.Options))
	for k, v := range p.Options {
		out[k] = formula.FormatValue(v)
	}
	return out
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Options = maps.Clone(p.Options)
	return &c
}

// Marshal encodes p as YAML.
func (p *Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
