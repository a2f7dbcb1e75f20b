package generate

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/kontex-neuro/xvcpkg/formula"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/versions"
)

// DefaultGenerator is used when the recipe does not pick one.
const DefaultGenerator = "Ninja"

type cmakeVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

type configurePreset struct {
	Name           string            `json:"name"`
	DisplayName    string            `json:"displayName"`
	Description    string            `json:"description"`
	Generator      string            `json:"generator"`
	BinaryDir      string            `json:"binaryDir"`
	ToolchainFile  string            `json:"toolchainFile"`
	CacheVariables map[string]string `json:"cacheVariables"`
}

type stepPreset struct {
	Name            string `json:"name"`
	ConfigurePreset string `json:"configurePreset"`
	Configuration   string `json:"configuration,omitempty"`
}

type presetsFile struct {
	Version              int               `json:"version"`
	CMakeMinimumRequired cmakeVersion      `json:"cmakeMinimumRequired"`
	ConfigurePresets     []configurePreset `json:"configurePresets"`
	BuildPresets         []stepPreset      `json:"buildPresets"`
	TestPresets          []stepPreset      `json:"testPresets"`
}

// PresetName returns the name of the presets generated for settings.
func PresetName(settings formula.Settings) string {
	if settings.MultiConfig() {
		return "xvcpkg-default"
	}
	return "xvcpkg-" + strings.ToLower(settings.BuildType)
}

// Generator returns the generator identity of tc, DefaultGenerator if unset.
func Generator(tc *formula.Toolchain) string {
	if tc == nil || tc.Generator == "" {
		return DefaultGenerator
	}
	return tc.Generator
}

func presets(in Input) ([]byte, error) {
	cache := make(map[string]string)
	if !in.Settings.MultiConfig() {
		cache["CMAKE_BUILD_TYPE"] = in.Settings.BuildType
	}
	if in.Toolchain != nil {
		for _, v := range in.Toolchain.Variables() {
			value, _ := cacheValue(v)
			cache[v.Name] = strings.Trim(value, `"`)
		}
	}

	name := PresetName(in.Settings)
	var config string
	if in.Settings.MultiConfig() {
		config = in.Settings.BuildType
	}
	f := presetsFile{
		Version:              3,
		CMakeMinimumRequired: cmakeVersion{Major: 3, Minor: 15},
		ConfigurePresets: []configurePreset{{
			Name:           name,
			DisplayName:    "'" + name + "' config",
			Description:    in.Name + "/" + in.Version + " " + in.Settings.String(),
			Generator:      Generator(in.Toolchain),
			BinaryDir:      filepath.ToSlash(in.Layout.BuildDir),
			ToolchainFile:  filepath.ToSlash(filepath.Join(in.Layout.GeneratorsDir, ToolchainFile)),
			CacheVariables: cache,
		}},
		BuildPresets: []stepPreset{{Name: name, ConfigurePreset: name, Configuration: config}},
		TestPresets:  []stepPreset{{Name: name, ConfigurePreset: name, Configuration: config}},
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func lockfile(in Input) ([]byte, error) {
	v := &versions.Versions{ModuleID: in.Name, Version: in.Version, Dependencies: map[string]versions.Dependency{}}
	if in.Host != nil {
		for _, n := range in.Host.Nodes {
			v.Dependencies[n.Name] = versions.Dependency{ModuleID: n.Name, Version: n.Version, Range: n.Range.String()}
		}
	}
	if in.Tools != nil && in.Tools.Len() > 0 {
		v.BuildDependencies = make(map[string]versions.Dependency, in.Tools.Len())
		for _, n := range in.Tools.Nodes {
			v.BuildDependencies[n.Name] = versions.Dependency{ModuleID: n.Name, Version: n.Version, Range: n.Range.String()}
		}
	}
	return v.Marshal()
}
