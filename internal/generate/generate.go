// Package generate writes the files the external build tool consumes: one
// CMake package config per host dependency, a toolchain file, a presets
// file, a run environment script and a lockfile of the resolved versions.
package generate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/kontex-neuro/xvcpkg/formula"
	"github.com/kontex-neuro/xvcpkg/internal/ctxlog"
	"github.com/kontex-neuro/xvcpkg/internal/layout"
	"github.com/kontex-neuro/xvcpkg/internal/modules"
	"github.com/kontex-neuro/xvcpkg/internal/options"
	"github.com/kontex-neuro/xvcpkg/internal/provider"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/module"
)

const (
	// ToolchainFile is the name of the generated toolchain file.
	ToolchainFile = "conan_toolchain.cmake"
	// PresetsFile is the name of the generated presets file.
	PresetsFile = "CMakePresets.json"
	// LockFile is the name of the generated lockfile.
	LockFile = "versions.json"
)

// Input is everything Generate needs. It is fully resolved: Generate does
// no resolution of its own.
type Input struct {
	Name     string
	Version  string
	Settings formula.Settings
	Layout   layout.Layout
	Planner  layout.Planner

	// Requirements are the declared requirements, checked against the
	// resolved graphs.
	Requirements []formula.Requirement
	Host         *modules.Graph
	Tools        *modules.Graph

	Options   options.Map
	Toolchain *formula.Toolchain
	Provider  provider.Provider
}

type dependency struct {
	node   *modules.Node
	schema *provider.Schema
	dir    string
}

// Generate writes the build tool files into in.Layout.GeneratorsDir and
// returns their paths, sorted, followed by the user presets written at the
// source root. Identical input produces byte-identical files. A requirement
// that the resolved graph does not satisfy fails with
// *modules.ResolutionConflictError before anything is written.
func Generate(ctx context.Context, in Input) ([]string, error) {
	if err := checkRequirements(in); err != nil {
		return nil, err
	}

	host, err := dependencies(ctx, in, in.Host)
	if err != nil {
		return nil, err
	}
	tools, err := dependencies(ctx, in, in.Tools)
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte)
	byName := make(map[string]*dependency, len(host))
	for _, d := range host {
		byName[d.node.Name] = d
	}
	for _, d := range host {
		config, version := configFileNames(d.schema.FileName())
		files[config] = packageConfig(d, byName, in.Options)
		files[version] = packageConfigVersion(d)
	}
	files[ToolchainFile] = toolchain(in, tools)
	files[RunEnvFileName(in.Settings)] = runEnv(in, host)

	presets, err := presets(in)
	if err != nil {
		return nil, err
	}
	files[PresetsFile] = presets

	lock, err := lockfile(in)
	if err != nil {
		return nil, err
	}
	files[LockFile] = lock

	userPath, userData, writeUser, err := userPresets(in)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(in.Layout.GeneratorsDir, 0o755); err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx)
	paths := make([]string, 0, len(files))
	for _, name := range sortedKeys(files) {
		path := filepath.Join(in.Layout.GeneratorsDir, name)
		if err := os.WriteFile(path, files[name], 0o644); err != nil {
			return nil, err
		}
		logger.Debug("generated file", "path", path)
		paths = append(paths, path)
	}

	if !writeUser {
		logger.Warn("keeping user presets not written by xvcpkg", "path", userPath)
		return paths, nil
	}
	if err := os.MkdirAll(filepath.Dir(userPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(userPath, userData, 0o644); err != nil {
		return nil, err
	}
	logger.Debug("generated file", "path", userPath)
	return append(paths, userPath), nil
}

func checkRequirements(in Input) error {
	root := module.Version{Path: in.Name, Version: in.Version}.String()
	for _, req := range in.Requirements {
		g := in.Host
		if req.Kind == formula.KindTool {
			g = in.Tools
		}
		declared := modules.Constraint{Range: req.Range, RequiredBy: root}
		var n *modules.Node
		var ok bool
		if g != nil {
			n, ok = g.Node(req.Path)
		}
		if !ok {
			return &modules.ResolutionConflictError{
				Name:   req.Path,
				First:  declared,
				Second: modules.Constraint{RequiredBy: "resolved graph (no version selected)"},
			}
		}
		if !req.Range.Contains(n.Version) {
			return &modules.ResolutionConflictError{
				Name:   req.Path,
				First:  declared,
				Second: modules.Constraint{Range: n.Range, RequiredBy: "resolved " + n.Ref().String()},
			}
		}
	}
	return nil
}

func dependencies(ctx context.Context, in Input, g *modules.Graph) ([]*dependency, error) {
	if g == nil {
		return nil, nil
	}
	deps := make([]*dependency, 0, g.Len())
	for _, n := range g.Nodes {
		s, err := in.Provider.QuerySchema(ctx, n.Name)
		if err != nil {
			return nil, err
		}
		dir, err := in.Planner.DependencyDir(n.Name, n.Version, in.Settings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.Ref(), err)
		}
		deps = append(deps, &dependency{node: n, schema: s, dir: dir})
	}
	return deps, nil
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
