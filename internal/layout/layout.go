// Package layout derives the on-disk directories of a build from its
// settings.
//
// A build of package p at version v under settings s uses:
//
//	<Root>/                               # recipe source tree (SourceDir)
//	  build/<BuildType>/                  # BuildDir, single-config toolchains
//	  build/                              # BuildDir, multi-config toolchains
//	    generators/                       # GeneratorsDir
//	<Workspace>/
//	  <p>@<v>-<s>/                        # PackageDir
//	    include/
//	    lib/
package layout

import (
	"fmt"
	"path/filepath"

	"github.com/kontex-neuro/xvcpkg/formula"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/module"
)

// Layout is the set of directories one build uses.
type Layout struct {
	SourceDir     string `json:"source_dir"`
	BuildDir      string `json:"build_dir"`
	GeneratorsDir string `json:"generators_dir"`
	PackageDir    string `json:"package_dir"`
}

// Planner plans layouts for one package.
type Planner struct {
	// Root is the source tree of the package.
	Root string
	// Workspace holds installed packages.
	Workspace string

	Name    string
	Version string
}

// Plan returns the layout for settings. It only computes paths.
func (p Planner) Plan(settings formula.Settings) (Layout, error) {
	pkgDir, err := p.DependencyDir(p.Name, p.Version, settings)
	if err != nil {
		return Layout{}, err
	}
	buildDir := filepath.Join(p.Root, "build")
	if !settings.MultiConfig() {
		buildDir = filepath.Join(buildDir, settings.BuildType)
	}
	return Layout{
		SourceDir:     filepath.Clean(p.Root),
		BuildDir:      buildDir,
		GeneratorsDir: filepath.Join(buildDir, "generators"),
		PackageDir:    pkgDir,
	}, nil
}

// DependencyDir returns where package name at version is installed for
// settings.
func (p Planner) DependencyDir(name, version string, settings formula.Settings) (string, error) {
	escaped, err := module.EscapePath(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(p.Workspace, fmt.Sprintf("%s@%s-%s", escaped, version, settings)), nil
}
