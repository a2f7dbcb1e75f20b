// Package pkginfo publishes what a built package offers its consumers.
package pkginfo

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/mod/sumdb/dirhash"

	"github.com/kontex-neuro/xvcpkg/formula"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/module"
)

// Info describes one built package. It is not modified after publishing.
type Info struct {
	Name        string           `json:"name"`
	Version     string           `json:"version"`
	Settings    formula.Settings `json:"settings"`
	Options     formula.Options  `json:"options,omitempty"`
	Libs        []string         `json:"libs"`
	IncludeDirs []string         `json:"include_dirs"`
	LibDirs     []string         `json:"lib_dirs"`
	PackageDir  string           `json:"package_dir"`
	Requires    []string         `json:"requires,omitempty"`
	PackageID   string           `json:"package_id"`
	Revision    string           `json:"revision,omitempty"`
}

// Ref returns "name/version".
func (i *Info) Ref() module.Version {
	return module.Version{Path: i.Name, Version: i.Version}
}

// FromRecipe builds the Info a recipe declares for ctx. Directories are
// resolved against packageDir. requires lists the resolved host
// dependencies.
func FromRecipe(r *formula.Recipe, ctx formula.Context, packageDir string, requires []module.Version) Info {
	cpp := r.PackageInfo(ctx)
	info := Info{
		Name:       r.Name,
		Version:    r.Version,
		Settings:   ctx.Settings,
		Options:    ctx.Options.Clone(),
		Libs:       slices.Clone(cpp.Libs),
		PackageDir: packageDir,
	}
	for _, d := range cpp.IncludeDirs {
		info.IncludeDirs = append(info.IncludeDirs, filepath.Join(packageDir, d))
	}
	for _, d := range cpp.LibDirs {
		info.LibDirs = append(info.LibDirs, filepath.Join(packageDir, d))
	}
	for _, v := range requires {
		info.Requires = append(info.Requires, v.String())
	}
	info.PackageID = PackageID(ctx.Settings, ctx.Options, requires)
	return info
}

// PackageID identifies a binary by everything that went into it: settings,
// options and resolved dependencies. Equal inputs give equal IDs.
func PackageID(settings formula.Settings, opts formula.Options, requires []module.Version) string {
	var b strings.Builder
	b.WriteString("[settings]\n")
	b.WriteString("arch=" + settings.Arch + "\n")
	b.WriteString("build_type=" + settings.BuildType + "\n")
	b.WriteString("compiler=" + settings.Compiler + "\n")
	b.WriteString("os=" + settings.OS + "\n")
	b.WriteString("[options]\n")
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		b.WriteString(k + "=" + opts[k] + "\n")
	}
	b.WriteString("[requires]\n")
	refs := make([]string, 0, len(requires))
	for _, v := range requires {
		refs = append(refs, v.String())
	}
	slices.Sort(refs)
	for _, r := range refs {
		b.WriteString(r + "\n")
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:20])
}

// Revision hashes the installed contents of dir. A missing dir has no
// revision.
func Revision(dir string) (string, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	return dirhash.HashDir(dir, "", dirhash.Hash1)
}
