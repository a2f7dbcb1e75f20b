// Package formula declares how a native package is required, configured,
// built and consumed. A Recipe is a static declaration: its callbacks are
// pure functions of the build Context.
package formula

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/kontex-neuro/xvcpkg/pkgs/mod/module"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/versions"
)

// -----------------------------------------------------------------------------

// Kind tells how a requirement is consumed.
type Kind int

const (
	// KindLink is a library linked into the package.
	KindLink Kind = iota
	// KindTool is an executable needed only while building.
	KindTool
	// KindTest is a library needed only by the package's tests.
	KindTest
)

func (k Kind) String() string {
	switch k {
	case KindLink:
		return "link"
	case KindTool:
		return "tool"
	case KindTest:
		return "test"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Requirement is a declared dependency with its version constraint.
type Requirement struct {
	Path  string
	Range versions.Range
	Kind  Kind
}

// String returns the reference form, "name/[constraint]".
func (r Requirement) String() string {
	if v, ok := r.Range.Pinned(); ok {
		return module.Version{Path: r.Path, Version: v}.String()
	}
	return r.Path + "/[" + r.Range.String() + "]"
}

// ParseRequirement parses a "name/version" or "name/[range]" reference.
// Any problem is reported as *versions.ConstraintParseError.
func ParseRequirement(ref string, kind Kind) (Requirement, error) {
	path, constraint, err := module.SplitRef(ref)
	if err != nil {
		return Requirement{}, &versions.ConstraintParseError{Constraint: ref, Reason: "malformed reference", Err: err}
	}
	r, err := versions.ParseRange(constraint)
	if err != nil {
		return Requirement{}, err
	}
	return Requirement{Path: path, Range: r, Kind: kind}, nil
}

// ModuleDeps collects the dependencies a recipe declares.
type ModuleDeps struct {
	deps []Requirement
	errs []error
}

// Deps returns the collected requirements in declaration order.
func (p *ModuleDeps) Deps() []Requirement {
	return slices.Clone(p.deps)
}

// Err returns the declaration errors, joined.
func (p *ModuleDeps) Err() error {
	return errors.Join(p.errs...)
}

// Require declares a library the package links against.
func (p *ModuleDeps) Require(ref string) {
	p.add(ref, KindLink)
}

// ToolRequire declares an executable used during the build.
func (p *ModuleDeps) ToolRequire(ref string) {
	p.add(ref, KindTool)
}

// TestRequire declares a library used only by tests.
func (p *ModuleDeps) TestRequire(ref string) {
	p.add(ref, KindTest)
}

func (p *ModuleDeps) add(ref string, kind Kind) {
	r, err := ParseRequirement(ref, kind)
	if err != nil {
		p.errs = append(p.errs, err)
		return
	}
	p.deps = append(p.deps, r)
}

// -----------------------------------------------------------------------------

// Variable is a toolchain variable handed to the build tool.
type Variable struct {
	Name   string
	Value  string
	IsBool bool
}

// Toolchain describes the build tool configuration a recipe asks for.
type Toolchain struct {
	Generator string
	vars      map[string]Variable
}

// Set defines a toolchain variable. Booleans are kept as booleans so the
// generator can emit them as such.
func (t *Toolchain) Set(name string, value any) {
	if t.vars == nil {
		t.vars = make(map[string]Variable)
	}
	v := Variable{Name: name, Value: FormatValue(value)}
	if b, ok := value.(bool); ok {
		v.Value, v.IsBool = strconv.FormatBool(b), true
	}
	t.vars[name] = v
}

// Variables returns the variables sorted by name.
func (t *Toolchain) Variables() []Variable {
	names := slices.Sorted(maps.Keys(t.vars))
	out := make([]Variable, 0, len(names))
	for _, n := range names {
		out = append(out, t.vars[n])
	}
	return out
}

// CppInfo is what a built package exposes to its consumers. Directories are
// relative to the package folder.
type CppInfo struct {
	Libs        []string
	IncludeDirs []string
	LibDirs     []string
}

// Context is the read-only input of every recipe callback.
type Context struct {
	Settings Settings
	Options  Options
}

// -----------------------------------------------------------------------------

// Recipe is the build formula of one package.
type Recipe struct {
	Name        string
	Version     string
	License     string
	URL         string
	Description string

	// Options declares the recipe's own options.
	Options []OptionDef

	fOnBuildRequire func(ctx Context, deps *ModuleDeps)
	fOnRequire      func(ctx Context, deps *ModuleDeps)
	fOnConfigure    func(ctx Context, cfg *Config)
	fOnGenerate     func(ctx Context, tc *Toolchain)
	fOnPackageInfo  func(ctx Context, info *CppInfo)
}

// Ref returns the recipe's own reference.
func (r *Recipe) Ref() module.Version {
	return module.Version{Path: r.Name, Version: r.Version}
}

// OnBuildRequire registers the declaration of tool and test requirements.
func (r *Recipe) OnBuildRequire(f func(ctx Context, deps *ModuleDeps)) {
	r.fOnBuildRequire = f
}

// OnRequire registers the declaration of link requirements.
func (r *Recipe) OnRequire(f func(ctx Context, deps *ModuleDeps)) {
	r.fOnRequire = f
}

// OnConfigure registers the dependency option directives.
func (r *Recipe) OnConfigure(f func(ctx Context, cfg *Config)) {
	r.fOnConfigure = f
}

// OnGenerate registers the toolchain customization.
func (r *Recipe) OnGenerate(f func(ctx Context, tc *Toolchain)) {
	r.fOnGenerate = f
}

// OnPackageInfo registers the description of the built package.
func (r *Recipe) OnPackageInfo(f func(ctx Context, info *CppInfo)) {
	r.fOnPackageInfo = f
}

// Requirements returns the link requirements for ctx.
func (r *Recipe) Requirements(ctx Context) ([]Requirement, error) {
	return collect(ctx, r.fOnRequire)
}

// BuildRequirements returns the tool and test requirements for ctx.
func (r *Recipe) BuildRequirements(ctx Context) ([]Requirement, error) {
	return collect(ctx, r.fOnBuildRequire)
}

func collect(ctx Context, f func(Context, *ModuleDeps)) ([]Requirement, error) {
	if f == nil {
		return nil, nil
	}
	deps := &ModuleDeps{}
	f(ctx, deps)
	if err := deps.Err(); err != nil {
		return nil, err
	}
	return deps.Deps(), nil
}

// Configure returns the dependency option directives for ctx.
func (r *Recipe) Configure(ctx Context) *Config {
	cfg := &Config{}
	if r.fOnConfigure != nil {
		r.fOnConfigure(ctx, cfg)
	}
	return cfg
}

// Toolchain returns the toolchain description for ctx.
func (r *Recipe) Toolchain(ctx Context) *Toolchain {
	tc := &Toolchain{}
	if r.fOnGenerate != nil {
		r.fOnGenerate(ctx, tc)
	}
	return tc
}

// PackageInfo returns what the built package exposes. Include and library
// directories default to "include" and "lib".
func (r *Recipe) PackageInfo(ctx Context) CppInfo {
	info := CppInfo{}
	if r.fOnPackageInfo != nil {
		r.fOnPackageInfo(ctx, &info)
	}
	if info.IncludeDirs == nil {
		info.IncludeDirs = []string{"include"}
	}
	if info.LibDirs == nil {
		info.LibDirs = []string{"lib"}
	}
	return info
}
