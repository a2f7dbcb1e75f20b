// Package build runs the lifecycle of one package build: requirements,
// layout, generate, build, package, export info and publish. Phases run
// strictly in order and the first failure stops the build.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/kontex-neuro/xvcpkg/formula"
	"github.com/kontex-neuro/xvcpkg/internal/ctxlog"
	"github.com/kontex-neuro/xvcpkg/internal/generate"
	"github.com/kontex-neuro/xvcpkg/internal/layout"
	"github.com/kontex-neuro/xvcpkg/internal/lockedfile"
	"github.com/kontex-neuro/xvcpkg/internal/modules"
	"github.com/kontex-neuro/xvcpkg/internal/options"
	"github.com/kontex-neuro/xvcpkg/internal/pkginfo"
	"github.com/kontex-neuro/xvcpkg/internal/provider"
	"github.com/kontex-neuro/xvcpkg/pkgs/buildsys"
	"github.com/kontex-neuro/xvcpkg/pkgs/buildsys/cmake"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/module"
)

// lockFile serializes builds sharing a build directory.
const lockFile = ".xvcpkg.lock"

// ToolConfig is what a build tool needs to drive one build tree.
type ToolConfig struct {
	Layout    layout.Layout
	Settings  formula.Settings
	Generator string
	Toolchain string
	// Preset is the configure preset of the generated presets file.
	Preset string
	// ToolDirs are the package dirs of the resolved build tools.
	ToolDirs []string
	// Bin overrides the build tool executable.
	Bin    string
	Output io.Writer
}

// NewCMakeTool returns the CMake driver for cfg.
func NewCMakeTool(cfg ToolConfig) buildsys.Tool {
	c := cmake.New(cfg.Layout.SourceDir, cfg.Layout.BuildDir).
		Generator(cfg.Generator).
		BuildType(cfg.Settings.BuildType).
		Toolchain(cfg.Toolchain).
		InstallDir(cfg.Layout.PackageDir).
		Output(cfg.Output)
	if cfg.Bin != "" {
		c.Bin(cfg.Bin)
	}
	if cfg.Preset != "" {
		c.Preset(cfg.Preset)
	}
	for _, dir := range cfg.ToolDirs {
		c.Use(dir)
	}
	return c
}

// Builder builds recipes against a dependency provider.
type Builder struct {
	Provider provider.Provider
	// Root is the source tree of the recipe.
	Root string
	// Workspace holds installed packages and published infos.
	Workspace string
	// Store, if set, receives the published package info.
	Store *pkginfo.Store

	// NewTool creates the build tool; NewCMakeTool when nil.
	NewTool func(ToolConfig) buildsys.Tool
	// ToolBin overrides the build tool executable.
	ToolBin string
	// Output mirrors the build tool output.
	Output io.Writer
}

// Input is the caller-provided configuration of one build.
type Input struct {
	Settings formula.Settings
	// Options holds values for the recipe's own options.
	Options map[string]string
}

// Result is what a build produced. Completed lists the phases that
// finished, in order.
type Result struct {
	Recipe       *formula.Recipe
	Context      formula.Context
	Requirements []formula.Requirement

	Host  *modules.Graph
	Tools *modules.Graph

	DependencyOptions options.Map
	Shadows           []options.Shadow

	Layout layout.Layout
	Files  []string
	Info   *pkginfo.Info

	Completed []Phase
}

// Build runs every phase for recipe. Declaration errors (invalid settings,
// options or version constraints) are returned before any phase starts.
// A failing phase is reported as *PhaseError; a failing build tool also
// matches *BuildToolError. The returned Result is non-nil once a phase
// has started.
func (b *Builder) Build(ctx context.Context, recipe *formula.Recipe, in Input) (*Result, error) {
	res, err := b.declare(recipe, in)
	if err != nil {
		return nil, err
	}
	if err := b.plan(ctx, res); err != nil {
		return res, err
	}

	var unlock func()
	defer func() {
		if unlock != nil {
			unlock()
		}
	}()

	err = b.run(ctx, res, PhaseGenerate, func() error {
		u, err := lockedfile.MutexAt(filepath.Join(res.Layout.BuildDir, lockFile)).Lock()
		if err != nil {
			return err
		}
		unlock = u
		res.Files, err = generate.Generate(ctx, b.generateInput(res))
		return err
	})
	if err != nil {
		return res, err
	}

	var tool buildsys.Tool
	err = b.run(ctx, res, PhaseBuild, func() error {
		var err error
		if tool, err = b.tool(res); err != nil {
			return err
		}
		if err := tool.Configure(ctx); err != nil {
			return err
		}
		return tool.Build(ctx)
	})
	if err != nil {
		return res, err
	}

	err = b.run(ctx, res, PhasePackage, func() error {
		return tool.Install(ctx)
	})
	if err != nil {
		return res, err
	}

	err = b.run(ctx, res, PhaseExportInfo, func() error {
		var requires []module.Version
		for _, n := range res.Host.Filter(formula.KindLink) {
			requires = append(requires, n.Ref())
		}
		info := pkginfo.FromRecipe(recipe, res.Context, res.Layout.PackageDir, requires)
		res.Info = &info
		return nil
	})
	if err != nil {
		return res, err
	}

	err = b.run(ctx, res, PhasePublish, func() error {
		rev, err := pkginfo.Revision(res.Layout.PackageDir)
		if err != nil {
			return err
		}
		res.Info.Revision = rev
		if b.Store == nil {
			return nil
		}
		return b.Store.Publish(*res.Info)
	})
	return res, err
}

// Plan runs the side-effect free phases, Requirements and Layout.
func (b *Builder) Plan(ctx context.Context, recipe *formula.Recipe, in Input) (*Result, error) {
	res, err := b.declare(recipe, in)
	if err != nil {
		return nil, err
	}
	return res, b.plan(ctx, res)
}

// declare validates the input and collects the recipe's requirements.
func (b *Builder) declare(recipe *formula.Recipe, in Input) (*Result, error) {
	if err := in.Settings.Validate(); err != nil {
		return nil, err
	}
	opts, err := options.ResolveOwn(recipe.Name, recipe.Options, in.Options)
	if err != nil {
		return nil, err
	}
	rctx := formula.Context{Settings: in.Settings, Options: opts}

	reqs, err := recipe.BuildRequirements(rctx)
	if err != nil {
		return nil, err
	}
	links, err := recipe.Requirements(rctx)
	if err != nil {
		return nil, err
	}
	return &Result{
		Recipe:       recipe,
		Context:      rctx,
		Requirements: append(reqs, links...),
	}, nil
}

func (b *Builder) plan(ctx context.Context, res *Result) error {
	err := b.run(ctx, res, PhaseRequirements, func() error {
		var host, tools []formula.Requirement
		for _, r := range res.Requirements {
			if r.Kind == formula.KindTool {
				tools = append(tools, r)
			} else {
				host = append(host, r)
			}
		}
		ref := res.Recipe.Ref()
		var err error
		if res.Host, err = modules.Resolve(ctx, b.Provider, ref, host); err != nil {
			return err
		}
		if res.Tools, err = modules.Resolve(ctx, b.Provider, ref, tools); err != nil {
			return err
		}
		cfg := res.Recipe.Configure(res.Context)
		res.DependencyOptions, res.Shadows, err = options.Resolve(ctx, b.Provider, res.Host.Versions(), cfg.Overrides(), cfg.Rules())
		return err
	})
	if err != nil {
		return err
	}

	return b.run(ctx, res, PhaseLayout, func() error {
		var err error
		res.Layout, err = b.planner(res.Recipe).Plan(res.Context.Settings)
		return err
	})
}

func (b *Builder) planner(recipe *formula.Recipe) layout.Planner {
	return layout.Planner{Root: b.Root, Workspace: b.Workspace, Name: recipe.Name, Version: recipe.Version}
}

func (b *Builder) generateInput(res *Result) generate.Input {
	return generate.Input{
		Name:         res.Recipe.Name,
		Version:      res.Recipe.Version,
		Settings:     res.Context.Settings,
		Layout:       res.Layout,
		Planner:      b.planner(res.Recipe),
		Requirements: res.Requirements,
		Host:         res.Host,
		Tools:        res.Tools,
		Options:      res.DependencyOptions,
		Toolchain:    res.Recipe.Toolchain(res.Context),
		Provider:     b.Provider,
	}
}

func (b *Builder) tool(res *Result) (buildsys.Tool, error) {
	planner := b.planner(res.Recipe)
	var toolDirs []string
	for _, n := range res.Tools.Nodes {
		dir, err := planner.DependencyDir(n.Name, n.Version, res.Context.Settings)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", n.Ref(), err)
		}
		toolDirs = append(toolDirs, dir)
	}
	cfg := ToolConfig{
		Layout:    res.Layout,
		Settings:  res.Context.Settings,
		Generator: generate.Generator(res.Recipe.Toolchain(res.Context)),
		Toolchain: filepath.Join(res.Layout.GeneratorsDir, generate.ToolchainFile),
		Preset:    generate.PresetName(res.Context.Settings),
		ToolDirs:  toolDirs,
		Bin:       b.ToolBin,
		Output:    b.Output,
	}
	if b.NewTool != nil {
		return b.NewTool(cfg), nil
	}
	return NewCMakeTool(cfg), nil
}

// run executes one phase. A phase never starts after ctx is done.
func (b *Builder) run(ctx context.Context, res *Result, p Phase, f func() error) error {
	logger := ctxlog.FromContext(ctx).With("phase", p.String())
	if slices.Contains(res.Completed, p) {
		return &PhaseError{Phase: p, Err: fmt.Errorf("phase already completed")}
	}
	if err := ctx.Err(); err != nil {
		return &PhaseError{Phase: p, Err: err}
	}

	logger.Info("phase started", "package", res.Recipe.Ref().String())
	if err := f(); err != nil {
		var ee *buildsys.ExitError
		if errors.As(err, &ee) {
			err = &BuildToolError{Phase: p, Cmd: ee.Cmd, ExitCode: ee.Code, Output: ee.Output}
		}
		logger.Error("phase failed", "error", err)
		return &PhaseError{Phase: p, Err: err}
	}
	res.Completed = append(res.Completed, p)
	logger.Debug("phase completed")
	return nil
}
