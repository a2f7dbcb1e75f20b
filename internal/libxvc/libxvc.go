// Package libxvc is the recipe of the XDAQ video capture library.
package libxvc

import (
	"github.com/kontex-neuro/xvcpkg/formula"
)

const (
	Name    = "libxvc"
	Version = "0.0.3"
)

// BuildTesting is the option that enables the library's tests.
const BuildTesting = "build_testing"

// DisabledBoostComponents are the boost libraries libxvc never uses. They
// are switched off, in this order, after the explicit boost options.
var DisabledBoostComponents = []string{
	"charconv",
	"chrono",
	"cobalt",
	"container",
	"context",
	"contract",
	"coroutine",
	"date_time",
	"exception",
	"fiber",
	"graph",
	"graph_parallel",
	"iostreams",
	"json",
	"log",
	"math",
	"mpi",
	"nowide",
	"python",
	"random",
	"regex",
	"serialization",
	"test",
	"thread",
	"timer",
	"type_erasure",
	"url",
	"wave",
}

// Recipe returns the libxvc recipe.
func Recipe() *formula.Recipe {
	r := &formula.Recipe{
		Name:        Name,
		Version:     Version,
		URL:         "https://github.com/kontex-neuro/libxvc.git",
		Description: "XDAQ Video Capture library",
		Options:     []formula.OptionDef{formula.BoolOption(BuildTesting, false)},
	}

	r.OnBuildRequire(func(ctx formula.Context, deps *formula.ModuleDeps) {
		deps.ToolRequire("cmake/[>=3.25.0 <3.30.0]")
		deps.ToolRequire("ninja/[>=1.12.0]")
		if ctx.Options.Bool(BuildTesting) {
			deps.TestRequire("gtest/1.14.0")
		}
	})

	r.OnRequire(func(ctx formula.Context, deps *formula.ModuleDeps) {
		deps.Require("boost/1.81.0")
		deps.Require("fmt/10.2.1")
		deps.Require("spdlog/1.13.0")
		deps.Require("nlohmann_json/3.11.3")
		deps.Require("cpr/1.10.5")
		deps.Require("xdaqmetadata/0.0.1")
	})

	r.OnConfigure(func(ctx formula.Context, cfg *formula.Config) {
		cfg.Set("boost/*", "with_atomic", true)
		cfg.Set("boost/*", "with_system", true)
		cfg.Set("boost/*", "with_filesystem", true)
		cfg.Set("boost/*", "with_program_options", true)

		cfg.Set("boost/*", "with_stacktrace_backtrace", false)
		cfg.Set("boost/*", "without_stacktrace", true)
		cfg.Set("boost/*", "without_locale", true)

		cfg.Disable("boost/*", DisabledBoostComponents...)
	})

	r.OnGenerate(func(ctx formula.Context, tc *formula.Toolchain) {
		tc.Generator = "Ninja"
		tc.Set("BUILD_TESTING", ctx.Options.Bool(BuildTesting))
	})

	r.OnPackageInfo(func(ctx formula.Context, info *formula.CppInfo) {
		info.Libs = []string{"libxvc"}
	})
	return r
}
