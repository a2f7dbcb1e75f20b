// Package cmake drives CMake builds.
package cmake

import (
	"context"
	"io"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/kontex-neuro/xvcpkg/pkgs/buildsys"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake runs the configure, build and install steps of one build tree.
type CMake struct {
	bin        string
	sourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	toolchain  string
	preset     string
	defines    map[string]defineValue
	env        map[string]string
	output     io.Writer
}

var _ buildsys.Tool = (*CMake)(nil)

// New creates a CMake driver for the tree at sourceDir built in buildDir.
func New(sourceDir, buildDir string) *CMake {
	return &CMake{
		bin:       "cmake",
		sourceDir: sourceDir,
		buildDir:  buildDir,
		defines:   map[string]defineValue{},
		env:       map[string]string{},
	}
}

// Bin sets the cmake executable.
func (c *CMake) Bin(path string) *CMake {
	c.bin = path
	return c
}

// InstallDir sets the install prefix.
func (c *CMake) InstallDir(dir string) *CMake {
	c.installDir = dir
	return c
}

func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Toolchain(path string) *CMake {
	c.toolchain = path
	return c
}

// Preset selects a configure preset from CMakePresets.json.
func (c *CMake) Preset(name string) *CMake {
	c.preset = name
	return c
}

// Output mirrors the tool output to w while it is captured.
func (c *CMake) Output(w io.Writer) *CMake {
	c.output = w
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	c.defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

func (c *CMake) DefineBool(key string, value bool) *CMake {
	if value {
		c.defines[key] = defineValue{value: "ON", typeName: "BOOL"}
		return c
	}
	c.defines[key] = defineValue{value: "OFF", typeName: "BOOL"}
	return c
}

// Env sets a variable in the environment of every step.
func (c *CMake) Env(key, value string) *CMake {
	c.env[key] = value
	return c
}

// Use makes an installed dependency at dir visible to the build.
func (c *CMake) Use(dir string) *CMake {
	includeDir := filepath.Join(dir, "include")
	libDir := filepath.Join(dir, "lib")
	pkgconfigDir := filepath.Join(libDir, "pkgconfig")

	if exists(pkgconfigDir) {
		c.prependEnv("PKG_CONFIG_PATH", pkgconfigDir)
	}
	if exists(dir) {
		c.prependEnv("CMAKE_PREFIX_PATH", dir)
	}
	if exists(includeDir) {
		c.prependEnv("CMAKE_INCLUDE_PATH", includeDir)
	}
	if exists(libDir) {
		c.prependEnv("CMAKE_LIBRARY_PATH", libDir)
	}
	return c
}

// ConfigureArgs returns the arguments of the configure step.
func (c *CMake) ConfigureArgs() []string {
	args := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.preset != "" {
		args = append(args, "--preset", c.preset)
	}
	if c.generator != "" {
		args = append(args, "-G", c.generator)
	}
	defines := maps.Clone(c.defines)
	if c.installDir != "" {
		defines["CMAKE_INSTALL_PREFIX"] = defineValue{value: c.installDir, typeName: "PATH"}
	}
	if c.toolchain != "" {
		defines["CMAKE_TOOLCHAIN_FILE"] = defineValue{value: c.toolchain, typeName: "FILEPATH"}
	}
	if c.buildType != "" {
		defines["CMAKE_BUILD_TYPE"] = defineValue{value: c.buildType, typeName: "STRING"}
	}
	return append(args, definesArgs(defines)...)
}

// Configure implements buildsys.Tool.
func (c *CMake) Configure(ctx context.Context) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	return c.run(ctx, c.ConfigureArgs())
}

// Build implements buildsys.Tool.
func (c *CMake) Build(ctx context.Context) error {
	args := []string{"--build", c.buildDir}
	if c.buildType != "" {
		args = append(args, "--config", c.buildType)
	}
	return c.run(ctx, args)
}

// Install implements buildsys.Tool.
func (c *CMake) Install(ctx context.Context) error {
	args := []string{"--install", c.buildDir}
	if c.buildType != "" {
		args = append(args, "--config", c.buildType)
	}
	if c.installDir != "" {
		args = append(args, "--prefix", c.installDir)
	}
	return c.run(ctx, args)
}

func (c *CMake) run(ctx context.Context, args []string) error {
	cmd := &buildsys.Command{
		Bin:    c.bin,
		Args:   args,
		Env:    c.env,
		Mirror: c.output,
	}
	return cmd.Run(ctx)
}

func definesArgs(defines map[string]defineValue) []string {
	keys := slices.Sorted(maps.Keys(defines))
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}

// prependEnv prepends a value to a path list variable, starting from the
// process environment the first time.
func (c *CMake) prependEnv(key, value string) {
	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}
	current, ok := c.env[key]
	if !ok {
		current = os.Getenv(key)
	}
	if current == "" {
		c.env[key] = value
		return
	}
	c.env[key] = value + sep + current
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
