package generate

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kontex-neuro/xvcpkg/formula"
	"github.com/kontex-neuro/xvcpkg/internal/options"
)

// configFileNames follows find_package's config mode naming: lower-case
// names use <name>-config.cmake, others <Name>Config.cmake.
func configFileNames(fileName string) (config, version string) {
	if fileName == strings.ToLower(fileName) {
		return fileName + "-config.cmake", fileName + "-config-version.cmake"
	}
	return fileName + "Config.cmake", fileName + "ConfigVersion.cmake"
}

func header(b *bytes.Buffer, what string) {
	fmt.Fprintf(b, "# Generated by xvcpkg for %s. Do not edit.\n\n", what)
}

func cmakePath(p string) string {
	return filepath.ToSlash(p)
}

func packageConfig(d *dependency, byName map[string]*dependency, opts options.Map) []byte {
	var b bytes.Buffer
	name := d.schema.FileName()
	target := d.schema.Target()
	header(&b, d.node.Ref().String())

	var links []string
	if len(d.node.Deps) > 0 {
		b.WriteString("include(CMakeFindDependencyMacro)\n")
		for _, dep := range d.node.Deps {
			dd, ok := byName[dep]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "find_dependency(%s CONFIG)\n", dd.schema.FileName())
			links = append(links, dd.schema.Target())
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "set(%s_VERSION_STRING \"%s\")\n", name, d.node.Version)
	fmt.Fprintf(&b, "set(%s_PACKAGE_FOLDER \"%s\")\n", name, cmakePath(d.dir))
	fmt.Fprintf(&b, "set(%s_INCLUDE_DIRS \"${%s_PACKAGE_FOLDER}/include\")\n", name, name)
	fmt.Fprintf(&b, "set(%s_LIB_DIRS \"${%s_PACKAGE_FOLDER}/lib\")\n", name, name)
	fmt.Fprintf(&b, "set(%s_LIBRARIES %s)\n", name, strings.Join(d.schema.Libs, " "))

	if entries := packageOptions(opts, d.node.Name); len(entries) > 0 {
		b.WriteString("\n# options\n")
		for _, e := range entries {
			fmt.Fprintf(&b, "#   %s=%s (%s)\n", e.Option, e.Value, e.Source)
		}
	}

	fmt.Fprintf(&b, "\nif(NOT TARGET %s)\n", target)
	fmt.Fprintf(&b, "  add_library(%s INTERFACE IMPORTED)\n", target)
	fmt.Fprintf(&b, "  set_target_properties(%s PROPERTIES\n", target)
	fmt.Fprintf(&b, "    INTERFACE_INCLUDE_DIRECTORIES \"${%s_INCLUDE_DIRS}\"\n", name)
	fmt.Fprintf(&b, "    INTERFACE_LINK_DIRECTORIES \"${%s_LIB_DIRS}\"\n", name)
	fmt.Fprintf(&b, "    INTERFACE_LINK_LIBRARIES \"%s\")\n", strings.Join(append(append([]string(nil), d.schema.Libs...), links...), ";"))
	b.WriteString("endif()\n")
	return b.Bytes()
}

func packageOptions(opts options.Map, pkg string) []options.Entry {
	var out []options.Entry
	for _, e := range opts.Entries() {
		if e.Package == pkg {
			out = append(out, e)
		}
	}
	return out
}

func packageConfigVersion(d *dependency) []byte {
	var b bytes.Buffer
	header(&b, d.node.Ref().String())
	fmt.Fprintf(&b, "set(PACKAGE_VERSION \"%s\")\n\n", d.node.Version)
	b.WriteString(`if(PACKAGE_FIND_VERSION VERSION_GREATER PACKAGE_VERSION)
  set(PACKAGE_VERSION_COMPATIBLE FALSE)
else()
  set(PACKAGE_VERSION_COMPATIBLE TRUE)
  if(PACKAGE_FIND_VERSION STREQUAL PACKAGE_VERSION)
    set(PACKAGE_VERSION_EXACT TRUE)
  endif()
endif()
`)
	return b.Bytes()
}

// cacheValue renders a toolchain variable for a set(... CACHE ...) call.
func cacheValue(v formula.Variable) (value, typ string) {
	if v.IsBool {
		if v.Value == "true" {
			return "ON", "BOOL"
		}
		return "OFF", "BOOL"
	}
	return `"` + strings.ReplaceAll(v.Value, `"`, `\"`) + `"`, "STRING"
}

func toolchain(in Input, tools []*dependency) []byte {
	var b bytes.Buffer
	header(&b, fmt.Sprintf("%s/%s (%s)", in.Name, in.Version, in.Settings))
	b.WriteString("cmake_minimum_required(VERSION 3.15)\ninclude_guard()\n\n")

	if !in.Settings.MultiConfig() {
		fmt.Fprintf(&b, "set(CMAKE_BUILD_TYPE \"%s\" CACHE STRING \"Build type\" FORCE)\n", in.Settings.BuildType)
	}
	if !strings.EqualFold(in.Settings.OS, "Windows") {
		b.WriteString("set(CMAKE_POSITION_INDEPENDENT_CODE ON CACHE BOOL \"Position independent code\")\n")
	}
	b.WriteString("set(CMAKE_FIND_PACKAGE_PREFER_CONFIG ON)\n")
	b.WriteString("list(PREPEND CMAKE_PREFIX_PATH \"${CMAKE_CURRENT_LIST_DIR}\")\n")
	b.WriteString("list(PREPEND CMAKE_MODULE_PATH \"${CMAKE_CURRENT_LIST_DIR}\")\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "list(PREPEND CMAKE_PROGRAM_PATH \"%s/bin\")  # %s\n", cmakePath(t.dir), t.node.Ref())
	}

	if in.Toolchain != nil {
		if vars := in.Toolchain.Variables(); len(vars) > 0 {
			b.WriteString("\n# variables\n")
			for _, v := range vars {
				value, typ := cacheValue(v)
				fmt.Fprintf(&b, "set(%s %s CACHE %s \"Variable %s defined by xvcpkg\")\n", v.Name, value, typ, v.Name)
			}
		}
	}
	return b.Bytes()
}
