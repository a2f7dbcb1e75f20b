package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/kontex-neuro/xvcpkg/internal/env"
	"github.com/kontex-neuro/xvcpkg/internal/pkginfo"
)

var linuxSettings = []string{
	"-s", "os=Linux",
	"-s", "compiler=gcc12",
	"-s", "build_type=Release",
	"-s", "arch=x86_64",
}

// execute runs the root command with fresh flag values.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	settingFlags, optionFlags = nil, nil
	profileFlag, rootFlag, workspaceFlag, catalogFlag = "", ".", "", ""
	logLevel, logFormat = "error", "text"
	buildVerbose, buildDryRun, buildMatrix = false, false, nil
	optionsPackage = ""
	infoOutput, infoAll = "yaml", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParsePackageArg(t *testing.T) {
	tests := []struct {
		arg         string
		wantName    string
		wantVersion string
	}{
		{"libxvc/0.0.3", "libxvc", "0.0.3"},
		{"boost/1.81.0", "boost", "1.81.0"},
		{"libxvc", "libxvc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			name, version := parsePackageArg(tt.arg)
			if name != tt.wantName {
				t.Errorf("parsePackageArg(%q) name = %q, want %q", tt.arg, name, tt.wantName)
			}
			if version != tt.wantVersion {
				t.Errorf("parsePackageArg(%q) version = %q, want %q", tt.arg, version, tt.wantVersion)
			}
		})
	}
}

func TestGraph(t *testing.T) {
	t.Setenv(env.HomeEnv, t.TempDir())

	out, err := execute(t, append([]string{"graph"}, linuxSettings...)...)
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}
	for _, want := range []string{"boost", "1.81.0", "fmt", "10.2.1", "cmake", "3.29.3", "ninja", "1.12.1", "libxvc/0.0.3"} {
		if !strings.Contains(out, want) {
			t.Errorf("graph output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "gtest") {
		t.Errorf("graph lists gtest without build_testing:\n%s", out)
	}

	out, err = execute(t, append([]string{"graph", "-o", "build_testing=True"}, linuxSettings...)...)
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}
	if !strings.Contains(out, "gtest") {
		t.Errorf("graph output missing gtest:\n%s", out)
	}
}

func TestOptions(t *testing.T) {
	t.Setenv(env.HomeEnv, t.TempDir())

	out, err := execute(t, append([]string{"options", "-p", "boost"}, linuxSettings...)...)
	if err != nil {
		t.Fatalf("options failed: %v", err)
	}
	for _, want := range []string{"without_wave", "with_atomic", "override", "rule", "default"} {
		if !strings.Contains(out, want) {
			t.Errorf("options output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "bzip2") {
		t.Errorf("options output not filtered to boost:\n%s", out)
	}
}

func TestUnknownOption(t *testing.T) {
	t.Setenv(env.HomeEnv, t.TempDir())

	if _, err := execute(t, append([]string{"graph", "-o", "shared=True"}, linuxSettings...)...); err == nil {
		t.Error("graph accepted an unknown libxvc option")
	}
	if _, err := execute(t, "graph", "-s", "flavor=vanilla"); err == nil {
		t.Error("graph accepted an unknown setting")
	}
}

func TestBuildDryRun(t *testing.T) {
	t.Setenv(env.HomeEnv, t.TempDir())
	root := t.TempDir()

	out, err := execute(t, append([]string{"build", "--dry-run", "--root", root}, linuxSettings...)...)
	if err != nil {
		t.Fatalf("build --dry-run failed: %v", err)
	}
	if !strings.Contains(out, filepath.Join(root, "build", "Release")) {
		t.Errorf("dry run output missing build dir:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(root, "build")); !os.IsNotExist(err) {
		t.Errorf("dry run wrote the build dir, stat = %v", err)
	}
}

func TestBuildAndInfo(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake cmake is a shell script")
	}
	t.Setenv(env.HomeEnv, t.TempDir())

	dir := t.TempDir()
	cmake := filepath.Join(dir, "cmake")
	if err := os.WriteFile(cmake, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	prof := filepath.Join(dir, "linux.yaml")
	content := `settings:
  os: Linux
  compiler: gcc12
  build_type: Release
  arch: x86_64
conf:
  cmake: ` + cmake + "\n"
	if err := os.WriteFile(prof, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	workspace := t.TempDir()
	common := []string{"--profile", prof, "--root", t.TempDir(), "--workspace", workspace}

	out, err := execute(t, append([]string{"build"}, common...)...)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !strings.Contains(out, "package_id:") || !strings.Contains(out, "name: libxvc") {
		t.Errorf("build output is not a package info:\n%s", out)
	}

	out, err = execute(t, append([]string{"info", "--output", "json"}, common...)...)
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	var infos []pkginfo.Info
	if err := json.Unmarshal([]byte(out), &infos); err != nil {
		t.Fatalf("info output is not JSON: %v\n%s", err, out)
	}
	if len(infos) != 1 || infos[0].Name != "libxvc" || infos[0].Settings.Compiler != "gcc12" {
		t.Errorf("infos = %+v", infos)
	}

	out, err = execute(t, append([]string{"info", "--output", "table", "libxvc"}, common...)...)
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if !strings.Contains(out, infos[0].PackageID) {
		t.Errorf("table missing package id:\n%s", out)
	}

	if _, err := execute(t, append([]string{"info", "-s", "build_type=Debug"}, common...)...); err == nil {
		t.Error("info found a package built for other settings")
	}
}

func TestBuildFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake cmake is a shell script")
	}
	t.Setenv(env.HomeEnv, t.TempDir())

	dir := t.TempDir()
	cmake := filepath.Join(dir, "cmake")
	script := "#!/bin/sh\ncase \"$1\" in --build) echo 'undefined reference' >&2; exit 2;; esac\n"
	if err := os.WriteFile(cmake, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	prof := filepath.Join(dir, "p.yaml")
	if err := os.WriteFile(prof, []byte("conf:\n  cmake: "+cmake+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, append([]string{"build", "--profile", prof, "--root", t.TempDir(), "--workspace", t.TempDir()}, linuxSettings...)...)
	if err == nil {
		t.Fatal("build succeeded with a failing cmake")
	}
	if !strings.Contains(err.Error(), "build") {
		t.Errorf("error = %v", err)
	}
}

func TestParseMatrix(t *testing.T) {
	m, err := parseMatrix([]string{"build_type=Debug, Release", "arch=x86_64", "build_type=MinSizeRel"})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(m["build_type"], ","); got != "Debug,Release,MinSizeRel" {
		t.Errorf("build_type = %q", got)
	}
	if m.Count() != 3 {
		t.Errorf("Count() = %d, want 3", m.Count())
	}
	for _, bad := range []string{"build_type", "=Debug", "arch= , "} {
		if _, err := parseMatrix([]string{bad}); err == nil {
			t.Errorf("parseMatrix(%q) should fail", bad)
		}
	}
}

func TestBuildMatrix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake cmake is a shell script")
	}
	t.Setenv(env.HomeEnv, t.TempDir())

	dir := t.TempDir()
	cmake := filepath.Join(dir, "cmake")
	if err := os.WriteFile(cmake, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	prof := filepath.Join(dir, "p.yaml")
	if err := os.WriteFile(prof, []byte("conf:\n  cmake: "+cmake+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	workspace := t.TempDir()
	args := append([]string{"build", "--profile", prof, "--root", t.TempDir(), "--workspace", workspace,
		"--matrix", "build_type=Debug,Release"}, linuxSettings...)

	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("build --matrix failed: %v", err)
	}
	for _, bt := range []string{"build_type: Debug", "build_type: Release"} {
		if !strings.Contains(out, bt) {
			t.Errorf("output missing %q:\n%s", bt, out)
		}
	}

	out, err = execute(t, "info", "--all", "--output", "json", "--workspace", workspace)
	if err != nil {
		t.Fatal(err)
	}
	var infos []pkginfo.Info
	if err := json.Unmarshal([]byte(out), &infos); err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 {
		t.Errorf("published %d infos, want 2", len(infos))
	}
}

func TestPrintInfos_UnknownFormat(t *testing.T) {
	if err := printInfos(io.Discard, "xml", pkginfo.Info{Name: "libxvc"}); err == nil {
		t.Error("printInfos accepted an unknown format")
	}
}
