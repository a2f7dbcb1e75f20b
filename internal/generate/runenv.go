package generate

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kontex-neuro/xvcpkg/formula"
)

const (
	// RunEnvFile is the run environment script on Unix hosts.
	RunEnvFile = "conanrun.sh"
	// RunEnvBatFile is the run environment script on Windows hosts.
	RunEnvBatFile = "conanrun.bat"
)

// RunEnvFileName returns the run environment script written for settings.
func RunEnvFileName(settings formula.Settings) string {
	if settings.OS == "Windows" {
		return RunEnvBatFile
	}
	return RunEnvFile
}

// runEnv puts the bin and lib directories of every host dependency in
// front of the executable and shared library search paths. Directories are
// ordered by package name.
func runEnv(in Input, host []*dependency) []byte {
	deps := slices.Clone(host)
	slices.SortFunc(deps, func(a, b *dependency) int {
		return strings.Compare(a.node.Name, b.node.Name)
	})
	var bins, libs []string
	for _, d := range deps {
		bins = append(bins, filepath.Join(d.dir, "bin"))
		libs = append(libs, filepath.Join(d.dir, "lib"))
	}

	var b bytes.Buffer
	what := in.Name + "/" + in.Version
	if in.Settings.OS == "Windows" {
		b.WriteString("@echo off\n")
		fmt.Fprintf(&b, "rem Generated by xvcpkg for %s. Do not edit.\n\n", what)
		if len(bins) > 0 {
			fmt.Fprintf(&b, "set \"PATH=%s;%%PATH%%\"\n", strings.Join(bins, ";"))
		}
		return b.Bytes()
	}

	header(&b, what)
	b.WriteString("# Source this file to run programs against the host dependencies.\n")
	if len(deps) == 0 {
		return b.Bytes()
	}
	b.WriteString("\n")
	exportPrepend(&b, "PATH", bins)
	exportPrepend(&b, "LD_LIBRARY_PATH", libs)
	exportPrepend(&b, "DYLD_LIBRARY_PATH", libs)
	return b.Bytes()
}

func exportPrepend(b *bytes.Buffer, name string, dirs []string) {
	quoted := make([]string, len(dirs))
	for i, d := range dirs {
		quoted[i] = shellEscape(d)
	}
	fmt.Fprintf(b, "export %s=\"%s${%s:+:$%s}\"\n", name, strings.Join(quoted, ":"), name, name)
}

// shellEscape escapes s for use inside double quotes.
func shellEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`")
	return r.Replace(s)
}
