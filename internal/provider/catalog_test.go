package provider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kontex-neuro/xvcpkg/formula"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/versions"
)

const testCatalog = `
package "demo" {
  cmake_file_name = "Demo"
  libs            = ["demo"]

  release "1.0.0" {}
  release "1.2.0" {
    requires = ["dep/[>=2.0.0]"]
  }
  release "2.0.0" {}

  option "shared" {
    default = false
  }
  option "flavor" {
    values  = ["mild", "hot"]
    default = "mild"
  }
  option "level" {
    default = 3
  }
}

package "dep" {
  release "2.1.0" {}
}
`

func TestLoadHCL(t *testing.T) {
	c, err := LoadHCL("test.hcl", []byte(testCatalog))
	require.NoError(t, err)
	assert.Equal(t, []string{"demo", "dep"}, c.Names())

	s, err := c.QuerySchema(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "Demo", s.FileName())
	assert.Equal(t, "demo::demo", s.Target())
	assert.Equal(t, []string{"demo"}, s.Libs)

	assert.Equal(t, []formula.OptionDef{
		{Name: "shared", Values: []string{"True", "False"}, Default: "False"},
		{Name: "flavor", Values: []string{"mild", "hot"}, Default: "mild"},
		{Name: "level", Default: "3"},
	}, s.Options)
	assert.Equal(t, formula.Options{"shared": "False", "flavor": "mild", "level": "3"}, s.Defaults())

	rel, ok := s.Release("1.2.0")
	require.True(t, ok)
	require.Len(t, rel.Requires, 1)
	assert.Equal(t, "dep", rel.Requires[0].Path)
	assert.Equal(t, formula.KindLink, rel.Requires[0].Kind)

	_, ok = s.Release("9.9.9")
	assert.False(t, ok)
}

func TestLoadHCL_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `package "x" {`},
		{"duplicate", `
package "x" {}
package "x" {}`},
		{"bad requirement", `
package "x" {
  release "1.0.0" {
    requires = ["y/[>=2.0.0 <1.0.0]"]
  }
}`},
		{"default outside values", `
package "x" {
  option "o" {
    values  = ["a"]
    default = "b"
  }
}`},
		{"values not a list", `
package "x" {
  option "o" {
    values = "a"
  }
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadHCL("bad.hcl", []byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.hcl")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, c.Names(), 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.Error(t, err)
}

func TestCatalog_ResolveVersion(t *testing.T) {
	c, err := LoadHCL("test.hcl", []byte(testCatalog))
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		rng  string
		want string
	}{
		{">=1.0.0", "2.0.0"},
		{">=1.0.0 <2.0.0", "1.2.0"},
		{"1.0.0", "1.0.0"},
		{"~1.2.0", "1.2.0"},
	}
	for _, tt := range tests {
		t.Run(tt.rng, func(t *testing.T) {
			got, err := c.ResolveVersion(ctx, "demo", versions.MustParseRange(tt.rng))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = c.ResolveVersion(ctx, "demo", versions.MustParseRange(">=3.0.0"))
	var nerr *NoMatchingVersionError
	assert.ErrorAs(t, err, &nerr)

	_, err = c.ResolveVersion(ctx, "nope", versions.MustParseRange("1.0.0"))
	assert.True(t, errors.Is(err, ErrUnknownPackage))
}

func TestDefault(t *testing.T) {
	c := Default()
	ctx := context.Background()

	boost, err := c.QuerySchema(ctx, "boost")
	require.NoError(t, err)
	for _, name := range []string{"with_atomic", "with_stacktrace_backtrace", "without_stacktrace", "without_locale", "without_wave", "without_charconv"} {
		_, ok := boost.Option(name)
		assert.True(t, ok, "boost should declare %s", name)
	}
	assert.Equal(t, "Boost", boost.FileName())

	for ref, want := range map[string]string{
		"cmake/[>=3.25.0 <3.30.0]": "3.29.3",
		"ninja/[>=1.12.0]":         "1.12.1",
		"boost/1.81.0":             "1.81.0",
		"gtest/1.14.0":             "1.14.0",
	} {
		req, err := formula.ParseRequirement(ref, formula.KindLink)
		require.NoError(t, err)
		got, err := c.ResolveVersion(ctx, req.Path, req.Range)
		require.NoError(t, err, ref)
		assert.Equal(t, want, got, ref)
	}
}
