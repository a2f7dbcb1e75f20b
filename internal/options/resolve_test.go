package options

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kontex-neuro/xvcpkg/formula"
	"github.com/kontex-neuro/xvcpkg/internal/provider"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/module"
)

const testCatalog = `
package "boost" {
  release "1.81.0" {}
  option "with_atomic" {
    default = false
  }
  option "without_chrono" {
    default = false
  }
  option "without_wave" {
    default = false
  }
  option "without_locale" {
    default = false
  }
}

package "fmt" {
  release "10.2.1" {}
  option "shared" {
    default = false
  }
  option "flavor" {
    values  = ["static", "header"]
    default = "static"
  }
}
`

var targets = []module.Version{
	{Path: "boost", Version: "1.81.0"},
	{Path: "fmt", Version: "10.2.1"},
}

func newCatalog(t *testing.T) *provider.Catalog {
	t.Helper()
	c, err := provider.LoadHCL("test.hcl", []byte(testCatalog))
	require.NoError(t, err)
	return c
}

func TestResolve_Layers(t *testing.T) {
	cfg := &formula.Config{}
	cfg.Set("boost/*", "with_atomic", true)
	cfg.Set("boost", "without_locale", true)
	cfg.Disable("boost/*", "chrono", "wave")

	m, shadows, err := Resolve(context.Background(), newCatalog(t), targets, cfg.Overrides(), cfg.Rules())
	require.NoError(t, err)
	assert.Empty(t, shadows)

	want := []Entry{
		{Key: Key{"boost", "with_atomic"}, Value: "True", Source: SourceOverride},
		{Key: Key{"boost", "without_chrono"}, Value: "True", Source: SourceRule},
		{Key: Key{"boost", "without_locale"}, Value: "True", Source: SourceOverride},
		{Key: Key{"boost", "without_wave"}, Value: "True", Source: SourceRule},
		{Key: Key{"fmt", "flavor"}, Value: "static", Source: SourceDefault},
		{Key: Key{"fmt", "shared"}, Value: "False", Source: SourceDefault},
	}
	assert.Equal(t, want, m.Entries())
	assert.Equal(t, []string{"boost", "fmt"}, m.Packages())
	assert.Equal(t, formula.Options{"shared": "False", "flavor": "static"}, m.Package("fmt"))

	v, ok := m.Get("boost", "with_atomic")
	assert.True(t, ok)
	assert.Equal(t, "True", v)
}

func TestResolve_RuleAfterOverride(t *testing.T) {
	cfg := &formula.Config{}
	cfg.Set("boost/*", "without_chrono", false)
	cfg.Disable("boost/*", "chrono")

	m, shadows, err := Resolve(context.Background(), newCatalog(t), targets, cfg.Overrides(), cfg.Rules())
	require.NoError(t, err)

	e, ok := m.Lookup("boost", "without_chrono")
	require.True(t, ok)
	assert.Equal(t, "True", e.Value)
	assert.Equal(t, SourceRule, e.Source)

	require.Len(t, shadows, 1)
	assert.Equal(t, Shadow{Key: Key{"boost", "without_chrono"}, Pattern: "boost/*", Override: "False", Value: "True"}, shadows[0])
}

func TestResolve_Deterministic(t *testing.T) {
	cfg := &formula.Config{}
	cfg.Set("*", "shared", true)
	cfg.Set("fmt/10.*", "flavor", "header")
	cfg.Disable("boost/*", "wave", "chrono", "locale")

	c := newCatalog(t)
	first, _, err := Resolve(context.Background(), c, targets, cfg.Overrides(), cfg.Rules())
	require.Error(t, err, "boost declares no shared option")
	assert.Zero(t, first.Len())

	cfg = &formula.Config{}
	cfg.Set("fmt/10.*", "flavor", "header")
	cfg.Disable("boost/*", "wave", "chrono", "locale")
	first, _, err = Resolve(context.Background(), c, targets, cfg.Overrides(), cfg.Rules())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		m, _, err := Resolve(context.Background(), c, targets, cfg.Overrides(), cfg.Rules())
		require.NoError(t, err)
		assert.True(t, first.Equal(m), "run %d differs", i)
		assert.Equal(t, first.Entries(), m.Entries())
	}
}

func TestResolve_Errors(t *testing.T) {
	c := newCatalog(t)

	_, _, err := Resolve(context.Background(), c, targets,
		[]formula.Override{{Pattern: "boost/*", Option: "with_magic", Value: "True"}}, nil)
	var uerr *UnknownOptionError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "boost", uerr.Package)
	assert.Equal(t, "with_magic", uerr.Option)

	_, _, err = Resolve(context.Background(), c, targets,
		nil, []formula.Rule{{Pattern: "fmt/*", Subsystem: "chrono"}})
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "without_chrono", uerr.Option)

	_, _, err = Resolve(context.Background(), c, targets,
		[]formula.Override{{Pattern: "fmt/*", Option: "flavor", Value: "spicy"}}, nil)
	var verr *InvalidOptionValueError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"static", "header"}, verr.Allowed)
}

func TestResolve_NoMatch(t *testing.T) {
	m, _, err := Resolve(context.Background(), newCatalog(t), targets,
		[]formula.Override{{Pattern: "zlib/*", Option: "anything", Value: "True"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, m.Len())
}

func TestPattern(t *testing.T) {
	tests := []struct {
		pattern string
		ref     module.Version
		want    bool
	}{
		{"boost/*", module.Version{Path: "boost", Version: "1.81.0"}, true},
		{"boost", module.Version{Path: "boost", Version: "1.81.0"}, true},
		{"boost/1.8*", module.Version{Path: "boost", Version: "1.81.0"}, true},
		{"boost/1.7*", module.Version{Path: "boost", Version: "1.81.0"}, false},
		{"boost/*", module.Version{Path: "boost_ext", Version: "1.0.0"}, false},
		{"*", module.Version{Path: "fmt", Version: "10.2.1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.ref.String(), func(t *testing.T) {
			p, err := CompilePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Match(tt.ref))
		})
	}
}

func TestResolveOwn(t *testing.T) {
	defs := []formula.OptionDef{formula.BoolOption("build_testing", false)}

	opts, err := ResolveOwn("libxvc", defs, nil)
	require.NoError(t, err)
	assert.Equal(t, formula.Options{"build_testing": "False"}, opts)

	opts, err = ResolveOwn("libxvc", defs, map[string]string{"build_testing": "true"})
	require.NoError(t, err)
	assert.True(t, opts.Bool("build_testing"))

	_, err = ResolveOwn("libxvc", defs, map[string]string{"shared": "True"})
	var uerr *UnknownOptionError
	assert.ErrorAs(t, err, &uerr)

	_, err = ResolveOwn("libxvc", defs, map[string]string{"build_testing": "maybe"})
	var verr *InvalidOptionValueError
	assert.ErrorAs(t, err, &verr)
}
