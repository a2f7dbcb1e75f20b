package provider

import (
	"context"
	_ "embed"
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/kontex-neuro/xvcpkg/formula"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/versions"
)

//go:embed catalog.hcl
var defaultCatalog []byte

// Catalog is an in-memory Provider built from HCL package declarations.
type Catalog struct {
	schemas map[string]*Schema
}

var _ Provider = (*Catalog)(nil)

type hclFile struct {
	Packages []*hclPackage `hcl:"package,block"`
}

type hclPackage struct {
	Name          string        `hcl:"name,label"`
	CMakeFileName string        `hcl:"cmake_file_name,optional"`
	CMakeTarget   string        `hcl:"cmake_target,optional"`
	Libs          []string      `hcl:"libs,optional"`
	Releases      []*hclRelease `hcl:"release,block"`
	Options       []*hclOption  `hcl:"option,block"`
}

type hclRelease struct {
	Version  string   `hcl:"version,label"`
	Requires []string `hcl:"requires,optional"`
}

type hclOption struct {
	Name    string         `hcl:"name,label"`
	Values  hcl.Expression `hcl:"values,optional"`
	Default hcl.Expression `hcl:"default,optional"`
}

// Default returns the catalog shipped with the binary.
func Default() *Catalog {
	c, err := LoadHCL("catalog.hcl", defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFile parses the catalog at path.
func LoadFile(path string) (*Catalog, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, diags)
	}
	return decode(path, f.Body)
}

// LoadHCL parses a catalog from src; filename is used in diagnostics.
func LoadHCL(filename string, src []byte) (*Catalog, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", filename, diags)
	}
	return decode(filename, f.Body)
}

func decode(filename string, body hcl.Body) (*Catalog, error) {
	var file hclFile
	if diags := gohcl.DecodeBody(body, nil, &file); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", filename, diags)
	}

	c := &Catalog{schemas: make(map[string]*Schema, len(file.Packages))}
	for _, p := range file.Packages {
		if _, dup := c.schemas[p.Name]; dup {
			return nil, fmt.Errorf("%s: package %q declared twice", filename, p.Name)
		}
		s, err := newSchema(p)
		if err != nil {
			return nil, fmt.Errorf("%s: package %q: %w", filename, p.Name, err)
		}
		c.schemas[p.Name] = s
	}
	return c, nil
}

func newSchema(p *hclPackage) (*Schema, error) {
	s := &Schema{
		Name:          p.Name,
		CMakeFileName: p.CMakeFileName,
		CMakeTarget:   p.CMakeTarget,
		Libs:          p.Libs,
	}
	for _, r := range p.Releases {
		rel := Release{Version: r.Version}
		for _, ref := range r.Requires {
			req, err := formula.ParseRequirement(ref, formula.KindLink)
			if err != nil {
				return nil, fmt.Errorf("release %s: %w", r.Version, err)
			}
			rel.Requires = append(rel.Requires, req)
		}
		s.Releases = append(s.Releases, rel)
	}
	for _, o := range p.Options {
		def, err := newOptionDef(o)
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", o.Name, err)
		}
		s.Options = append(s.Options, def)
	}
	return s, nil
}

func newOptionDef(o *hclOption) (formula.OptionDef, error) {
	def := formula.OptionDef{Name: o.Name}

	values, diags := o.Values.Value(nil)
	if diags.HasErrors() {
		return def, diags
	}
	if !values.IsNull() {
		if !values.CanIterateElements() {
			return def, fmt.Errorf("values must be a list")
		}
		for it := values.ElementIterator(); it.Next(); {
			_, v := it.Element()
			s, err := ctyString(v)
			if err != nil {
				return def, err
			}
			def.Values = append(def.Values, s)
		}
	}

	dv, diags := o.Default.Value(nil)
	if diags.HasErrors() {
		return def, diags
	}
	if !dv.IsNull() {
		s, err := ctyString(dv)
		if err != nil {
			return def, err
		}
		def.Default = s
	}
	if def.Values == nil && (def.Default == "True" || def.Default == "False") {
		def.Values = []string{"True", "False"}
	}
	if def.Default != "" && !def.Allows(def.Default) {
		return def, fmt.Errorf("default %q is not one of %v", def.Default, def.Values)
	}
	return def, nil
}

func ctyString(v cty.Value) (string, error) {
	if v.IsNull() || !v.IsKnown() {
		return "", fmt.Errorf("value must be known and not null")
	}
	switch v.Type() {
	case cty.Bool:
		return formula.FormatValue(v.True()), nil
	case cty.String:
		return formula.FormatValue(v.AsString()), nil
	case cty.Number:
		return v.AsBigFloat().Text('f', -1), nil
	}
	return "", fmt.Errorf("unsupported value type %s", v.Type().FriendlyName())
}

// Names returns the declared package names, sorted.
func (c *Catalog) Names() []string {
	return slices.Sorted(maps.Keys(c.schemas))
}

// QuerySchema implements Provider.
func (c *Catalog) QuerySchema(ctx context.Context, name string) (*Schema, error) {
	s, ok := c.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPackage, name)
	}
	return s, nil
}

// ResolveVersion implements Provider.
func (c *Catalog) ResolveVersion(ctx context.Context, name string, r versions.Range) (string, error) {
	s, err := c.QuerySchema(ctx, name)
	if err != nil {
		return "", err
	}
	best := ""
	for _, rel := range s.Releases {
		if !r.Contains(rel.Version) {
			continue
		}
		if best == "" || versions.Compare(rel.Version, best) > 0 {
			best = rel.Version
		}
	}
	if best == "" {
		return "", &NoMatchingVersionError{Name: name, Range: r}
	}
	return best, nil
}
