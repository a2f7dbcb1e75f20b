// Package options computes effective option maps. Values are layered:
// package defaults first, then targeted overrides, then bulk rules. Each
// layer is applied in declaration order and the last writer of a key wins.
package options

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/kontex-neuro/xvcpkg/formula"
	"github.com/kontex-neuro/xvcpkg/internal/ctxlog"
	"github.com/kontex-neuro/xvcpkg/internal/provider"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/module"
)

// Shadow records a key a bulk rule wrote after a targeted override had
// already set it.
type Shadow struct {
	Key
	Pattern  string
	Override string
	Value    string
}

// Pattern is a compiled package reference pattern such as "boost/*". A
// pattern without a slash matches every version of that name.
type Pattern struct {
	text string
	g    glob.Glob
}

// CompilePattern compiles text.
func CompilePattern(text string) (Pattern, error) {
	expr := text
	if !strings.Contains(expr, "/") {
		expr += "/*"
	}
	g, err := glob.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("bad package pattern %q: %w", text, err)
	}
	return Pattern{text: text, g: g}, nil
}

// Match reports whether the package reference matches p.
func (p Pattern) Match(ref module.Version) bool {
	return p.g.Match(ref.Path + "/" + ref.Version)
}

func (p Pattern) String() string {
	return p.text
}

type resolution struct {
	entries map[Key]Entry
	schemas map[string]*provider.Schema
	targets []module.Version
	shadows []Shadow
}

// Resolve computes the effective option map of targets. Each target starts
// from the defaults its schema publishes; overrides are applied next and
// rules last. Assigning an option a matched package does not declare fails
// with *UnknownOptionError; a value outside the declared set fails with
// *InvalidOptionValueError. Keys written by a rule after an override are
// returned as shadows.
func Resolve(ctx context.Context, p provider.Provider, targets []module.Version, overrides []formula.Override, rules []formula.Rule) (Map, []Shadow, error) {
	r := &resolution{
		entries: make(map[Key]Entry),
		schemas: make(map[string]*provider.Schema, len(targets)),
		targets: targets,
	}
	for _, t := range targets {
		s, err := p.QuerySchema(ctx, t.Path)
		if err != nil {
			return Map{}, nil, err
		}
		r.schemas[t.Path] = s
		for _, d := range s.Options {
			k := Key{t.Path, d.Name}
			r.entries[k] = Entry{Key: k, Value: d.Default, Source: SourceDefault}
		}
	}

	logger := ctxlog.FromContext(ctx)
	for _, o := range overrides {
		if err := r.apply(ctx, o.Pattern, o.Option, o.Value, SourceOverride); err != nil {
			return Map{}, nil, err
		}
	}
	for _, rule := range rules {
		if err := r.apply(ctx, rule.Pattern, rule.Option(), rule.Value(), SourceRule); err != nil {
			return Map{}, nil, err
		}
	}
	for _, s := range r.shadows {
		logger.Warn("bulk rule replaced a targeted override",
			"option", s.Key.String(), "pattern", s.Pattern, "override", s.Override, "value", s.Value)
	}
	return Map{entries: r.entries}, r.shadows, nil
}

func (r *resolution) apply(ctx context.Context, pattern, option, value string, src Source) error {
	pat, err := CompilePattern(pattern)
	if err != nil {
		return err
	}
	matched := false
	for _, t := range r.targets {
		if !pat.Match(t) {
			continue
		}
		matched = true
		def, ok := r.schemas[t.Path].Option(option)
		if !ok {
			return &UnknownOptionError{Package: t.Path, Option: option, Pattern: pattern}
		}
		if !def.Allows(value) {
			return &InvalidOptionValueError{Package: t.Path, Option: option, Value: value, Allowed: def.Values}
		}
		k := Key{t.Path, option}
		if prev := r.entries[k]; src == SourceRule && prev.Source == SourceOverride {
			r.shadows = append(r.shadows, Shadow{Key: k, Pattern: pattern, Override: prev.Value, Value: value})
		}
		r.entries[k] = Entry{Key: k, Value: formula.FormatValue(value), Source: src}
	}
	if !matched {
		ctxlog.FromContext(ctx).Debug("option pattern matches no package", "pattern", pattern, "option", option)
	}
	return nil
}

// ResolveOwn resolves the options of package name itself from its
// declarations and the values the user asked for.
func ResolveOwn(name string, defs []formula.OptionDef, user map[string]string) (formula.Options, error) {
	opts := make(formula.Options, len(defs))
	for _, d := range defs {
		opts[d.Name] = d.Default
	}
	for _, k := range slices.Sorted(maps.Keys(user)) {
		i := slices.IndexFunc(defs, func(d formula.OptionDef) bool { return d.Name == k })
		if i < 0 {
			return nil, &UnknownOptionError{Package: name, Option: k}
		}
		v := user[k]
		if !defs[i].Allows(v) {
			return nil, &InvalidOptionValueError{Package: name, Option: k, Value: v, Allowed: defs[i].Values}
		}
		opts[k] = formula.FormatValue(v)
	}
	return opts, nil
}
