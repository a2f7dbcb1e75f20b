package modules

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"ocm.software/open-component-model/bindings/go/dag"

	"github.com/kontex-neuro/xvcpkg/formula"
	"github.com/kontex-neuro/xvcpkg/internal/ctxlog"
	"github.com/kontex-neuro/xvcpkg/internal/provider"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/module"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/versions"
)

// maxIterations bounds the selection fixpoint. Each round can only move a
// package to the release chosen for a narrower range, so real graphs settle
// in a few rounds.
const maxIterations = 32

type edge struct {
	from string
	req  formula.Requirement
}

type pass struct {
	constraints map[string][]Constraint
	deps        map[string][]string
	kinds       map[string]formula.Kind
	order       []string
}

type resolver struct {
	p    provider.Provider
	root module.Version
	reqs []formula.Requirement
}

// Resolve computes the transitive graph required by root through reqs.
// Every constraint placed on a package is intersected; an empty intersection
// is a *ResolutionConflictError. Each package gets the highest release in its
// intersected range, and the selection is repeated until it is stable.
func Resolve(ctx context.Context, p provider.Provider, root module.Version, reqs []formula.Requirement) (*Graph, error) {
	r := &resolver{p: p, root: root, reqs: reqs}
	logger := ctxlog.FromContext(ctx)

	selected := make(map[string]string)
	for i := 0; i < maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ps, err := r.collect(ctx, selected)
		if err != nil {
			return nil, err
		}

		next := make(map[string]string, len(ps.order))
		ranges := make(map[string]versions.Range, len(ps.order))
		for _, name := range ps.order {
			rng, err := intersect(name, ps.constraints[name])
			if err != nil {
				return nil, err
			}
			v, err := p.ResolveVersion(ctx, name, rng)
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", name, err)
			}
			next[name] = v
			ranges[name] = rng
		}

		if sameSelection(selected, next) {
			logger.Debug("dependency graph resolved", "root", root.String(), "packages", len(next), "rounds", i+1)
			return r.graph(ps, next, ranges)
		}
		selected = next
	}
	return nil, fmt.Errorf("resolving dependencies of %s: selection did not settle after %d rounds", root, maxIterations)
}

// collect walks the graph breadth-first using the current selection, and
// resolves packages seen for the first time against their first constraint.
func (r *resolver) collect(ctx context.Context, selected map[string]string) (*pass, error) {
	ps := &pass{
		constraints: make(map[string][]Constraint),
		deps:        make(map[string][]string),
		kinds:       make(map[string]formula.Kind),
	}
	labels := map[string]string{r.root.Path: r.root.String()}

	queue := make([]edge, 0, len(r.reqs))
	for _, req := range r.reqs {
		queue = append(queue, edge{from: r.root.Path, req: req})
	}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		name := e.req.Path

		if name == r.root.Path {
			return nil, fmt.Errorf("%s requires itself through %s", r.root, labels[e.from])
		}
		_, seen := ps.constraints[name]
		ps.constraints[name] = append(ps.constraints[name], Constraint{Range: e.req.Range, RequiredBy: labels[e.from]})
		if !slices.Contains(ps.deps[e.from], name) {
			ps.deps[e.from] = append(ps.deps[e.from], name)
		}
		if seen {
			continue
		}

		ps.order = append(ps.order, name)
		if e.from == r.root.Path {
			ps.kinds[name] = e.req.Kind
		} else {
			ps.kinds[name] = ps.kinds[e.from]
		}

		version, ok := selected[name]
		if !ok {
			v, err := r.p.ResolveVersion(ctx, name, e.req.Range)
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", name, err)
			}
			version = v
		}
		labels[name] = module.Version{Path: name, Version: version}.String()

		schema, err := r.p.QuerySchema(ctx, name)
		if err != nil {
			return nil, err
		}
		rel, ok := schema.Release(version)
		if !ok {
			return nil, fmt.Errorf("%s has no release %s", name, version)
		}
		for _, dep := range rel.Requires {
			queue = append(queue, edge{from: name, req: dep})
		}
	}
	return ps, nil
}

func intersect(name string, cs []Constraint) (versions.Range, error) {
	acc := cs[0].Range
	for i := 1; i < len(cs); i++ {
		next, ok := versions.Intersect(acc, cs[i].Range)
		if ok {
			acc = next
			continue
		}
		first := Constraint{Range: acc, RequiredBy: requirers(cs[:i])}
		for _, c := range cs[:i] {
			if _, ok := versions.Intersect(c.Range, cs[i].Range); !ok {
				first = c
				break
			}
		}
		return versions.Range{}, &ResolutionConflictError{Name: name, First: first, Second: cs[i]}
	}
	return acc, nil
}

func requirers(cs []Constraint) string {
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.RequiredBy)
	}
	return strings.Join(names, ", ")
}

func sameSelection(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// graph orders the final selection dependencies first.
func (r *resolver) graph(ps *pass, selected map[string]string, ranges map[string]versions.Range) (*Graph, error) {
	d := dag.NewDirectedAcyclicGraph[string]()
	if err := d.AddVertex(r.root.Path); err != nil {
		return nil, err
	}
	for _, name := range ps.order {
		if err := d.AddVertex(name); err != nil {
			return nil, err
		}
	}
	for _, from := range append([]string{r.root.Path}, ps.order...) {
		for _, to := range ps.deps[from] {
			if err := d.AddEdge(from, to); err != nil {
				return nil, fmt.Errorf("dependency cycle: %w", err)
			}
		}
	}
	sorted, err := d.TopologicalSort()
	if err != nil {
		return nil, err
	}

	g := &Graph{
		Root:   r.root,
		Direct: slices.Clone(ps.deps[r.root.Path]),
		byName: make(map[string]*Node, len(ps.order)),
	}
	for _, name := range sorted {
		if name == r.root.Path {
			continue
		}
		deps := slices.Clone(ps.deps[name])
		slices.Sort(deps)
		n := &Node{
			Name:        name,
			Version:     selected[name],
			Range:       ranges[name],
			Constraints: ps.constraints[name],
			Kind:        ps.kinds[name],
			Deps:        deps,
		}
		g.Nodes = append(g.Nodes, n)
		g.byName[name] = n
	}
	return g, nil
}
