package modules

import (
	"github.com/kontex-neuro/xvcpkg/formula"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/module"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/versions"
)

// Node is one resolved package of a Graph.
type Node struct {
	Name    string
	Version string

	// Range is the intersection of every constraint placed on Name.
	Range       versions.Range
	Constraints []Constraint

	// Kind is the kind of the root requirement Name was reached from.
	Kind formula.Kind
	// Deps lists the names of the packages Name requires directly.
	Deps []string
}

// Ref returns "name/version".
func (n *Node) Ref() module.Version {
	return module.Version{Path: n.Name, Version: n.Version}
}

// Graph is a resolved, conflict-free dependency graph below Root.
type Graph struct {
	Root module.Version
	// Direct lists the names Root requires, in declaration order.
	Direct []string
	// Nodes holds every package below Root, dependencies first.
	Nodes []*Node

	byName map[string]*Node
}

// Node returns the node of name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.byName[name]
	return n, ok
}

// Len returns the number of resolved packages.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// Versions returns the resolved packages, dependencies first.
func (g *Graph) Versions() []module.Version {
	out := make([]module.Version, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, n.Ref())
	}
	return out
}

// Filter returns the nodes whose kind is one of kinds, keeping graph order.
func (g *Graph) Filter(kinds ...formula.Kind) []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		for _, k := range kinds {
			if n.Kind == k {
				out = append(out, n)
				break
			}
		}
	}
	return out
}
