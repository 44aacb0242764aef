// Package cycles detects and cuts reference cycles among structural type
// definitions that a nominal target model cannot represent directly.
package cycles

import (
	"sort"

	"github.com/declbridge/declbridge/internal/declpath"
	"github.com/declbridge/declbridge/internal/decltree"
	"github.com/declbridge/declbridge/internal/transform"
)

// node is one container-level type alias or interface in the reference graph.
type node struct {
	name declpath.QName
	decl decltree.Declaration
	refs []string // outgoing edges, node keys
}

// Graph is the "A's definition mentions B" reference graph over a tree's
// container-level type aliases and interfaces.
type Graph struct {
	order []string
	nodes map[string]*node
}

// Group is one strongly-connected component of size greater than one.
type Group struct {
	Members []declpath.QName
}

// Contains reports whether name is part of the group.
func (g Group) Contains(name declpath.QName) bool {
	for _, m := range g.Members {
		if m.Equal(name) {
			return true
		}
	}
	return false
}

// BuildGraph collects the reference graph of a flattened tree. Aliases and
// interfaces are nodes, but only alias definitions contribute outgoing
// edges: an interface is nominal and may be forward-referenced, so a mention
// through it never forces expansion. A chain that runs through an interface
// (alias -> interface -> alias) is therefore already representable and never
// forms a group; only all-alias loops get rewritten. Mentions resolve
// lexically, matching the mentioning declaration's own container path
// outermost-dropping, the way scoped lookup would.
func BuildGraph(root decltree.Container) *Graph {
	g := &Graph{nodes: make(map[string]*node)}
	g.collect(root, declpath.NewQName())
	g.link(root, declpath.NewQName())
	return g
}

func (g *Graph) collect(c decltree.Container, path declpath.QName) {
	for _, m := range c.ContainerMembers() {
		switch d := m.(type) {
		case *decltree.TypeAlias:
			g.add(path.Add(d.Name), d)
		case *decltree.Interface:
			g.add(path.Add(d.Name), d)
		case decltree.Container:
			g.collect(d, containerPath(path, d))
		}
	}
}

func (g *Graph) add(name declpath.QName, d decltree.Declaration) {
	key := name.Key()
	if _, exists := g.nodes[key]; exists {
		return
	}
	g.order = append(g.order, key)
	g.nodes[key] = &node{name: name, decl: d}
}

func (g *Graph) link(c decltree.Container, path declpath.QName) {
	for _, m := range c.ContainerMembers() {
		switch d := m.(type) {
		case *decltree.TypeAlias:
			g.linkNode(path.Add(d.Name), path, []decltree.Type{d.Target})
		case decltree.Container:
			g.link(d, containerPath(path, d))
		}
	}
}

func (g *Graph) linkNode(name, path declpath.QName, types []decltree.Type) {
	from := g.nodes[name.Key()]
	if from == nil {
		return
	}
	// Self-edges stay in the graph but never form a group on their own.
	seen := make(map[string]bool)
	for _, t := range types {
		for _, mention := range mentions(t) {
			if target, ok := g.resolveMention(path, mention); ok && !seen[target] {
				seen[target] = true
				from.refs = append(from.refs, target)
			}
		}
	}
}

// resolveMention matches a reference against the graph, trying the
// mentioning path's prefixes from innermost outward.
func (g *Graph) resolveMention(path, ref declpath.QName) (string, bool) {
	for i := path.Len(); i >= 0; i-- {
		prefix := declpath.NewQName(path.Segments()[:i]...)
		candidate := prefix.Concat(ref).Key()
		if _, ok := g.nodes[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

// RefCount returns the number of graph nodes referencing name.
func (g *Graph) RefCount(name declpath.QName) int {
	key := name.Key()
	count := 0
	for _, k := range g.order {
		for _, ref := range g.nodes[k].refs {
			if ref == key && k != key {
				count++
			}
		}
	}
	return count
}

// FindGroups returns every strongly-connected component with more than one
// member, in deterministic order.
func (g *Graph) FindGroups() []Group {
	t := &tarjan{graph: g, indexes: make(map[string]int), lowlinks: make(map[string]int), onStack: make(map[string]bool)}
	for _, key := range g.order {
		if _, visited := t.indexes[key]; !visited {
			t.strongConnect(key)
		}
	}

	var groups []Group
	for _, comp := range t.components {
		if len(comp) < 2 {
			continue
		}
		sort.Strings(comp)
		grp := Group{}
		for _, key := range comp {
			grp.Members = append(grp.Members, g.nodes[key].name)
		}
		groups = append(groups, grp)
	}
	return groups
}

type tarjan struct {
	graph      *Graph
	index      int
	stack      []string
	indexes    map[string]int
	lowlinks   map[string]int
	onStack    map[string]bool
	components [][]string
}

func (t *tarjan) strongConnect(v string) {
	t.indexes[v] = t.index
	t.lowlinks[v] = t.index
	t.index++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.graph.nodes[v].refs {
		if _, visited := t.indexes[w]; !visited {
			t.strongConnect(w)
			if t.lowlinks[w] < t.lowlinks[v] {
				t.lowlinks[v] = t.lowlinks[w]
			}
		} else if t.onStack[w] && t.indexes[w] < t.lowlinks[v] {
			t.lowlinks[v] = t.indexes[w]
		}
	}

	if t.lowlinks[v] == t.indexes[v] {
		var comp []string
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		t.components = append(t.components, comp)
	}
}

// mentions collects every named reference inside a type.
func mentions(t decltree.Type) []declpath.QName {
	var out []declpath.QName
	transform.MapType(t, func(tt decltree.Type) decltree.Type {
		if named, ok := tt.(decltree.Named); ok {
			out = append(out, named.Name)
		}
		return tt
	})
	return out
}

func containerPath(path declpath.QName, c decltree.Container) declpath.QName {
	if name := c.DeclName(); name != "" {
		if _, isFile := c.(*decltree.SourceFile); !isFile {
			return path.Add(name)
		}
	}
	return path
}
