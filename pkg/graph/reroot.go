package graph

import (
	"fmt"
	"sort"
)

// Tree is an undirected mate graph oriented away from a root by a
// breadth-first traversal.
type Tree struct {
	Root     string
	parent   map[string]string
	children map[string][]string
	order    []string // visit order
}

// Reroot orients edges away from root. Nodes lists every node of the graph,
// including those without edges; edge endpoints are added implicitly.
// Neighbors are visited in sorted order so identical input always yields an
// identical tree. Nodes not connected to root are left out of the tree.
func Reroot(nodes []string, edges []Edge, root string) (*Tree, error) {
	return RerootPreferring(nodes, nil, edges, root)
}

// RerootPreferring orients edges away from root like Reroot, but every
// node reachable through preferred edges is reached through them. Other
// edges only enter the tree to connect a node no preferred edge reaches
// from the tree built so far, one node at a time. A preferred edge is then
// left out of the tree only when preferred edges alone form a cycle.
func RerootPreferring(nodes []string, preferred, edges []Edge, root string) (*Tree, error) {
	adj := adjacency(nodes, edges)
	pref := adjacency(nil, preferred)
	if _, ok := adj[root]; !ok {
		if _, ok := pref[root]; !ok {
			return nil, fmt.Errorf("graph: %w: %s", ErrRootNotInGraph, root)
		}
	}

	t := &Tree{
		Root:     root,
		parent:   map[string]string{root: ""},
		children: make(map[string][]string),
	}
	visit := func(parent, n string) {
		t.parent[n] = parent
		t.children[parent] = append(t.children[parent], n)
		t.order = append(t.order, n)
	}
	t.order = append(t.order, root)

	// prefQueue holds nodes whose preferred neighbors are unexplored,
	// otherQueue nodes whose other neighbors may still be unexplored.
	prefQueue := []string{root}
	otherQueue := []string{root}
	for len(prefQueue) > 0 || len(otherQueue) > 0 {
		if len(prefQueue) > 0 {
			cur := prefQueue[0]
			prefQueue = prefQueue[1:]
			for _, next := range pref[cur] {
				if _, seen := t.parent[next]; seen {
					continue
				}
				visit(cur, next)
				prefQueue = append(prefQueue, next)
				otherQueue = append(otherQueue, next)
			}
			continue
		}
		cur := otherQueue[0]
		next, ok := "", false
		for _, n := range adj[cur] {
			if _, seen := t.parent[n]; !seen {
				next, ok = n, true
				break
			}
		}
		if !ok {
			otherQueue = otherQueue[1:]
			continue
		}
		visit(cur, next)
		prefQueue = append(prefQueue, next)
		otherQueue = append(otherQueue, next)
	}
	return t, nil
}

func adjacency(nodes []string, edges []Edge) map[string][]string {
	adj := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		if _, ok := adj[n]; !ok {
			adj[n] = nil
		}
	}
	for _, e := range edges {
		adj[e.A] = append(adj[e.A], e.B)
		adj[e.B] = append(adj[e.B], e.A)
	}
	for n := range adj {
		sort.Strings(adj[n])
	}
	return adj
}

// Contains reports whether id is reachable from the root.
func (t *Tree) Contains(id string) bool {
	_, ok := t.parent[id]
	return ok
}

// Parent returns the parent of id. The root has no parent.
func (t *Tree) Parent(id string) (string, bool) {
	p, ok := t.parent[id]
	if !ok || id == t.Root {
		return "", false
	}
	return p, true
}

// Children returns the children of id in visit order.
func (t *Tree) Children(id string) []string {
	return t.children[id]
}

// Nodes returns the reachable nodes in visit order.
func (t *Tree) Nodes() []string {
	return t.order
}

// Orient returns the parent and child of the edge {a, b}. It fails with
// ErrRerootInconsistency when the edge is not a tree edge, which happens when
// it closes a loop, and with ErrRootNotInGraph when an end is unreachable.
func (t *Tree) Orient(a, b string) (parent, child string, err error) {
	if !t.Contains(a) || !t.Contains(b) {
		return "", "", fmt.Errorf("%w: %s-%s is not connected to %s", ErrRootNotInGraph, a, b, t.Root)
	}
	if p, ok := t.Parent(b); ok && p == a {
		return a, b, nil
	}
	if p, ok := t.Parent(a); ok && p == b {
		return b, a, nil
	}
	return "", "", fmt.Errorf("%w: %s-%s closes a loop", ErrRerootInconsistency, a, b)
}

// DirectedEdges returns the tree edges as parent to child pairs in visit
// order.
func (t *Tree) DirectedEdges() []Edge {
	var out []Edge
	for _, n := range t.order {
		for _, c := range t.children[n] {
			out = append(out, Edge{A: n, B: c})
		}
	}
	return out
}

// SelectRoot picks the trunk: the tagged trunk if any, else the first root
// instance when there are no DOF mates, else the parent of the first DOF
// mate whose parent is never a DOF child.
func SelectRoot(idx *Index, mg *MateGraph) (string, error) {
	if mg.Trunk != "" {
		return mg.Trunk, nil
	}
	dofs := mg.DOFs()
	if len(dofs) == 0 {
		if id, ok := idx.FirstInstance(); ok {
			return id, nil
		}
		return "", fmt.Errorf("graph: %w: assembly has no instances", ErrNoTrunkCandidate)
	}
	children := make(map[string]bool, len(dofs))
	for _, m := range dofs {
		children[m.Entities[0].Root()] = true
	}
	for _, m := range dofs {
		if p := m.Entities[1].Root(); !children[p] {
			return p, nil
		}
	}
	return "", fmt.Errorf("graph: %w: every DOF parent is also a DOF child", ErrNoTrunkCandidate)
}
