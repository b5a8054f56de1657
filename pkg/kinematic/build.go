package kinematic

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/chazu/linkage/pkg/assembly"
	"github.com/chazu/linkage/pkg/graph"
)

// Build resolves doc into a kinematic tree.
func Build(doc *assembly.Document, opts Options) (*Robot, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	idx, err := graph.NewIndex(doc)
	if err != nil {
		return nil, err
	}
	mg, err := graph.BuildMates(idx, doc.RootAssembly.Features, log)
	if err != nil {
		return nil, err
	}
	log.Info("parsed assembly tags",
		zap.Int("occurrences", len(idx.Occurrences())),
		zap.Int("dofs", len(mg.DOFs())),
		zap.Int("links", len(mg.LinkTags)))

	trunk, err := graph.SelectRoot(idx, mg)
	if err != nil {
		return nil, err
	}
	tree, err := graph.RerootPreferring(idx.Roots(), dofEdges(mg), mg.Edges, trunk)
	if err != nil {
		return nil, err
	}
	log.Info("selected trunk", zap.String("trunk", idx.Name(trunk)))

	r := &resolution{
		idx:      idx,
		mg:       mg,
		tree:     tree,
		opts:     opts,
		log:      log,
		trunk:    trunk,
		assign:   make(map[string]string),
		anchored: make(map[string]bool),
		byChild:  make(map[string]*Relation),
		frames:   make(map[string][]Frame),
		warnings: append([]graph.Diagnostic(nil), mg.Diagnostics...),
		warned:   make(map[string]bool),
	}
	if err := r.resolveDOFs(); err != nil {
		return nil, err
	}
	r.anchor(trunk)
	if err := r.propagate(); err != nil {
		return nil, err
	}
	r.assignOrphans()
	if err := r.linkParents(); err != nil {
		return nil, err
	}

	root, err := collect(trunk, r.relations)
	if err != nil {
		return nil, err
	}
	tags, err := r.bubbleTags()
	if err != nil {
		return nil, err
	}
	names := r.nameLinks(root, tags)

	robot := &Robot{
		Trunk:       trunk,
		Tree:        root,
		Relations:   r.relations,
		Assignments: r.assign,
		Frames:      r.frames,
		LinkNames:   names,
		Index:       idx,
		Warnings:    r.warnings,
	}
	log.Info("built kinematic tree",
		zap.Int("links", len(names)),
		zap.Int("joints", len(r.relations)),
		zap.Int("warnings", len(r.warnings)))
	return robot, nil
}

// dofEdges returns the edges of the DOF mates. The tree follows them
// first so that a structural mate closing a loop never displaces a joint.
func dofEdges(mg *graph.MateGraph) []graph.Edge {
	var out []graph.Edge
	for _, m := range mg.DOFs() {
		a, b := m.Entities[0].Root(), m.Entities[1].Root()
		if a != b {
			out = append(out, graph.Edge{A: a, B: b})
		}
	}
	return out
}

// String renders the tree for display.
func (r *Robot) String() string {
	var out string
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		line := fmt.Sprintf("%*s%s", depth*2, "", n.Name)
		if j := n.Joint; j != nil {
			line += fmt.Sprintf(" [%s %s", j.Type, j.Name)
			if j.Limits != nil {
				line += fmt.Sprintf(" %.3f..%.3f", j.Limits.Min, j.Limits.Max)
			}
			line += "]"
		}
		out += line + "\n"
		for _, f := range r.Frames[n.ID] {
			out += fmt.Sprintf("%*s@%s\n", depth*2+2, "", f.Name)
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(r.Tree, 0)
	return out
}
