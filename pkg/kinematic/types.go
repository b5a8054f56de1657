package kinematic

import (
	"strings"

	"go.uber.org/zap"

	"github.com/chazu/linkage/pkg/geom"
	"github.com/chazu/linkage/pkg/graph"
)

// FrameLink is the placeholder link frame children are assigned to when
// frames are not drawn. It never appears in the tree.
const FrameLink = "frame"

// JointType is the kind of joint a DOF mate becomes.
type JointType string

const (
	Revolute  JointType = "revolute"
	Prismatic JointType = "prismatic"
	Fixed     JointType = "fixed"
)

// Limits is a joint range in radians or meters.
type Limits struct {
	Min, Max float64
}

// LimitsProvider looks up the limits of a mate by its feature name. It
// returns nil limits when the mate has limits disabled.
type LimitsProvider interface {
	Limits(mate, mateType string) (*Limits, error)
}

// LimitsFunc adapts a function to LimitsProvider.
type LimitsFunc func(mate, mateType string) (*Limits, error)

func (f LimitsFunc) Limits(mate, mateType string) (*Limits, error) {
	return f(mate, mateType)
}

// Relation is a resolved DOF mate: a joint from the Parent link to the Child
// link. AxisFrame places the joint in world frame; its local z axis is the
// rotation or sliding axis.
type Relation struct {
	Name      string // DOF name, e.g. "shoulder"
	Mate      string // mate feature name, e.g. "dof_shoulder"
	Child     string
	Parent    string
	Type      JointType
	AxisFrame geom.Mat4
	ZAxis     geom.Vec3
	Limits    *Limits
	Inverted  bool
	Reversed  bool // tree orientation is opposite to the authored one

	parentRoot string
}

// Frame is a named pose attached to a link.
type Frame struct {
	Name      string
	Link      string
	Path      []string
	Transform geom.Mat4
}

// Node is one link of the collected tree. Joint is nil for the trunk.
type Node struct {
	ID       string
	Name     string
	Joint    *Relation
	Children []*Node
}

// Walk calls fn for n and its descendants, parents first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Options controls resolution.
type Options struct {
	IgnoreLimits bool
	DrawFrames   bool
	Limits       LimitsProvider
	Logger       *zap.Logger
}

// Robot is the resolved kinematic tree and everything renderers need
// alongside it.
type Robot struct {
	Trunk     string
	Tree      *Node
	Relations []*Relation

	// Assignments maps each top-level occurrence id to the link id it
	// belongs to, or to FrameLink.
	Assignments map[string]string
	Frames      map[string][]Frame
	LinkNames   map[string]string
	Index       *graph.Index
	Warnings    []graph.Diagnostic
}

// LinkOf returns the link an occurrence path belongs to.
func (r *Robot) LinkOf(path []string) (string, bool) {
	if len(path) == 0 {
		return "", false
	}
	link, ok := r.Assignments[path[0]]
	return link, ok
}

// Links returns the link ids in tree order.
func (r *Robot) Links() []string {
	var ids []string
	r.Tree.Walk(func(n *Node) { ids = append(ids, n.ID) })
	return ids
}

// Members returns the top-level occurrence ids assigned to link, in
// declaration order.
func (r *Robot) Members(link string) []string {
	var out []string
	for _, occ := range r.Index.Occurrences() {
		if occ.TopLevel() && r.Assignments[occ.ID()] == link {
			out = append(out, occ.ID())
		}
	}
	return out
}

// DisplayName returns the instance names along path joined for display.
func (r *Robot) DisplayName(path []string) string {
	return strings.Join(r.Index.Names(path), " > ")
}
