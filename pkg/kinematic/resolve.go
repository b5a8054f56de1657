package kinematic

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/chazu/linkage/pkg/assembly"
	"github.com/chazu/linkage/pkg/geom"
	"github.com/chazu/linkage/pkg/graph"
)

// resolution holds the mutable state of one Build. Each phase owns it in
// turn; nothing else writes to it.
type resolution struct {
	idx  *graph.Index
	mg   *graph.MateGraph
	tree *graph.Tree
	opts Options
	log  *zap.Logger

	trunk     string
	assign    map[string]string
	anchored  map[string]bool
	relations []*Relation
	byChild   map[string]*Relation
	frames    map[string][]Frame
	warnings  []graph.Diagnostic
	warned    map[string]bool
}

func (r *resolution) warn(subject, format string, args ...any) {
	d := graph.Warn(subject, format, args...)
	r.warnings = append(r.warnings, d)
	r.log.Warn(d.Message, zap.String("subject", subject))
}

// JointTypeOf maps a mate type to the joint it becomes.
func JointTypeOf(mateType string) (JointType, error) {
	switch mateType {
	case assembly.MateRevolute, assembly.MateCylindrical:
		return Revolute, nil
	case assembly.MateSlider:
		return Prismatic, nil
	case assembly.MateFastened:
		return Fixed, nil
	default:
		return "", fmt.Errorf("%w: %s (only REVOLUTE, CYLINDRICAL, SLIDER and FASTENED are supported)",
			ErrUnsupportedMateType, mateType)
	}
}

// AxisFrame places the joint of a mated entity in world frame: the
// occurrence transform, then the connector origin, then the connector axes.
// With flip the frame is turned half a revolution about its x axis, which
// reverses z.
func AxisFrame(ent graph.Entity, flip bool) geom.Mat4 {
	cs := ent.CS
	jointToPart := geom.FromAxes(geom.V(cs.XAxis), geom.V(cs.YAxis), geom.V(cs.ZAxis))
	if flip {
		jointToPart = jointToPart.Mul(geom.FlipX())
	}
	return ent.Occurrence.Transform.
		Mul(geom.Translation(geom.V(cs.Origin))).
		Mul(jointToPart)
}

// resolveDOFs turns every DOF mate into a relation oriented by the tree and
// anchors each child as a link.
func (r *resolution) resolveDOFs() error {
	for _, m := range r.mg.DOFs() {
		rel, err := r.resolveDOF(m)
		if err != nil {
			return &graph.MateError{Mate: m.Feature, Err: err}
		}
		if prev, dup := r.byChild[rel.Child]; dup {
			return &graph.MateError{Mate: m.Feature, Err: fmt.Errorf("%w: %s is already the child of %s",
				ErrDuplicateDOF, r.idx.Name(rel.Child), prev.Mate)}
		}
		r.byChild[rel.Child] = rel
		r.relations = append(r.relations, rel)
		r.anchor(rel.Child)

		r.log.Info("found degree of freedom",
			zap.String("dof", rel.Name),
			zap.String("type", string(rel.Type)),
			zap.Bool("inverted", rel.Inverted),
			zap.Bool("reversed", rel.Reversed))
	}
	return nil
}

func (r *resolution) resolveDOF(m *graph.Mate) (*Relation, error) {
	jt, err := JointTypeOf(m.Type)
	if err != nil {
		return nil, err
	}
	declaredChild := m.Entities[0].Root()
	parent, child, err := r.tree.Orient(declaredChild, m.Entities[1].Root())
	if err != nil {
		return nil, err
	}
	reversed := child != declaredChild
	ent := m.Entities[0]
	if reversed {
		ent = m.Entities[1]
		r.log.Debug("degree of freedom reversed by tree orientation", zap.String("dof", m.Name))
	}

	var limits *Limits
	if jt != Fixed && !r.opts.IgnoreLimits && r.opts.Limits != nil {
		limits, err = r.opts.Limits.Limits(m.Feature, m.Type)
		if err != nil {
			return nil, fmt.Errorf("reading limits: %w", err)
		}
		if limits == nil {
			r.warn(m.Feature, "joint %s of type %s has no limits", m.Name, jt)
		}
	}
	if m.Inverted && limits != nil {
		limits = &Limits{Min: -limits.Max, Max: -limits.Min}
	}

	return &Relation{
		Name:       m.Name,
		Mate:       m.Feature,
		Child:      child,
		Type:       jt,
		AxisFrame:  AxisFrame(ent, m.Inverted != reversed),
		ZAxis:      geom.Vec3{Z: 1},
		Limits:     limits,
		Inverted:   m.Inverted,
		Reversed:   reversed,
		parentRoot: parent,
	}, nil
}

// linkParents sets each relation's parent to the link its parent side ended
// up in.
func (r *resolution) linkParents() error {
	for _, rel := range r.relations {
		link, ok := r.assign[rel.parentRoot]
		if !ok || link == FrameLink {
			return &graph.MateError{Mate: rel.Mate, Err: fmt.Errorf("%w: parent %s has no link",
				ErrOrphanedRelation, r.idx.Name(rel.parentRoot))}
		}
		if link == rel.Child {
			return &graph.MateError{Mate: rel.Mate, Err: fmt.Errorf("%w: %s is rigidly attached to its own child",
				graph.ErrRerootInconsistency, r.idx.Name(rel.parentRoot))}
		}
		rel.Parent = link
	}
	return nil
}
