// Package render turns a resolved kinematic tree into a URDF or SDF robot
// description. Plan lays out links, joints, geometry and mass properties in
// a format independent Model; WriteURDF and WriteSDF serialize it.
package render

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chazu/linkage/pkg/assembly"
	"github.com/chazu/linkage/pkg/geom"
	"github.com/chazu/linkage/pkg/graph"
	"github.com/chazu/linkage/pkg/kinematic"
	"github.com/chazu/linkage/pkg/tessellate"
)

// Geometry is exactly one of a mesh file or a primitive.
type Geometry struct {
	Mesh     string
	Box      *[3]float64
	Cylinder *[2]float64 // length, radius
	Sphere   *float64
}

// Element is a visual or collision entry of a link.
type Element struct {
	Name     string
	Pose     geom.Mat4
	Geometry Geometry
	Color    [4]float64
}

// Inertial is the mass properties of a link in its frame. Inertia is taken
// about the center of mass.
type Inertial struct {
	Mass    float64
	COM     geom.Vec3
	Inertia geom.Mat3
}

// Placement is a part mesh posed in a link frame.
type Placement struct {
	Mesh string // tessellate part name
	Pose geom.Mat4
}

// MergedMesh is a link mesh assembled from several part meshes.
type MergedMesh struct {
	Name  string // file stem, e.g. "arm_visual"
	Parts []Placement
}

// Joint connects Parent to Child.
type Joint struct {
	Name     string
	Type     kinematic.JointType
	Parent   string
	Child    string
	Pose     geom.Mat4
	Axis     geom.Vec3
	Limits   *kinematic.Limits
	Effort   float64
	Velocity float64
}

// Link is one link of the output model. Joint attaches it to its parent and
// is nil for the root.
type Link struct {
	Name       string
	Bare       bool // no inertial block
	Inertial   Inertial
	Visuals    []Element
	Collisions []Element
	Joint      *Joint
}

// Model is a planned robot description.
type Model struct {
	Name          string
	Format        Format
	Links         []*Link // emission order, parents first
	Meshes        []tessellate.Part
	Merged        []MergedMesh
	AdditionalXML string
	Warnings      []graph.Diagnostic
}

// PartSource provides part metadata.
type PartSource interface {
	Part(inst assembly.Instance) (assembly.PartMetadata, bool)
}

var gray = [4]float64{0.5, 0.5, 0.5, 1}

// dummyMass keeps frame links from being treated as world fixed by
// simulators.
const dummyMass = 1e-9

// Plan lays out the model of robot.
func Plan(robot *kinematic.Robot, parts PartSource, opts Options) (*Model, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	p := &planner{
		robot:  robot,
		parts:  parts,
		opts:   opts,
		log:    log,
		stems:  make(map[string]string),
		owners: make(map[string]string),
		model: &Model{
			Name:          opts.RobotName,
			Format:        opts.Format,
			AdditionalXML: opts.AdditionalXML,
		},
	}
	if opts.Format == URDF && opts.AddDummyBaseLink {
		p.model.Links = append(p.model.Links, &Link{Name: "base_link", Bare: true})
	}
	if err := p.link(robot.Tree, geom.Identity(), nil); err != nil {
		return nil, err
	}
	return p.model, nil
}

type planner struct {
	robot *kinematic.Robot
	parts PartSource
	opts  Options
	log   *zap.Logger
	model *Model

	stems  map[string]string // mesh key to file stem
	owners map[string]string // file stem to mesh key
}

func (p *planner) warn(subject, format string, args ...any) {
	d := graph.Warn(subject, format, args...)
	p.model.Warnings = append(p.model.Warnings, d)
	p.log.Warn(d.Message, zap.String("subject", subject))
}

// relative expresses a world transform in the frame of a link placed at
// linkWorld. SDF keeps world frames.
func (p *planner) relative(linkWorld, m geom.Mat4) geom.Mat4 {
	if p.opts.Format == SDF {
		return m
	}
	return linkWorld.RigidInverse().Mul(m)
}

func (p *planner) dummy(name string, joint *Joint) *Link {
	mass := dummyMass
	if p.opts.Format == URDF && p.opts.NoDynamics {
		mass = 0
	}
	return &Link{Name: name, Inertial: Inertial{Mass: mass}, Joint: joint}
}

func (p *planner) fixed(name, parent, child string, pose geom.Mat4) *Joint {
	return &Joint{Name: name, Type: kinematic.Fixed, Parent: parent, Child: child, Pose: pose}
}

// link plans node and its subtree. world is the node's link frame; in SDF
// every link frame is the world frame.
func (p *planner) link(node *kinematic.Node, world geom.Mat4, joint *Joint) error {
	name := p.robot.LinkNames[node.ID]
	if joint == nil && p.opts.Format == URDF && p.opts.AddDummyBaseLink {
		joint = p.fixed("base_link_to_base", "base_link", name, geom.Identity())
	}
	l := &Link{Name: name, Joint: joint}
	p.model.Links = append(p.model.Links, l)

	acc := &linkParts{}
	for _, root := range p.robot.Members(node.ID) {
		for _, occ := range p.robot.Index.Parts(root) {
			if err := p.part(l, acc, occ, world); err != nil {
				return err
			}
		}
	}
	l.Inertial = acc.dynamics()
	p.mergeInto(l, acc)

	if p.opts.UseFixedLinks && len(acc.fixedVisuals) > 0 {
		l.Visuals = append(l.Visuals, Element{Name: name, Pose: geom.Identity(), Geometry: Geometry{Box: &[3]float64{}}, Color: gray})
		for i, v := range acc.fixedVisuals {
			sub := fmt.Sprintf("%s_%d", name, i+1)
			d := p.dummy(sub, p.fixed(sub+"_fixing", name, sub, geom.Identity()))
			d.Visuals = []Element{v}
			p.model.Links = append(p.model.Links, d)
		}
	}

	for _, f := range p.robot.Frames[node.ID] {
		pose := p.relative(world, f.Transform)
		p.model.Links = append(p.model.Links, p.dummy(f.Name, p.fixed(f.Name+"_frame", name, f.Name, pose)))
	}

	for _, child := range node.Children {
		rel := child.Joint
		childWorld := world
		if p.opts.Format == URDF {
			childWorld = rel.AxisFrame
		}
		j := &Joint{
			Name:     rel.Name,
			Type:     rel.Type,
			Parent:   name,
			Child:    p.robot.LinkNames[child.ID],
			Pose:     p.relative(world, rel.AxisFrame),
			Axis:     rel.ZAxis,
			Limits:   rel.Limits,
			Effort:   p.opts.JointMaxEffort.For(rel.Name),
			Velocity: p.opts.JointMaxVelocity.For(rel.Name),
		}
		if err := p.link(child, childWorld, j); err != nil {
			return err
		}
	}
	return nil
}

// meshName registers the mesh of a part instance and returns its file stem.
// Instances of the same part in the same configuration share a mesh.
func (p *planner) meshName(inst assembly.Instance, full string, md assembly.PartMetadata) string {
	key := inst.PartKey() + "@" + inst.Configuration
	if stem, ok := p.stems[key]; ok {
		return stem
	}
	stem := strings.ReplaceAll(full, "/", "_")
	for n := 2; p.owners[stem] != ""; n++ {
		stem = fmt.Sprintf("%s_%d", strings.ReplaceAll(full, "/", "_"), n)
	}
	p.stems[key] = stem
	p.owners[stem] = key
	p.model.Meshes = append(p.model.Meshes, tessellate.Part{Key: key, Name: stem, Metadata: md})
	return stem
}

func (p *planner) mergeInto(l *Link, acc *linkParts) {
	for _, node := range []struct {
		kind  string
		parts []Placement
	}{{"visual", acc.mergedVisual}, {"collision", acc.mergedCollision}} {
		if len(node.parts) == 0 {
			continue
		}
		stem := l.Name + "_" + node.kind
		p.model.Merged = append(p.model.Merged, MergedMesh{Name: stem, Parts: node.parts})
		el := Element{Name: l.Name, Pose: geom.Identity(), Geometry: Geometry{Mesh: p.opts.meshURL(stem + ".stl")}}
		if node.kind == "visual" {
			el.Color = acc.mergedColor()
			l.Visuals = append(l.Visuals, el)
		} else {
			el.Color = gray
			l.Collisions = append(l.Collisions, el)
		}
	}
}
