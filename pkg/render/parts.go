package render

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chazu/linkage/pkg/assembly"
	"github.com/chazu/linkage/pkg/geom"
	"github.com/chazu/linkage/pkg/graph"
	"github.com/chazu/linkage/pkg/kinematic"
)

// partDynamics is the mass properties of one part in its link frame.
type partDynamics struct {
	mass    float64
	com     geom.Vec3
	inertia geom.Mat3
}

// linkParts accumulates what the parts of one link contribute.
type linkParts struct {
	dyn             []partDynamics
	mergedVisual    []Placement
	mergedCollision []Placement
	fixedVisuals    []Element

	color     [3]float64
	colorMass float64
}

// dynamics sums the part dynamics: masses add, the center of mass is the
// mass weighted mean and every part inertia is moved to it with the
// parallel axis theorem.
func (a *linkParts) dynamics() Inertial {
	var out Inertial
	for _, d := range a.dyn {
		out.Mass += d.mass
		out.COM = out.COM.Add(d.com.Scale(d.mass))
	}
	if out.Mass > 0 {
		out.COM = out.COM.Scale(1 / out.Mass)
	}
	for _, d := range a.dyn {
		r := d.com.Sub(out.COM)
		shift := geom.Identity3().Scale(r.Dot(r)).Add(geom.Outer(r, r).Scale(-1))
		out.Inertia = out.Inertia.Add(d.inertia).Add(shift.Scale(d.mass))
	}
	return out
}

func (a *linkParts) mergedColor() [4]float64 {
	if a.colorMass <= 0 {
		return gray
	}
	return [4]float64{a.color[0] / a.colorMass, a.color[1] / a.colorMass, a.color[2] / a.colorMass, 1}
}

// part adds one part occurrence to link l placed at world.
func (p *planner) part(l *Link, acc *linkParts, occ *graph.Occurrence, world geom.Mat4) error {
	inst := occ.Instance
	display := p.robot.DisplayName(occ.Path)
	if inst.PartID == "" {
		p.warn(display, "part %s has no part id", inst.Name)
		return nil
	}
	base, full := kinematic.PartName(inst.Name, inst.Configuration)
	md, ok := p.parts.Part(inst)
	if !ok {
		p.warn(display, "part %s has no metadata, it is left out", inst.Name)
		return nil
	}
	pose := p.relative(world, occ.Transform)

	visual, collision := true, true
	switch {
	case p.opts.ignored(base):
		visual, collision = false, false
		p.log.Info("ignoring visual and collision", zap.String("part", display))
	case len(p.opts.MaterialTags) > 0:
		if tag, ok := p.opts.materialTag(md.Material); ok {
			visual = tag.AlsoVisual
			p.log.Info("found material tag", zap.String("part", display), zap.String("material", tag.MaterialName))
		} else {
			visual, collision = !p.opts.MaterialTagsOnly, false
		}
	}
	p.log.Info("adding part",
		zap.String("part", display),
		zap.String("link", l.Name),
		zap.String("configuration", inst.Configuration))

	color := gray
	switch {
	case p.opts.Color != nil:
		color = *p.opts.Color
	case md.Color != nil:
		color = *md.Color
	}

	dyn, ok, err := p.partDynamics(display, full, md, pose)
	if err != nil {
		return err
	}
	if ok {
		acc.dyn = append(acc.dyn, dyn)
	}

	if !visual && !collision {
		return nil
	}
	mesh := p.meshName(inst, full, md)
	meshEl := Element{Name: full, Pose: pose, Geometry: Geometry{Mesh: p.opts.meshURL(mesh + ".stl")}, Color: color}

	if visual && !p.opts.DrawCollisions {
		switch {
		case p.opts.UseFixedLinks:
			acc.fixedVisuals = append(acc.fixedVisuals, meshEl)
		case p.opts.merges(MergeVisual):
			acc.mergedVisual = append(acc.mergedVisual, Placement{Mesh: mesh, Pose: pose})
			for i := range acc.color {
				acc.color[i] += color[i] * dyn.mass
			}
			acc.colorMass += dyn.mass
		default:
			l.Visuals = append(l.Visuals, meshEl)
		}
	}
	if !collision {
		return nil
	}

	var shapes []Element
	if len(md.Shapes) > 0 {
		shapes, err = shapeElements(full, pose, color, md.Shapes, p.opts.ShapeDilatation)
		if err != nil {
			return fmt.Errorf("render: part %s: %w", display, err)
		}
	}
	targets := []*[]Element{&l.Collisions}
	if p.opts.DrawCollisions {
		targets = append(targets, &l.Visuals)
	}
	for _, t := range targets {
		switch {
		case shapes != nil:
			*t = append(*t, shapes...)
		case t == &l.Collisions && p.opts.merges(MergeCollision):
			acc.mergedCollision = append(acc.mergedCollision, Placement{Mesh: mesh, Pose: pose})
		default:
			*t = append(*t, meshEl)
		}
	}
	return nil
}

// partDynamics returns the mass properties of a part expressed in the link
// frame. ok is false when the part has none.
func (p *planner) partDynamics(display, full string, md assembly.PartMetadata, pose geom.Mat4) (partDynamics, bool, error) {
	if p.opts.NoDynamics {
		return partDynamics{}, false, nil
	}
	var (
		mass    float64
		com     geom.Vec3
		inertia geom.Mat3
	)
	if o, ok := p.opts.Dynamics[strings.ToLower(full)]; ok {
		if len(o.Inertia) != 0 && len(o.Inertia) < 9 {
			return partDynamics{}, false, fmt.Errorf("render: dynamics of %s: inertia has %d values, want 9", full, len(o.Inertia))
		}
		mass, com, inertia = o.Mass, geom.V(o.COM), geom.Mat3FromSlice(o.Inertia)
	} else {
		if md.Mass == nil {
			p.warn(display, "part %s has no dynamics (maybe it is a surface)", full)
			return partDynamics{}, false, nil
		}
		mass, com, inertia = *md.Mass, geom.V(md.Centroid), geom.Mat3FromSlice(md.Inertia)
		if mass < 1e-4 {
			p.warn(display, "part %s has no mass, maybe it needs a material", full)
		}
	}
	r := pose.Rotation()
	return partDynamics{
		mass:    mass,
		com:     pose.Apply(com),
		inertia: r.Mul(inertia).Mul(r.Transpose()),
	}, true, nil
}

func shapeElements(name string, pose geom.Mat4, color [4]float64, shapes []assembly.Shape, dilatation float64) ([]Element, error) {
	out := make([]Element, 0, len(shapes))
	for i, sh := range shapes {
		sh = sh.Dilated(dilatation)
		shapePose := geom.Identity()
		if len(sh.Transform) > 0 {
			m, err := geom.FromSlice(sh.Transform)
			if err != nil {
				return nil, fmt.Errorf("shape %d: %w", i, err)
			}
			shapePose = m
		}
		el := Element{Name: name, Pose: pose.Mul(shapePose), Color: color}
		prm := sh.Parameters
		switch {
		case sh.Type == assembly.ShapeBox && len(prm) == 3:
			el.Geometry.Box = &[3]float64{prm[0], prm[1], prm[2]}
		case sh.Type == assembly.ShapeCylinder && len(prm) == 2:
			el.Geometry.Cylinder = &[2]float64{prm[0], prm[1]}
		case sh.Type == assembly.ShapeSphere && len(prm) == 1:
			radius := prm[0]
			el.Geometry.Sphere = &radius
		default:
			return nil, fmt.Errorf("shape %d: bad %s with %d parameters", i, sh.Type, len(prm))
		}
		out = append(out, el)
	}
	return out, nil
}
