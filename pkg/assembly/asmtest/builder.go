// Package asmtest builds assembly documents for tests.
package asmtest

import (
	"github.com/chazu/linkage/pkg/assembly"
)

// Identity returns a flat identity transform.
func Identity() []float64 {
	return []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a flat translation transform.
func Translate(x, y, z float64) []float64 {
	return []float64{
		1, 0, 0, x,
		0, 1, 0, y,
		0, 0, 1, z,
		0, 0, 0, 1,
	}
}

// Entity returns a mated entity on path with an identity connector frame.
func Entity(path ...string) assembly.MatedEntity {
	return assembly.MatedEntity{
		MatedOccurrence: path,
		MatedCS: assembly.CoordSystem{
			XAxis: [3]float64{1, 0, 0},
			YAxis: [3]float64{0, 1, 0},
			ZAxis: [3]float64{0, 0, 1},
		},
	}
}

// EntityAt returns a mated entity on path with its connector at origin and
// axes x, y, z.
func EntityAt(path []string, origin, x, y, z [3]float64) assembly.MatedEntity {
	return assembly.MatedEntity{
		MatedOccurrence: path,
		MatedCS:         assembly.CoordSystem{Origin: origin, XAxis: x, YAxis: y, ZAxis: z},
	}
}

// Builder accumulates a document.
type Builder struct {
	doc assembly.Document
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{doc: assembly.Document{
		RootAssembly: assembly.RootAssembly{DocumentID: "doc", ElementID: "root"},
	}}
}

// Part adds a top-level part instance with an identity transform.
func (b *Builder) Part(id, name string) *Builder {
	return b.PartAt(id, name, Identity())
}

// PartAt adds a top-level part instance placed by transform.
func (b *Builder) PartAt(id, name string, transform []float64) *Builder {
	b.doc.RootAssembly.Instances = append(b.doc.RootAssembly.Instances, part(id, name))
	b.occurrence([]string{id}, transform)
	return b
}

// Sub adds a top-level sub-assembly instance holding the given parts, each
// placed at the sub-assembly transform.
func (b *Builder) Sub(id, name string, transform []float64, parts ...assembly.Instance) *Builder {
	inst := assembly.Instance{
		ID:                   id,
		Name:                 name,
		Type:                 assembly.InstanceAssembly,
		DocumentID:           "doc",
		DocumentMicroversion: "mv",
		ElementID:            "el-" + id,
	}
	b.doc.RootAssembly.Instances = append(b.doc.RootAssembly.Instances, inst)
	b.doc.SubAssemblies = append(b.doc.SubAssemblies, assembly.SubAssembly{
		DocumentID:           inst.DocumentID,
		DocumentMicroversion: inst.DocumentMicroversion,
		ElementID:            inst.ElementID,
		Instances:            parts,
	})
	b.occurrence([]string{id}, transform)
	for _, p := range parts {
		b.occurrence([]string{id, p.ID}, transform)
	}
	return b
}

// NestedPart returns a part instance for use with Sub.
func NestedPart(id, name string) assembly.Instance {
	return part(id, name)
}

func part(id, name string) assembly.Instance {
	return assembly.Instance{
		ID:                   id,
		Name:                 name,
		Type:                 assembly.InstancePart,
		DocumentID:           "doc",
		DocumentMicroversion: "mv",
		ElementID:            "ps",
		PartID:               "p" + id,
		Configuration:        "default",
	}
}

func (b *Builder) occurrence(path []string, transform []float64) {
	b.doc.RootAssembly.Occurrences = append(b.doc.RootAssembly.Occurrences, assembly.Occurrence{
		Path:      path,
		Transform: transform,
	})
}

// Suppress marks the top-level instance id suppressed.
func (b *Builder) Suppress(id string) *Builder {
	for i := range b.doc.RootAssembly.Instances {
		if b.doc.RootAssembly.Instances[i].ID == id {
			b.doc.RootAssembly.Instances[i].Suppressed = true
		}
	}
	return b
}

// Mate adds a mate between child and parent entities.
func (b *Builder) Mate(name, mateType string, child, parent assembly.MatedEntity) *Builder {
	return b.feature(assembly.Feature{
		FeatureType: assembly.FeatureMate,
		FeatureData: assembly.FeatureData{
			Name:          name,
			MateType:      mateType,
			MatedEntities: []assembly.MatedEntity{child, parent},
		},
	})
}

// Fasten adds a structural fastened mate between two top-level occurrences.
func (b *Builder) Fasten(name, a, c string) *Builder {
	return b.Mate(name, assembly.MateFastened, Entity(a), Entity(c))
}

// Connector adds a mate connector on path.
func (b *Builder) Connector(name string, path ...string) *Builder {
	return b.feature(assembly.Feature{
		FeatureType: assembly.FeatureMateConnector,
		FeatureData: assembly.FeatureData{Name: name, Occurrence: path},
	})
}

// Group adds a mate group over top-level occurrences.
func (b *Builder) Group(name string, members ...string) *Builder {
	data := assembly.FeatureData{Name: name}
	for _, m := range members {
		data.Occurrences = append(data.Occurrences, assembly.GroupMember{Occurrence: []string{m}})
	}
	return b.feature(assembly.Feature{FeatureType: assembly.FeatureMateGroup, FeatureData: data})
}

// Feature appends an arbitrary feature.
func (b *Builder) Feature(f assembly.Feature) *Builder {
	return b.feature(f)
}

func (b *Builder) feature(f assembly.Feature) *Builder {
	b.doc.RootAssembly.Features = append(b.doc.RootAssembly.Features, f)
	return b
}

// Document returns the built document.
func (b *Builder) Document() *assembly.Document {
	doc := b.doc
	return &doc
}
