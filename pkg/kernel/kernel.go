// Package kernel defines the geometry kernel used to build part proxy
// solids and turn them into triangle meshes for link visuals and
// collisions. The sdfx subpackage is the only backend.
package kernel

import "github.com/chazu/linkage/pkg/geom"

// Solid is an opaque handle to a geometry kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds solids and tessellates them.
type Kernel interface {
	// Primitives. Box has its minimum corner at the origin; Cylinder and
	// Sphere are centered on it, the cylinder axis along Z.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid
	Sphere(radius float64) Solid

	Union(a, b Solid) Solid

	Translate(s Solid, x, y, z float64) Solid
	// Transform applies a rigid transform.
	Transform(s Solid, m geom.Mat4) Solid

	ToMesh(s Solid) (*Mesh, error)
}
