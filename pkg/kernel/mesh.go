package kernel

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/chazu/linkage/pkg/geom"
)

// Mesh is a triangle mesh.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // part the mesh was generated for
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

func (m *Mesh) vertex(i int) geom.Vec3 {
	return geom.Vec3{X: float64(m.Vertices[i*3]), Y: float64(m.Vertices[i*3+1]), Z: float64(m.Vertices[i*3+2])}
}

// Transformed returns a copy of m with t applied to every vertex and normal.
func (m *Mesh) Transformed(t geom.Mat4) *Mesh {
	out := &Mesh{
		Vertices: make([]float32, len(m.Vertices)),
		Normals:  make([]float32, len(m.Normals)),
		Indices:  append([]uint32(nil), m.Indices...),
		PartName: m.PartName,
	}
	for i := 0; i < m.VertexCount(); i++ {
		p := t.Apply(m.vertex(i))
		out.Vertices[i*3], out.Vertices[i*3+1], out.Vertices[i*3+2] = float32(p.X), float32(p.Y), float32(p.Z)
	}
	for i := 0; i+2 < len(m.Normals); i += 3 {
		n := t.ApplyVector(geom.Vec3{X: float64(m.Normals[i]), Y: float64(m.Normals[i+1]), Z: float64(m.Normals[i+2])})
		out.Normals[i], out.Normals[i+1], out.Normals[i+2] = float32(n.X), float32(n.Y), float32(n.Z)
	}
	return out
}

// Merge concatenates meshes into one, reindexing triangles.
func Merge(name string, meshes ...*Mesh) *Mesh {
	out := &Mesh{PartName: name}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		base := uint32(out.VertexCount())
		out.Vertices = append(out.Vertices, m.Vertices...)
		out.Normals = append(out.Normals, m.Normals...)
		for _, idx := range m.Indices {
			out.Indices = append(out.Indices, idx+base)
		}
	}
	return out
}

// Bounds returns the axis-aligned bounds of the vertices. ok is false for an
// empty mesh.
func (m *Mesh) Bounds() (min, max [3]float64, ok bool) {
	if m.IsEmpty() {
		return min, max, false
	}
	for c := 0; c < 3; c++ {
		min[c], max[c] = math.Inf(1), math.Inf(-1)
	}
	for i := 0; i < len(m.Vertices); i++ {
		v := float64(m.Vertices[i])
		c := i % 3
		min[c] = math.Min(min[c], v)
		max[c] = math.Max(max[c], v)
	}
	return min, max, true
}

// WriteSTL writes m as binary STL.
func (m *Mesh) WriteSTL(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var header [80]byte
	copy(header[:], m.PartName)
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(m.TriangleCount())); err != nil {
		return err
	}
	var rec [12]float32
	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := m.vertex(int(m.Indices[t*3])), m.vertex(int(m.Indices[t*3+1])), m.vertex(int(m.Indices[t*3+2]))
		n := b.Sub(a).Cross(c.Sub(a))
		if l := n.Norm(); l > 0 {
			n = n.Scale(1 / l)
		}
		rec = [12]float32{
			float32(n.X), float32(n.Y), float32(n.Z),
			float32(a.X), float32(a.Y), float32(a.Z),
			float32(b.X), float32(b.Y), float32(b.Z),
			float32(c.X), float32(c.Y), float32(c.Z),
		}
		if err := binary.Write(bw, binary.LittleEndian, rec); err != nil {
			return err
		}
		if _, err := bw.Write([]byte{0, 0}); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveSTL writes m as binary STL to path.
func (m *Mesh) SaveSTL(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save stl: %w", err)
	}
	if err := m.WriteSTL(f); err != nil {
		f.Close()
		return fmt.Errorf("save stl %s: %w", path, err)
	}
	return f.Close()
}
