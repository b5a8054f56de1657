package kernel

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/linkage/pkg/geom"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

// --- Compile-time interface check with a stub kernel ---

// stubSolid is a minimal Solid implementation for testing.
type stubSolid struct {
	minBB, maxBB [3]float64
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) {
	return s.minBB, s.maxBB
}

// stubKernel is a minimal Kernel implementation that proves the interface
// is satisfiable. All methods return trivial results.
type stubKernel struct{}

func (k *stubKernel) Box(x, y, z float64) Solid {
	return &stubSolid{
		minBB: [3]float64{0, 0, 0},
		maxBB: [3]float64{x, y, z},
	}
}

func (k *stubKernel) Cylinder(height, radius float64) Solid {
	return &stubSolid{
		minBB: [3]float64{-radius, -radius, -height / 2},
		maxBB: [3]float64{radius, radius, height / 2},
	}
}

func (k *stubKernel) Sphere(radius float64) Solid {
	return &stubSolid{
		minBB: [3]float64{-radius, -radius, -radius},
		maxBB: [3]float64{radius, radius, radius},
	}
}

func (k *stubKernel) Union(a, _ Solid) Solid                   { return a }
func (k *stubKernel) Translate(s Solid, _, _, _ float64) Solid { return s }
func (k *stubKernel) Transform(s Solid, _ geom.Mat4) Solid     { return s }

func (k *stubKernel) ToMesh(_ Solid) (*Mesh, error) {
	return &Mesh{}, nil
}

// Compile-time checks that the stubs implement the interfaces.
var _ Solid = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)

func TestStubKernelBoxBoundingBox(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Box(10, 20, 30)
	min, max := s.BoundingBox()
	if min != [3]float64{0, 0, 0} {
		t.Errorf("Box min = %v, want [0 0 0]", min)
	}
	if max != [3]float64{10, 20, 30} {
		t.Errorf("Box max = %v, want [10 20 30]", max)
	}
}

func TestStubKernelToMesh(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Box(1, 1, 1)
	m, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	if m == nil {
		t.Fatal("ToMesh() returned nil mesh")
	}
	if !m.IsEmpty() {
		t.Error("stub ToMesh() should return empty mesh")
	}
}

// --- Mesh operations ---

// triangle returns a one-triangle mesh in the XY plane.
func triangle(name string) *Mesh {
	return &Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:  []uint32{0, 1, 2},
		PartName: name,
	}
}

func TestMeshTransformed(t *testing.T) {
	m := triangle("tri")
	rot := geom.Translation(geom.Vec3{X: 10}).Mul(geom.RotationX(math.Pi / 2))
	got := m.Transformed(rot)

	// Vertex (0,1,0) rotates onto +Z and moves by 10 along X.
	want := []float32{10, 0, 0, 11, 0, 0, 10, 0, 1}
	for i := range want {
		if math.Abs(float64(got.Vertices[i]-want[i])) > 1e-6 {
			t.Fatalf("vertices = %v, want %v", got.Vertices, want)
		}
	}
	// Normals rotate without translating: +Z becomes -Y.
	if math.Abs(float64(got.Normals[1]+1)) > 1e-6 || math.Abs(float64(got.Normals[0])) > 1e-6 {
		t.Errorf("normal = %v, want (0,-1,0)", got.Normals[:3])
	}
	if m.Vertices[0] != 0 {
		t.Error("Transformed modified the source mesh")
	}
}

func TestMerge(t *testing.T) {
	a, b := triangle("a"), triangle("b")
	m := Merge("link", a, nil, b)
	if m.PartName != "link" {
		t.Errorf("PartName = %q, want link", m.PartName)
	}
	if m.VertexCount() != 6 || m.TriangleCount() != 2 {
		t.Fatalf("merged %d vertices %d triangles, want 6 and 2", m.VertexCount(), m.TriangleCount())
	}
	wantIdx := []uint32{0, 1, 2, 3, 4, 5}
	for i, idx := range m.Indices {
		if idx != wantIdx[i] {
			t.Fatalf("indices = %v, want %v", m.Indices, wantIdx)
		}
	}
}

func TestMeshBounds(t *testing.T) {
	if _, _, ok := (&Mesh{}).Bounds(); ok {
		t.Error("empty mesh reported bounds")
	}
	min, max, ok := triangle("t").Bounds()
	if !ok {
		t.Fatal("no bounds")
	}
	if min != [3]float64{0, 0, 0} || max != [3]float64{1, 1, 0} {
		t.Errorf("bounds = %v %v", min, max)
	}
}

func TestWriteSTL(t *testing.T) {
	var buf bytes.Buffer
	m := Merge("pair", triangle("a"), triangle("b"))
	if err := m.WriteSTL(&buf); err != nil {
		t.Fatalf("WriteSTL: %v", err)
	}
	data := buf.Bytes()
	if len(data) != 84+2*50 {
		t.Fatalf("stl size = %d, want %d", len(data), 84+2*50)
	}
	if n := binary.LittleEndian.Uint32(data[80:84]); n != 2 {
		t.Errorf("triangle count = %d, want 2", n)
	}
	nz := math.Float32frombits(binary.LittleEndian.Uint32(data[84+8 : 84+12]))
	if nz != 1 {
		t.Errorf("facet normal z = %v, want 1", nz)
	}
}

func TestSaveSTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.stl")
	if err := triangle("t").SaveSTL(path); err != nil {
		t.Fatalf("SaveSTL: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 134 {
		t.Errorf("file size = %d, want 134", info.Size())
	}
	if err := triangle("t").SaveSTL(filepath.Join(t.TempDir(), "missing", "x.stl")); err == nil {
		t.Error("SaveSTL into a missing directory should fail")
	}
}
