// Package tessellate produces one triangle mesh per part using a geometry
// kernel. A part's mesh is built from its pure shapes when it has some and
// from its bounding box otherwise, in the part frame. Meshes can be cached
// and written as STL files, and the meshes of one link can be merged.
package tessellate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/linkage/pkg/assembly"
	"github.com/chazu/linkage/pkg/cache"
	"github.com/chazu/linkage/pkg/geom"
	"github.com/chazu/linkage/pkg/kernel"
)

// ErrNoGeometry is returned for a part with neither shapes nor a bounding box.
var ErrNoGeometry = errors.New("part has no geometry")

// cacheMethod names mesh entries in the cache.
const cacheMethod = "mesh"

// Part is one tessellation request.
type Part struct {
	// Key identifies the part geometry, e.g. element/part plus configuration.
	Key string
	// Name is the file stem the mesh is exported under.
	Name     string
	Metadata assembly.PartMetadata
}

// Tessellator turns parts into meshes.
type Tessellator struct {
	k       kernel.Kernel
	cache   *cache.Cache
	workers int
	log     *zap.Logger
	rec     CacheRecorder
}

// CacheRecorder counts mesh cache lookups.
type CacheRecorder interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

// Option configures a Tessellator.
type Option func(*Tessellator)

// WithCache stores generated meshes in c.
func WithCache(c *cache.Cache) Option {
	return func(t *Tessellator) { t.cache = c }
}

// WithWorkers bounds the number of parts tessellated concurrently.
func WithWorkers(n int) Option {
	return func(t *Tessellator) {
		if n > 0 {
			t.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(t *Tessellator) {
		if log != nil {
			t.log = log
		}
	}
}

// WithRecorder reports every cache lookup to r.
func WithRecorder(r CacheRecorder) Option {
	return func(t *Tessellator) { t.rec = r }
}

// New returns a Tessellator using kernel k.
func New(k kernel.Kernel, opts ...Option) *Tessellator {
	t := &Tessellator{k: k, workers: 4, log: zap.NewNop()}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Solid builds the proxy solid of a part in its own frame.
func Solid(k kernel.Kernel, md assembly.PartMetadata) (kernel.Solid, error) {
	if len(md.Shapes) == 0 {
		if md.BoundingBox == nil {
			return nil, ErrNoGeometry
		}
		bb := md.BoundingBox
		size := geom.V(bb.Max).Sub(geom.V(bb.Min))
		if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
			return nil, fmt.Errorf("%w: degenerate bounding box %v..%v", ErrNoGeometry, bb.Min, bb.Max)
		}
		return k.Translate(k.Box(size.X, size.Y, size.Z), bb.Min[0], bb.Min[1], bb.Min[2]), nil
	}

	var solid kernel.Solid
	for i, sh := range md.Shapes {
		s, err := shapeSolid(k, sh)
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		if solid == nil {
			solid = s
		} else {
			solid = k.Union(solid, s)
		}
	}
	return solid, nil
}

func shapeSolid(k kernel.Kernel, sh assembly.Shape) (kernel.Solid, error) {
	p := sh.Parameters
	var s kernel.Solid
	switch sh.Type {
	case assembly.ShapeBox:
		if len(p) != 3 {
			return nil, fmt.Errorf("box wants 3 parameters, got %d", len(p))
		}
		s = k.Translate(k.Box(p[0], p[1], p[2]), -p[0]/2, -p[1]/2, -p[2]/2)
	case assembly.ShapeCylinder:
		if len(p) != 2 {
			return nil, fmt.Errorf("cylinder wants 2 parameters, got %d", len(p))
		}
		s = k.Cylinder(p[0], p[1])
	case assembly.ShapeSphere:
		if len(p) != 1 {
			return nil, fmt.Errorf("sphere wants 1 parameter, got %d", len(p))
		}
		s = k.Sphere(p[0])
	default:
		return nil, fmt.Errorf("unknown shape type %q", sh.Type)
	}
	if len(sh.Transform) > 0 {
		m, err := geom.FromSlice(sh.Transform)
		if err != nil {
			return nil, fmt.Errorf("%s transform: %w", sh.Type, err)
		}
		s = k.Transform(s, m)
	}
	return s, nil
}

// Mesh returns the mesh of one part, from the cache when possible.
func (t *Tessellator) Mesh(ctx context.Context, p Part) (*kernel.Mesh, error) {
	generate := func() (*kernel.Mesh, error) {
		solid, err := Solid(t.k, p.Metadata)
		if err != nil {
			return nil, err
		}
		return t.k.ToMesh(solid)
	}

	var mesh *kernel.Mesh
	if t.cache == nil {
		m, err := generate()
		if err != nil {
			return nil, fmt.Errorf("tessellate: %s: %w", p.Name, err)
		}
		mesh = m
	} else {
		missed := false
		blob, err := t.cache.GetOrAdd(ctx, cacheMethod, p.Key, func() ([]byte, error) {
			missed = true
			t.log.Debug("tessellating part", zap.String("part", p.Name), zap.String("key", p.Key))
			m, err := generate()
			if err != nil {
				return nil, err
			}
			return json.Marshal(m)
		})
		if err != nil {
			return nil, fmt.Errorf("tessellate: %s: %w", p.Name, err)
		}
		if t.rec != nil {
			if missed {
				t.rec.RecordCacheMiss(cacheMethod)
			} else {
				t.rec.RecordCacheHit(cacheMethod)
			}
		}
		mesh = &kernel.Mesh{}
		if err := json.Unmarshal(blob, mesh); err != nil {
			return nil, fmt.Errorf("tessellate: %s: decoding cached mesh: %w", p.Name, err)
		}
	}
	mesh.PartName = p.Name
	return mesh, nil
}

// Meshes tessellates parts concurrently. Results are in input order; the
// first failure cancels the rest.
func (t *Tessellator) Meshes(ctx context.Context, parts []Part) ([]*kernel.Mesh, error) {
	out := make([]*kernel.Mesh, len(parts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for i, p := range parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := t.Mesh(ctx, p)
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Export tessellates parts and writes each as <dir>/<name>.stl. It returns
// the meshes in input order.
func (t *Tessellator) Export(ctx context.Context, dir string, parts []Part) ([]*kernel.Mesh, error) {
	meshes, err := t.Meshes(ctx, parts)
	if err != nil {
		return nil, err
	}
	for i, m := range meshes {
		path := filepath.Join(dir, parts[i].Name+".stl")
		if err := m.SaveSTL(path); err != nil {
			return nil, fmt.Errorf("tessellate: %w", err)
		}
		t.log.Debug("wrote mesh", zap.String("path", path), zap.Int("triangles", m.TriangleCount()))
	}
	return meshes, nil
}

// Placed is a part mesh with its pose in the link frame.
type Placed struct {
	Mesh *kernel.Mesh
	Pose geom.Mat4
}

// MergeLink merges the part meshes of one link into a single mesh in the
// link frame.
func MergeLink(name string, parts []Placed) *kernel.Mesh {
	moved := make([]*kernel.Mesh, 0, len(parts))
	for _, p := range parts {
		if p.Mesh == nil {
			continue
		}
		moved = append(moved, p.Mesh.Transformed(p.Pose))
	}
	return kernel.Merge(name, moved...)
}
