package graph

import (
	"fmt"
	"strings"

	"github.com/chazu/linkage/pkg/assembly"
	"github.com/chazu/linkage/pkg/geom"
)

// Occurrence is one instantiated part or sub-assembly of the flattened
// assembly. Transform places it in world frame.
type Occurrence struct {
	Path      []string
	Instance  assembly.Instance
	Transform geom.Mat4
	Fixed     bool
}

// Key returns the path key of the occurrence.
func (o *Occurrence) Key() string { return PathKey(o.Path) }

// ID returns the leaf instance id.
func (o *Occurrence) ID() string { return o.Path[len(o.Path)-1] }

// Root returns the top-level instance id the occurrence lives under.
func (o *Occurrence) Root() string { return o.Path[0] }

// TopLevel reports whether the occurrence is a direct child of the root
// assembly.
func (o *Occurrence) TopLevel() bool { return len(o.Path) == 1 }

// PathKey joins an instance path into a map key.
func PathKey(path []string) string {
	return strings.Join(path, "/")
}

// Index is a lookup of every occurrence of an assembly.
type Index struct {
	rootInstances []assembly.Instance
	subs          map[assembly.ElementKey][]assembly.Instance
	byPath        map[string]*Occurrence
	byID          map[string][]*Occurrence
	order         []*Occurrence
}

// NewIndex resolves each occurrence of doc to its leaf instance and parses
// its transform. An occurrence whose instance cannot be found fails the
// whole index.
func NewIndex(doc *assembly.Document) (*Index, error) {
	idx := &Index{
		rootInstances: doc.RootAssembly.Instances,
		subs:          make(map[assembly.ElementKey][]assembly.Instance, len(doc.SubAssemblies)),
		byPath:        make(map[string]*Occurrence, len(doc.RootAssembly.Occurrences)),
		byID:          make(map[string][]*Occurrence, len(doc.RootAssembly.Occurrences)),
	}
	for _, sub := range doc.SubAssemblies {
		if _, ok := idx.subs[sub.Key()]; !ok {
			idx.subs[sub.Key()] = sub.Instances
		}
	}

	for _, raw := range doc.RootAssembly.Occurrences {
		if len(raw.Path) == 0 {
			return nil, fmt.Errorf("graph: occurrence with empty path: %w", ErrInstanceNotFound)
		}
		key := PathKey(raw.Path)
		if _, dup := idx.byPath[key]; dup {
			return nil, fmt.Errorf("graph: duplicate occurrence %s", key)
		}
		inst, err := idx.findInstance(raw.Path)
		if err != nil {
			return nil, err
		}
		tf, err := geom.FromSlice(raw.Transform)
		if err != nil {
			return nil, fmt.Errorf("graph: occurrence %s: %w", key, err)
		}
		occ := &Occurrence{
			Path:      append([]string(nil), raw.Path...),
			Instance:  inst,
			Transform: tf,
			Fixed:     raw.Fixed,
		}
		idx.byPath[key] = occ
		idx.byID[occ.ID()] = append(idx.byID[occ.ID()], occ)
		idx.order = append(idx.order, occ)
	}
	return idx, nil
}

// findInstance walks path through the root assembly and the sub-assemblies
// matched by element key.
func (idx *Index) findInstance(path []string) (assembly.Instance, error) {
	instances := idx.rootInstances
	for depth, id := range path {
		inst, ok := instanceByID(instances, id)
		if !ok {
			return assembly.Instance{}, fmt.Errorf("graph: %w: %s", ErrInstanceNotFound, PathKey(path))
		}
		if depth == len(path)-1 {
			return inst, nil
		}
		sub, ok := idx.subs[inst.Key()]
		if !ok {
			return assembly.Instance{}, fmt.Errorf("graph: %w: %s (no sub-assembly for %q)",
				ErrInstanceNotFound, PathKey(path), inst.Name)
		}
		instances = sub
	}
	return assembly.Instance{}, fmt.Errorf("graph: %w: empty path", ErrInstanceNotFound)
}

func instanceByID(instances []assembly.Instance, id string) (assembly.Instance, bool) {
	for _, inst := range instances {
		if inst.ID == id {
			return inst, true
		}
	}
	return assembly.Instance{}, false
}

// Lookup returns the occurrence with exactly this path.
func (idx *Index) Lookup(path []string) (*Occurrence, bool) {
	occ, ok := idx.byPath[PathKey(path)]
	return occ, ok
}

// ByID returns the single occurrence whose leaf instance id is id. It fails
// with ErrAmbiguousOccurrence when the id appears under several paths.
func (idx *Index) ByID(id string) (*Occurrence, error) {
	occs := idx.byID[id]
	switch len(occs) {
	case 0:
		return nil, fmt.Errorf("graph: %w: %s", ErrInstanceNotFound, id)
	case 1:
		return occs[0], nil
	default:
		paths := make([]string, len(occs))
		for i, o := range occs {
			paths[i] = o.Key()
		}
		return nil, fmt.Errorf("graph: %w: %s appears at %s", ErrAmbiguousOccurrence, id, strings.Join(paths, ", "))
	}
}

// Resolve looks path up exactly, falling back to the leaf id.
func (idx *Index) Resolve(path []string) (*Occurrence, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("graph: %w: empty path", ErrInstanceNotFound)
	}
	if occ, ok := idx.Lookup(path); ok {
		return occ, nil
	}
	return idx.ByID(path[len(path)-1])
}

// Suppressed reports whether the occurrence at path, or any occurrence on
// the way to it, is suppressed.
func (idx *Index) Suppressed(path []string) bool {
	for i := 1; i <= len(path); i++ {
		if occ, ok := idx.Lookup(path[:i]); ok {
			if occ.Instance.Suppressed {
				return true
			}
			continue
		}
		inst, err := idx.findInstance(path[:i])
		if err == nil && inst.Suppressed {
			return true
		}
	}
	return false
}

// Names returns the instance names along path, for diagnostics.
func (idx *Index) Names(path []string) []string {
	names := make([]string, 0, len(path))
	for i := 1; i <= len(path); i++ {
		if occ, ok := idx.Lookup(path[:i]); ok {
			names = append(names, occ.Instance.Name)
			continue
		}
		if inst, err := idx.findInstance(path[:i]); err == nil {
			names = append(names, inst.Name)
		} else {
			names = append(names, path[i-1])
		}
	}
	return names
}

// Name returns the display name of a top-level occurrence, or id itself.
func (idx *Index) Name(id string) string {
	if occ, ok := idx.Lookup([]string{id}); ok {
		return occ.Instance.Name
	}
	return id
}

// Occurrences returns every occurrence in declaration order.
func (idx *Index) Occurrences() []*Occurrence {
	return idx.order
}

// Roots returns the ids of the non-suppressed top-level occurrences in
// declaration order.
func (idx *Index) Roots() []string {
	var roots []string
	for _, occ := range idx.order {
		if occ.TopLevel() && !occ.Instance.Suppressed {
			roots = append(roots, occ.ID())
		}
	}
	return roots
}

// FirstInstance returns the first non-suppressed instance declared in the
// root assembly.
func (idx *Index) FirstInstance() (string, bool) {
	for _, inst := range idx.rootInstances {
		if inst.Suppressed {
			continue
		}
		if _, ok := idx.Lookup([]string{inst.ID}); ok {
			return inst.ID, true
		}
	}
	return "", false
}

// Parts returns the non-suppressed part occurrences under the top-level
// occurrence root, in declaration order.
func (idx *Index) Parts(root string) []*Occurrence {
	var parts []*Occurrence
	for _, occ := range idx.order {
		if occ.Root() != root || !occ.Instance.IsPart() || idx.Suppressed(occ.Path) {
			continue
		}
		parts = append(parts, occ)
	}
	return parts
}
