package kinematic

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/chazu/linkage/pkg/graph"
)

// anchor makes root its own link. Anchored roots are never reassigned.
func (r *resolution) anchor(root string) {
	r.assign[root] = root
	r.anchored[root] = true
}

// assignRoot assigns root to link and reports whether root was unassigned
// before. Moving an assigned root to another link is warned about once and
// the last write wins, except for anchored roots.
func (r *resolution) assignRoot(root, link string) bool {
	prev, ok := r.assign[root]
	if !ok {
		r.assign[root] = link
		r.log.Debug("assigned occurrence",
			zap.String("occurrence", r.idx.Name(root)),
			zap.String("link", r.idx.Name(link)))
		return true
	}
	if prev == link || r.anchored[root] {
		return false
	}
	key := root + "->" + link
	if !r.warned[key] {
		r.warned[key] = true
		r.warn(r.idx.Name(root), "reassigned from link %s to link %s", r.idx.Name(prev), r.idx.Name(link))
	}
	r.assign[root] = link
	return false
}

// propagate spreads assignments through mate groups and structural mates
// until a pass assigns nothing new. Every pass that changes something
// assigns at least one more root, so len(roots)+1 passes always suffice on
// well-formed input.
func (r *resolution) propagate() error {
	maxPasses := len(r.idx.Roots()) + 1
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for _, g := range r.mg.Groups {
			changed = r.spreadGroup(g) || changed
		}
		for _, m := range r.mg.Structural() {
			changed = r.spreadMate(m) || changed
		}
		if !changed {
			r.log.Debug("assignment converged", zap.Int("passes", pass+1))
			return nil
		}
	}
	return fmt.Errorf("%w after %d passes", ErrPropagationDidNotConverge, maxPasses)
}

func (r *resolution) spreadGroup(g graph.Group) bool {
	link := ""
	for _, member := range g.Members {
		if l, ok := r.assign[member]; ok && l != FrameLink {
			link = l
			break
		}
	}
	if link == "" {
		return false
	}
	changed := false
	for _, member := range g.Members {
		changed = r.assignRoot(member, link) || changed
	}
	return changed
}

func (r *resolution) spreadMate(m *graph.Mate) bool {
	a, b := m.Entities[0].Root(), m.Entities[1].Root()
	if a == b {
		return false
	}
	_, aok := r.assign[a]
	_, bok := r.assign[b]
	if aok == bok {
		return false
	}
	src, dst := m.Entities[0], m.Entities[1]
	if bok {
		src, dst = dst, src
	}
	link := r.assign[src.Root()]
	if link == FrameLink {
		return false
	}

	if m.Kind != graph.MateFrame {
		return r.assignRoot(dst.Root(), link)
	}

	r.frames[link] = append(r.frames[link], Frame{
		Name:      m.Name,
		Link:      link,
		Path:      dst.Path,
		Transform: dst.Occurrence.Transform,
	})
	r.log.Info("found frame",
		zap.String("frame", m.Name),
		zap.String("link", r.idx.Name(link)),
		zap.String("occurrence", r.idx.Name(dst.Root())))
	if r.opts.DrawFrames {
		return r.assignRoot(dst.Root(), link)
	}
	return r.assignRoot(dst.Root(), FrameLink)
}

// assignOrphans gives every still unassigned top-level occurrence to the
// trunk.
func (r *resolution) assignOrphans() {
	for _, root := range r.idx.Roots() {
		if _, ok := r.assign[root]; ok {
			continue
		}
		r.warn(r.idx.Name(root), "part has no assignment, connecting it to trunk %s", r.idx.Name(r.trunk))
		r.assign[root] = r.trunk
	}
}
