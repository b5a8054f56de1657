package graph

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chazu/linkage/pkg/assembly"
)

// MateKind classifies a mate by its naming convention.
type MateKind int

const (
	MateStructural MateKind = iota // connectivity only
	MateDOF                        // becomes a joint
	MateFrame                      // marks a named frame
)

func (k MateKind) String() string {
	switch k {
	case MateStructural:
		return "structural"
	case MateDOF:
		return "dof"
	case MateFrame:
		return "frame"
	default:
		return fmt.Sprintf("MateKind(%d)", int(k))
	}
}

const (
	dofPrefix   = "dof"
	framePrefix = "frame_"
	linkPrefix  = "link_"
	trunkName   = "trunk"
)

// ClassifyMateName derives the kind of a mate from its feature name. For DOF
// and frame mates it also returns the derived name; a DOF name ending in
// _inv or _inverted is marked inverted and the suffix is stripped.
func ClassifyMateName(name string) (kind MateKind, derived string, inverted bool, err error) {
	switch {
	case name == dofPrefix || strings.HasPrefix(name, dofPrefix+"_"):
		parts := strings.Split(name, "_")[1:]
		if n := len(parts); n > 0 && (parts[n-1] == "inv" || parts[n-1] == "inverted") {
			inverted = true
			parts = parts[:n-1]
		}
		derived = strings.Join(parts, "_")
		if derived == "" {
			return MateDOF, "", inverted, fmt.Errorf("%w: %q should be \"dof_<name>\"", ErrEmptyDOFName, name)
		}
		return MateDOF, derived, inverted, nil
	case strings.HasPrefix(name, framePrefix):
		return MateFrame, strings.TrimPrefix(name, framePrefix), false, nil
	default:
		return MateStructural, "", false, nil
	}
}

// Entity is one side of a mate: the mated occurrence and the mate connector
// frame in that occurrence's coordinates.
type Entity struct {
	Path       []string
	Occurrence *Occurrence
	CS         assembly.CoordSystem
}

// Root returns the top-level occurrence id of the entity.
func (e Entity) Root() string { return e.Path[0] }

// Mate is a classified pairwise mate. For DOF mates the first entity is the
// declared child and the second the declared parent.
type Mate struct {
	Feature  string // feature name as authored
	Name     string // derived DOF or frame name
	Kind     MateKind
	Type     string // mate type, e.g. REVOLUTE
	Inverted bool
	Entities [2]Entity
}

// Group is a mate group reduced to the top-level ids of its members.
type Group struct {
	Name    string
	Members []string
}

// LinkTag is a link_<name> mate connector.
type LinkTag struct {
	Name string
	Root string
	Path []string
}

// Edge is an undirected connection between two top-level occurrences.
type Edge struct {
	A, B string
}

// MateGraph is the result of scanning the feature list.
type MateGraph struct {
	Mates       []*Mate
	Groups      []Group
	LinkTags    []LinkTag
	Trunk       string // top-level id tagged with a trunk connector
	Edges       []Edge
	Diagnostics []Diagnostic
}

// DOFs returns the DOF mates in feature order.
func (mg *MateGraph) DOFs() []*Mate {
	return mg.ofKind(MateDOF)
}

// Structural returns the structural and frame mates in feature order.
func (mg *MateGraph) Structural() []*Mate {
	var out []*Mate
	for _, m := range mg.Mates {
		if m.Kind != MateDOF {
			out = append(out, m)
		}
	}
	return out
}

func (mg *MateGraph) ofKind(kind MateKind) []*Mate {
	var out []*Mate
	for _, m := range mg.Mates {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

type mateBuilder struct {
	idx   *Index
	log   *zap.Logger
	mg    *MateGraph
	edges map[Edge]bool
}

// BuildMates scans features once, skipping suppressed features and mates that
// touch suppressed occurrences, and returns the classified mates together
// with the undirected edge set between top-level occurrences.
func BuildMates(idx *Index, features []assembly.Feature, log *zap.Logger) (*MateGraph, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := &mateBuilder{idx: idx, log: log, mg: &MateGraph{}, edges: make(map[Edge]bool)}
	for _, f := range features {
		if f.Suppressed {
			continue
		}
		var err error
		switch f.FeatureType {
		case assembly.FeatureMateConnector:
			b.connector(f.FeatureData)
		case assembly.FeatureMate:
			err = b.mate(f.FeatureData)
		case assembly.FeatureMateGroup:
			b.group(f.FeatureData)
		}
		if err != nil {
			return nil, err
		}
	}
	return b.mg, nil
}

func (b *mateBuilder) warn(subject, format string, args ...any) {
	d := Warn(subject, format, args...)
	b.mg.Diagnostics = append(b.mg.Diagnostics, d)
	b.log.Warn(d.Message, zap.String("subject", subject))
}

func (b *mateBuilder) connector(data assembly.FeatureData) {
	name := data.Name
	isLink := strings.HasPrefix(name, linkPrefix)
	if !isLink && name != trunkName {
		return
	}
	if len(data.Occurrence) == 0 {
		b.warn(name, "mate connector has no occurrence, skipping")
		return
	}
	root := data.Occurrence[0]
	if b.idx.Suppressed([]string{root}) {
		b.warn(name, "mate connector is on a suppressed occurrence, skipping")
		return
	}
	if _, ok := b.idx.Lookup([]string{root}); !ok {
		b.warn(name, "mate connector occurrence %s not found, skipping", root)
		return
	}

	if isLink {
		tag := LinkTag{
			Name: strings.TrimPrefix(name, linkPrefix),
			Root: root,
			Path: append([]string(nil), data.Occurrence...),
		}
		b.mg.LinkTags = append(b.mg.LinkTags, tag)
		b.log.Debug("found link tag", zap.String("link", tag.Name), zap.String("occurrence", root))
		return
	}
	if b.mg.Trunk != "" && b.mg.Trunk != root {
		b.warn(name, "trunk already tagged on %s, ignoring %s", b.idx.Name(b.mg.Trunk), b.idx.Name(root))
		return
	}
	b.mg.Trunk = root
	b.log.Debug("found tagged trunk", zap.String("occurrence", root))
}

func (b *mateBuilder) mate(data assembly.FeatureData) error {
	kind, derived, inverted, err := ClassifyMateName(data.Name)
	if err != nil {
		return &MateError{Mate: data.Name, Err: err}
	}

	if len(data.MatedEntities) != 2 ||
		len(data.MatedEntities[0].MatedOccurrence) == 0 ||
		len(data.MatedEntities[1].MatedOccurrence) == 0 {
		if kind == MateFrame {
			return &MateError{Mate: data.Name, Err: fmt.Errorf("%w (had %d mated entities); "+
				"mate connectors defined in a part studio cannot be used, add them to an assembly instead",
				ErrFrameMissingConnector, len(data.MatedEntities))}
		}
		b.log.Debug("skipping mate without two occurrences", zap.String("mate", data.Name))
		return nil
	}

	m := &Mate{
		Feature:  data.Name,
		Name:     derived,
		Kind:     kind,
		Type:     data.MateType,
		Inverted: inverted,
	}
	for i, ent := range data.MatedEntities {
		if b.idx.Suppressed(ent.MatedOccurrence) {
			b.log.Debug("skipping mate on suppressed occurrence", zap.String("mate", data.Name))
			return nil
		}
		occ, err := b.idx.Resolve(ent.MatedOccurrence)
		if err != nil {
			return &MateError{Mate: data.Name, Err: err}
		}
		m.Entities[i] = Entity{
			Path:       append([]string(nil), ent.MatedOccurrence...),
			Occurrence: occ,
			CS:         ent.MatedCS,
		}
	}

	a, c := m.Entities[0].Root(), m.Entities[1].Root()
	if kind == MateDOF && a == c {
		return &MateError{Mate: data.Name, Err: fmt.Errorf("%w: both sides belong to %s",
			ErrRerootInconsistency, b.idx.Name(a))}
	}
	b.mg.Mates = append(b.mg.Mates, m)
	b.addEdge(a, c)
	return nil
}

func (b *mateBuilder) group(data assembly.FeatureData) {
	g := Group{Name: data.Name}
	seen := make(map[string]bool)
	for _, member := range data.Occurrences {
		if len(member.Occurrence) == 0 || b.idx.Suppressed(member.Occurrence) {
			continue
		}
		root := member.Occurrence[0]
		if seen[root] {
			continue
		}
		seen[root] = true
		g.Members = append(g.Members, root)
	}
	if len(g.Members) == 0 {
		return
	}
	b.mg.Groups = append(b.mg.Groups, g)
	for _, m := range g.Members[1:] {
		b.addEdge(g.Members[0], m)
	}
}

func (b *mateBuilder) addEdge(a, c string) {
	if a == c {
		return
	}
	if a > c {
		a, c = c, a
	}
	e := Edge{A: a, B: c}
	if b.edges[e] {
		return
	}
	b.edges[e] = true
	b.mg.Edges = append(b.mg.Edges, e)
}
