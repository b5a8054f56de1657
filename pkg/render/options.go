package render

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"go.uber.org/zap"

	"github.com/chazu/linkage/pkg/assembly"
)

// Format is an output model format.
type Format string

const (
	URDF Format = "urdf"
	SDF  Format = "sdf"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case URDF, SDF:
		return Format(s), nil
	}
	return "", fmt.Errorf("render: unknown output format %q (supported are urdf and sdf)", s)
}

// Merge modes say which part meshes are merged into one mesh per link.
const (
	MergeNone      = "no"
	MergeVisual    = "visual"
	MergeCollision = "collision"
	MergeAll       = "all"
)

// ErrUnknownMergeMode is returned for a merge mode outside the set above.
var ErrUnknownMergeMode = errors.New("unknown merge mode")

// PerJoint is a joint property with per joint overrides.
type PerJoint struct {
	Default float64
	ByJoint map[string]float64
}

// For returns the value for the named joint.
func (p PerJoint) For(joint string) float64 {
	if v, ok := p.ByJoint[joint]; ok {
		return v
	}
	return p.Default
}

// MaterialTag marks parts of a material as collision geometry.
type MaterialTag struct {
	LibraryName  string `yaml:"libraryName" json:"libraryName"`
	MaterialName string `yaml:"materialName" json:"materialName"`
	AlsoVisual   bool   `yaml:"alsoVisual" json:"alsoVisual"`
}

func (t MaterialTag) matches(m *assembly.Material) bool {
	return m != nil && m.LibraryName == t.LibraryName && m.DisplayName == t.MaterialName
}

// Dynamics overrides the mass properties of a part, in its own frame.
type Dynamics struct {
	Mass    float64    `yaml:"mass" json:"mass"`
	COM     [3]float64 `yaml:"com" json:"com"`
	Inertia []float64  `yaml:"inertia" json:"inertia"`
}

// Options controls rendering.
type Options struct {
	Format    Format
	RobotName string

	DrawCollisions   bool
	MergeSTLs        string
	UseFixedLinks    bool
	AddDummyBaseLink bool
	NoDynamics       bool

	JointMaxEffort   PerJoint
	JointMaxVelocity PerJoint

	// ShapeDilatation grows pure shapes outward on every face.
	ShapeDilatation float64

	// Color overrides every part color when set.
	Color *[4]float64

	// Ignore and IgnoreRegex drop the geometry of parts by base name.
	// A non-nil Whitelist keeps only the named parts instead.
	Ignore      []string
	IgnoreRegex []*regexp.Regexp
	Whitelist   []string

	MaterialTags     []MaterialTag
	MaterialTagsOnly bool

	// Dynamics overrides part mass properties by full part name.
	Dynamics map[string]Dynamics

	// AdditionalXML is inserted before the closing tag of the model.
	AdditionalXML string

	// MeshURL turns a mesh file name into the reference written in the
	// model. The file name is used as is when nil.
	MeshURL func(file string) string

	Logger *zap.Logger
}

func (o *Options) validate() error {
	if _, err := ParseFormat(string(o.Format)); err != nil {
		return err
	}
	switch o.MergeSTLs {
	case "", MergeNone, MergeVisual, MergeCollision, MergeAll:
	default:
		return fmt.Errorf("render: %w %q", ErrUnknownMergeMode, o.MergeSTLs)
	}
	return nil
}

func (o *Options) merges(node string) bool {
	return o.MergeSTLs == MergeAll || o.MergeSTLs == node
}

func (o *Options) ignored(base string) bool {
	if o.Whitelist != nil {
		return !slices.Contains(o.Whitelist, base)
	}
	if slices.Contains(o.Ignore, base) {
		return true
	}
	for _, re := range o.IgnoreRegex {
		if re.MatchString(base) {
			return true
		}
	}
	return false
}

func (o *Options) materialTag(m *assembly.Material) (MaterialTag, bool) {
	for _, t := range o.MaterialTags {
		if t.matches(m) {
			return t, true
		}
	}
	return MaterialTag{}, false
}

func (o *Options) meshURL(file string) string {
	if o.MeshURL == nil {
		return file
	}
	return o.MeshURL(file)
}
