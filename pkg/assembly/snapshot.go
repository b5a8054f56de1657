package assembly

import (
	"encoding/json"
	"fmt"
	"io"
)

// Parameter type names used by mate features.
const (
	ParamQuantity         = "BTMParameterQuantity"
	ParamNullableQuantity = "BTMParameterNullableQuantity"
	ParamConfigured       = "BTMParameterConfigured"
	ParamBoolean          = "BTMParameterBoolean"
	ParamEnum             = "BTMParameterEnum"

	ValueByBoolean = "BTMConfiguredValueByBoolean"
	ValueByEnum    = "BTMConfiguredValueByEnum"
)

// Snapshot is a captured CAD service response: the assembly plus the data
// the converter would otherwise fetch per mate and per part.
type Snapshot struct {
	Assembly     Document                `json:"assembly"`
	MateFeatures map[string][]Parameter  `json:"mateFeatures,omitempty"`
	Parts        map[string]PartMetadata `json:"parts,omitempty"`
}

// Parameter is one parameter of a mate feature definition.
type Parameter struct {
	ID                       string            `json:"parameterId"`
	TypeName                 string            `json:"typeName"`
	Value                    any               `json:"value,omitempty"`
	Expression               string            `json:"expression,omitempty"`
	ConfigurationParameterID string            `json:"configurationParameterId,omitempty"`
	Values                   []ConfiguredValue `json:"values,omitempty"`
}

// Bool returns the parameter value as a boolean.
func (p Parameter) Bool() bool {
	b, _ := p.Value.(bool)
	return b
}

// String returns the parameter value as a string.
func (p Parameter) String() string {
	s, _ := p.Value.(string)
	return s
}

// ConfiguredValue is a candidate of a configured parameter.
type ConfiguredValue struct {
	TypeName     string `json:"typeName"`
	BooleanValue bool   `json:"booleanValue,omitempty"`
	EnumValue    string `json:"enumValue,omitempty"`
	Expression   string `json:"expression"`
}

// PartMetadata is what the CAD service knows about a part: mass properties,
// appearance, material and a coarse shape description. Inertia holds nine
// row-major values about the centroid, in the part frame.
type PartMetadata struct {
	Name        string      `json:"name,omitempty"`
	Mass        *float64    `json:"mass,omitempty"`
	Centroid    [3]float64  `json:"centroid"`
	Inertia     []float64   `json:"inertia,omitempty"`
	Color       *[4]float64 `json:"color,omitempty"`
	Material    *Material   `json:"material,omitempty"`
	BoundingBox *Box        `json:"boundingBox,omitempty"`
	Shapes      []Shape     `json:"shapes,omitempty"`
}

// Material identifies a material by library and display name.
type Material struct {
	LibraryName string `json:"libraryName"`
	DisplayName string `json:"displayName"`
}

// Box is an axis aligned bounding box in the part frame, in meters.
type Box struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// Shape is a pure geometric primitive approximating a part.
// Parameters are {x, y, z} for a box, {length, radius} for a cylinder
// (axis along z) and {radius} for a sphere.
type Shape struct {
	Type       string    `json:"type"`
	Parameters []float64 `json:"parameters"`
	Transform  []float64 `json:"transform,omitempty"`
}

// Shape types.
const (
	ShapeBox      = "box"
	ShapeCylinder = "cylinder"
	ShapeSphere   = "sphere"
)

// Dilated returns the shape grown outward by d on every face. Parameters of
// unknown types or unexpected length are left as they are.
func (s Shape) Dilated(d float64) Shape {
	if d == 0 {
		return s
	}
	p := append([]float64(nil), s.Parameters...)
	switch {
	case s.Type == ShapeBox && len(p) == 3:
		for i := range p {
			p[i] += 2 * d
		}
	case s.Type == ShapeCylinder && len(p) == 2:
		p[0] += 2 * d
		p[1] += d
	case s.Type == ShapeSphere && len(p) == 1:
		p[0] += d
	}
	s.Parameters = p
	return s
}

// Decode reads a JSON snapshot.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	dec := json.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("assembly: decoding snapshot: %w", err)
	}
	if len(s.Assembly.RootAssembly.Instances) == 0 {
		return nil, fmt.Errorf("assembly: snapshot has no root assembly instances")
	}
	return &s, nil
}
