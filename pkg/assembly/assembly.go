package assembly

// Feature types found in the root assembly feature list.
const (
	FeatureMate          = "mate"
	FeatureMateConnector = "mateConnector"
	FeatureMateGroup     = "mateGroup"
)

// Mate types relevant to joint construction.
const (
	MateRevolute    = "REVOLUTE"
	MateCylindrical = "CYLINDRICAL"
	MateSlider      = "SLIDER"
	MateFastened    = "FASTENED"
)

// Instance types.
const (
	InstancePart     = "Part"
	InstanceAssembly = "Assembly"
)

// Document is the assembly definition returned by the CAD service.
type Document struct {
	RootAssembly  RootAssembly  `json:"rootAssembly"`
	SubAssemblies []SubAssembly `json:"subAssemblies"`
}

// RootAssembly is the top-level assembly.
type RootAssembly struct {
	DocumentID        string       `json:"documentId"`
	ElementID         string       `json:"elementId"`
	Instances         []Instance   `json:"instances"`
	Occurrences       []Occurrence `json:"occurrences"`
	Features          []Feature    `json:"features"`
	FullConfiguration string       `json:"fullConfiguration"`
}

// SubAssembly lists the instances of one referenced assembly element.
type SubAssembly struct {
	DocumentID           string     `json:"documentId"`
	DocumentMicroversion string     `json:"documentMicroversion"`
	ElementID            string     `json:"elementId"`
	Instances            []Instance `json:"instances"`
}

// Key returns the element key used to match instances to sub-assemblies.
func (s SubAssembly) Key() ElementKey {
	return ElementKey{s.DocumentID, s.DocumentMicroversion, s.ElementID}
}

// ElementKey identifies a CAD element at a given microversion.
type ElementKey struct {
	DocumentID           string
	DocumentMicroversion string
	ElementID            string
}

// Instance is a part or sub-assembly placed in an assembly.
type Instance struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Type                 string `json:"type"`
	Suppressed           bool   `json:"suppressed"`
	DocumentID           string `json:"documentId"`
	DocumentMicroversion string `json:"documentMicroversion"`
	ElementID            string `json:"elementId"`
	PartID               string `json:"partId,omitempty"`
	Configuration        string `json:"configuration,omitempty"`
}

// Key returns the element the instance references.
func (i Instance) Key() ElementKey {
	return ElementKey{i.DocumentID, i.DocumentMicroversion, i.ElementID}
}

// IsPart reports whether the instance is a part (as opposed to an assembly).
func (i Instance) IsPart() bool {
	return i.Type == InstancePart
}

// PartKey is the key under which part metadata is stored in a snapshot.
func (i Instance) PartKey() string {
	return i.ElementID + "/" + i.PartID
}

// Occurrence is one entry of the flattened occurrence list. Transform holds
// 16 row-major values in world frame.
type Occurrence struct {
	Path      []string  `json:"path"`
	Transform []float64 `json:"transform"`
	Hidden    bool      `json:"hidden,omitempty"`
	Fixed     bool      `json:"fixed,omitempty"`
}

// Feature is one entry of the root assembly feature list.
type Feature struct {
	ID          string      `json:"id,omitempty"`
	FeatureType string      `json:"featureType"`
	Suppressed  bool        `json:"suppressed"`
	FeatureData FeatureData `json:"featureData"`
}

// FeatureData carries the type-specific payload of a feature. Mates use
// MateType and MatedEntities, mate connectors use Occurrence, and mate groups
// use Occurrences.
type FeatureData struct {
	Name          string        `json:"name"`
	MateType      string        `json:"mateType,omitempty"`
	MatedEntities []MatedEntity `json:"matedEntities,omitempty"`
	Occurrence    []string      `json:"occurrence,omitempty"`
	Occurrences   []GroupMember `json:"occurrences,omitempty"`
}

// MatedEntity is one side of a mate.
type MatedEntity struct {
	MatedOccurrence []string    `json:"matedOccurrence"`
	MatedCS         CoordSystem `json:"matedCS"`
}

// CoordSystem is a mate connector frame expressed in the occurrence's frame.
type CoordSystem struct {
	Origin [3]float64 `json:"origin"`
	XAxis  [3]float64 `json:"xAxis"`
	YAxis  [3]float64 `json:"yAxis"`
	ZAxis  [3]float64 `json:"zAxis"`
}

// GroupMember is one occurrence of a mate group.
type GroupMember struct {
	Occurrence []string `json:"occurrence"`
}
