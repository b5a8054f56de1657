// Package source serves an assembly snapshot to the converter: the assembly
// document, the joint limits of each mate and the metadata of each part.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/chazu/linkage/pkg/assembly"
	"github.com/chazu/linkage/pkg/expr"
	"github.com/chazu/linkage/pkg/kinematic"
)

// DefaultFile is the snapshot file name looked up in a robot directory.
const DefaultFile = "assembly.json"

var ErrMissingParameter = errors.New("missing mate parameter")

// ErrFeatureNotFound is returned when a mate has no feature parameters in the
// snapshot.
var ErrFeatureNotFound = errors.New("feature not found")

// Source answers the converter's data queries from a snapshot.
type Source struct {
	snap *assembly.Snapshot
	eval *expr.Evaluator
	log  *zap.Logger
}

// Load reads a snapshot from path, which is either a file or a directory
// holding DefaultFile. A non-empty configuration replaces the snapshot's
// own configuration descriptor.
func Load(path, configuration string, log *zap.Logger) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if info.IsDir() {
		path = filepath.Join(path, DefaultFile)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	defer f.Close()

	snap, err := assembly.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("source: %s: %w", path, err)
	}
	return New(snap, configuration, log), nil
}

// New wraps an already decoded snapshot.
func New(snap *assembly.Snapshot, configuration string, log *zap.Logger) *Source {
	if log == nil {
		log = zap.NewNop()
	}
	if configuration == "" {
		configuration = snap.Assembly.RootAssembly.FullConfiguration
	}
	params := expr.ParseConfiguration(configuration)
	log.Debug("configuration parameters", zap.Int("count", len(params)))
	return &Source{snap: snap, eval: expr.New(params), log: log}
}

// Document returns the assembly document.
func (s *Source) Document() *assembly.Document {
	return &s.snap.Assembly
}

// Evaluator returns the expression evaluator bound to the live
// configuration.
func (s *Source) Evaluator() *expr.Evaluator {
	return s.eval
}

// Part returns the metadata recorded for a part instance.
func (s *Source) Part(inst assembly.Instance) (assembly.PartMetadata, bool) {
	md, ok := s.snap.Parts[inst.PartKey()]
	if !ok {
		s.log.Debug("no metadata for part", zap.String("part", inst.Name), zap.String("key", inst.PartKey()))
	}
	return md, ok
}

// Limits returns the joint limits of the named mate feature. Revolute and
// cylindrical mates read the axial limits, sliders the linear ones. It
// returns nil limits when the mate has limits disabled and
// ErrFeatureNotFound when the snapshot has no parameters for it.
func (s *Source) Limits(mate, mateType string) (*kinematic.Limits, error) {
	params, ok := s.snap.MateFeatures[mate]
	if !ok {
		return nil, fmt.Errorf("source: %w: %s", ErrFeatureNotFound, mate)
	}
	byID := make(map[string]assembly.Parameter, len(params))
	for _, p := range params {
		byID[p.ID] = p
	}
	if enabled, ok := byID["limitsEnabled"]; !ok || !enabled.Bool() {
		return nil, nil
	}

	infix := ""
	switch mateType {
	case assembly.MateRevolute, assembly.MateCylindrical:
		infix = "Axial"
	case assembly.MateSlider:
	default:
		return nil, fmt.Errorf("source: mate %s: no limits for mate type %s", mate, mateType)
	}

	var bounds [2]float64
	for i, suffix := range []string{"Min", "Max"} {
		id := "limit" + infix + "Z" + suffix
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("source: mate %s: %w: %s", mate, ErrMissingParameter, id)
		}
		v, err := s.value(mate, p)
		if err != nil {
			return nil, fmt.Errorf("source: mate %s: %w", mate, err)
		}
		bounds[i] = v
	}
	return &kinematic.Limits{Min: bounds[0], Max: bounds[1]}, nil
}

// value evaluates a quantity or configured parameter.
func (s *Source) value(name string, p assembly.Parameter) (float64, error) {
	switch p.TypeName {
	case assembly.ParamQuantity, assembly.ParamNullableQuantity:
		return s.eval.Eval(p.Expression)
	case assembly.ParamConfigured:
		c := expr.Configured{ParameterID: p.ConfigurationParameterID}
		for _, v := range p.Values {
			cv := expr.ConfiguredValue{Boolean: v.BooleanValue, Enum: v.EnumValue, Expression: v.Expression}
			switch v.TypeName {
			case assembly.ValueByBoolean:
				cv.Kind = expr.ByBoolean
			case assembly.ValueByEnum:
				cv.Kind = expr.ByEnum
			default:
				return 0, fmt.Errorf("%s: %w: configured with %s", name, expr.ErrUnresolvedParameter, v.TypeName)
			}
			c.Values = append(c.Values, cv)
		}
		return s.eval.EvalConfigured(name, c)
	default:
		return 0, fmt.Errorf("%s: unknown parameter type %s", name, p.TypeName)
	}
}
