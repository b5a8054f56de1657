package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// PerJoint is a joint setting given either as a scalar for every joint or as
// a map from joint name to value with an optional "default" entry.
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

// UnmarshalYAML accepts a scalar or a mapping. A mapping without "default"
// keeps the current default.
func (p *PerJoint) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		p.Default = v
		return nil
	case yaml.MappingNode:
		var m map[string]float64
		if err := node.Decode(&m); err != nil {
			return err
		}
		if v, ok := m["default"]; ok {
			p.Default = v
			delete(m, "default")
		}
		p.ByJoint = m
		return nil
	}
	return fmt.Errorf("line %d: expected a number or a per joint mapping", node.Line)
}

// UnmarshalText sets the default from a plain number.
func (p *PerJoint) UnmarshalText(text []byte) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(text)), 64)
	if err != nil {
		return err
	}
	p.Default = v
	return nil
}

// PartDynamics overrides the mass properties of a part, expressed in the
// part frame. The scalar "fixed" stands for a massless part.
type PartDynamics struct {
	Fixed   bool       `yaml:"-"`
	Mass    float64    `yaml:"mass"`
	COM     [3]float64 `yaml:"com"`
	Inertia []float64  `yaml:"inertia"`
}

// UnmarshalYAML accepts "fixed" or a mass/com/inertia mapping.
func (d *PartDynamics) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.Value != "fixed" {
			return fmt.Errorf("line %d: dynamics must be \"fixed\" or a mapping, got %q", node.Line, node.Value)
		}
		*d = PartDynamics{Fixed: true}
		return nil
	}
	type plain PartDynamics
	var v plain
	if err := node.Decode(&v); err != nil {
		return err
	}
	*d = PartDynamics(v)
	return nil
}
