package expr

import "fmt"

// ValueKind says how a configured value is selected.
type ValueKind int

const (
	ByBoolean ValueKind = iota // matches a boolean configuration toggle
	ByEnum                     // matches an enum configuration value
)

func (k ValueKind) String() string {
	switch k {
	case ByBoolean:
		return "boolean"
	case ByEnum:
		return "enum"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// ConfiguredValue is one candidate of a configured parameter.
type ConfiguredValue struct {
	Kind       ValueKind
	Boolean    bool
	Enum       string
	Expression string
}

// Configured is a parameter whose expression depends on a configuration
// parameter.
type Configured struct {
	ParameterID string
	Values      []ConfiguredValue
}

// EvalConfigured selects the value of c matching the live configuration and
// evaluates it. name only serves error messages.
func (e *Evaluator) EvalConfigured(name string, c Configured) (float64, error) {
	current, ok := e.params[c.ParameterID]
	if !ok {
		return 0, fmt.Errorf("%s: %w: %q", name, ErrConfigurationKey, c.ParameterID)
	}
	for _, v := range c.Values {
		var match bool
		switch v.Kind {
		case ByBoolean:
			match = v.Boolean == (current == "true")
		case ByEnum:
			match = v.Enum == current
		default:
			return 0, fmt.Errorf("%s: %w: value kind %s", name, ErrUnresolvedParameter, v.Kind)
		}
		if match {
			return e.Eval(v.Expression)
		}
	}
	return 0, fmt.Errorf("%s: %w: no value for %s=%q", name, ErrUnresolvedParameter, c.ParameterID, current)
}
