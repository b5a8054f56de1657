// Package expr evaluates the dimensioned expressions found in CAD feature
// parameters ("30 deg", "12.5 mm", "#travel", "-#travel") and normalizes
// them to SI units: meters for lengths, radians for angles.
package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrUnknownUnit is returned for a unit outside the supported set.
	ErrUnknownUnit = errors.New("unknown unit")
	// ErrConfigurationKey is returned when a #variable is not defined by the
	// active configuration.
	ErrConfigurationKey = errors.New("configuration key not found")
	// ErrUnresolvedParameter is returned when no value of a configured
	// parameter matches the active configuration.
	ErrUnresolvedParameter = errors.New("unresolved configured parameter")
	// ErrMalformedExpression is returned when an expression is not
	// "<number> <unit>".
	ErrMalformedExpression = errors.New("malformed expression")
)

// units maps a unit suffix to its conversion towards meters or radians.
var units = map[string]func(float64) float64{
	"deg":    func(v float64) float64 { return v * math.Pi / 180 },
	"radian": func(v float64) float64 { return v },
	"rad":    func(v float64) float64 { return v },
	"mm":     func(v float64) float64 { return v / 1000 },
	"m":      func(v float64) float64 { return v },
	"in":     func(v float64) float64 { return v * 0.0254 },
}

// Parameters is the live configuration: parameter id to value.
type Parameters map[string]string

// ParseConfiguration reads a semicolon separated "key=value" descriptor.
// A literal '+' in a value stands for a space. Entries that are not a single
// key=value pair are ignored.
func ParseConfiguration(descriptor string) Parameters {
	params := make(Parameters)
	for _, entry := range strings.Split(descriptor, ";") {
		kv := strings.Split(entry, "=")
		if len(kv) != 2 {
			continue
		}
		params[kv[0]] = strings.ReplaceAll(kv[1], "+", " ")
	}
	return params
}

// Evaluator resolves expressions against a fixed set of configuration
// parameters.
type Evaluator struct {
	params Parameters
}

// New returns an Evaluator bound to params. A nil map is treated as empty.
func New(params Parameters) *Evaluator {
	if params == nil {
		params = make(Parameters)
	}
	return &Evaluator{params: params}
}

// Parameters returns the configuration the evaluator is bound to.
func (e *Evaluator) Parameters() Parameters {
	return e.params
}

// Eval evaluates a single expression.
func (e *Evaluator) Eval(expression string) (float64, error) {
	s := strings.TrimSpace(expression)
	switch {
	case strings.HasPrefix(s, "#"):
		return e.variable(s[1:], 1)
	case strings.HasPrefix(s, "-#"):
		return e.variable(s[2:], -1)
	}
	return evalLiteral(s)
}

func (e *Evaluator) variable(key string, sign float64) (float64, error) {
	v, ok := e.params[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrConfigurationKey, key)
	}
	val, err := evalLiteral(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("variable %q: %w", key, err)
	}
	return sign * val, nil
}

func evalLiteral(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedExpression, s)
	}
	val, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformedExpression, s, err)
	}
	convert, ok := units[fields[1]]
	if !ok {
		return 0, fmt.Errorf("%w: %q in %q", ErrUnknownUnit, fields[1], s)
	}
	return convert(val), nil
}
