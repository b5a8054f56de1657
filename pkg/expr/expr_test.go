package expr

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEvalUnits(t *testing.T) {
	e := New(nil)
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"millimeters", "1000 mm", 1.0},
		{"degrees", "180 deg", math.Pi},
		{"inches", "1 in", 0.0254},
		{"meters", "2.5 m", 2.5},
		{"radians", "0.5 rad", 0.5},
		{"radian long form", "-1 radian", -1},
		{"surrounding space", "  90 deg ", math.Pi / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Eval(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestEvalExactConversions(t *testing.T) {
	e := New(nil)
	got, err := e.Eval("1000 mm")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = e.Eval("1 in")
	require.NoError(t, err)
	assert.Equal(t, 0.0254, got)
}

func TestEvalErrors(t *testing.T) {
	e := New(Parameters{"bad": "3 furlong"})

	_, err := e.Eval("3 furlong")
	assert.ErrorIs(t, err, ErrUnknownUnit)

	_, err = e.Eval("#missing")
	assert.ErrorIs(t, err, ErrConfigurationKey)

	_, err = e.Eval("#bad")
	assert.ErrorIs(t, err, ErrUnknownUnit)

	_, err = e.Eval("12")
	assert.ErrorIs(t, err, ErrMalformedExpression)

	_, err = e.Eval("twelve mm")
	assert.ErrorIs(t, err, ErrMalformedExpression)
}

func TestVariables(t *testing.T) {
	e := New(ParseConfiguration("travel=25+mm;angle=-30+deg;List_abc=Default"))

	got, err := e.Eval("#travel")
	require.NoError(t, err)
	assert.InDelta(t, 0.025, got, 1e-12)

	got, err = e.Eval("-#travel")
	require.NoError(t, err)
	assert.InDelta(t, -0.025, got, 1e-12)

	got, err = e.Eval("-#angle")
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/6, got, 1e-12)
}

func TestParseConfiguration(t *testing.T) {
	p := ParseConfiguration("a=1+mm;broken;b=true;c=x=y;")
	assert.Equal(t, Parameters{"a": "1 mm", "b": "true"}, p)
	assert.Empty(t, ParseConfiguration(""))
}

func TestEvalConfigured(t *testing.T) {
	e := New(ParseConfiguration("wide=true;size=Large"))

	byBool := Configured{
		ParameterID: "wide",
		Values: []ConfiguredValue{
			{Kind: ByBoolean, Boolean: false, Expression: "10 mm"},
			{Kind: ByBoolean, Boolean: true, Expression: "20 mm"},
		},
	}
	got, err := e.EvalConfigured("limit", byBool)
	require.NoError(t, err)
	assert.InDelta(t, 0.02, got, 1e-12)

	byEnum := Configured{
		ParameterID: "size",
		Values: []ConfiguredValue{
			{Kind: ByEnum, Enum: "Small", Expression: "45 deg"},
			{Kind: ByEnum, Enum: "Large", Expression: "90 deg"},
		},
	}
	got, err = e.EvalConfigured("limit", byEnum)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/2, got, 1e-12)

	byEnum.Values = byEnum.Values[:1]
	_, err = e.EvalConfigured("limit", byEnum)
	assert.ErrorIs(t, err, ErrUnresolvedParameter)

	_, err = e.EvalConfigured("limit", Configured{ParameterID: "nope"})
	assert.ErrorIs(t, err, ErrConfigurationKey)
}

func TestMillimetersScaleProperty(t *testing.T) {
	e := New(nil)
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(-100000, 100000).Draw(t, "n")
		mm, err := e.Eval(strconv.Itoa(n) + " mm")
		if err != nil {
			t.Fatalf("eval: %v", err)
		}
		m, err := e.Eval(strconv.Itoa(n) + " m")
		if err != nil {
			t.Fatalf("eval: %v", err)
		}
		if math.Abs(mm*1000-m) > 1e-9*math.Max(1, math.Abs(m)) {
			t.Fatalf("%d mm = %v, %d m = %v", n, mm, n, m)
		}
	})
}
