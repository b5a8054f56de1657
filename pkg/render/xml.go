package render

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/linkage/pkg/geom"
)

// num formats like %g with the shortest exact digits, folding rounding
// noise and negative zero to 0.
func num(v float64) string {
	if math.Abs(v) < 1e-12 {
		v = 0
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func nums(vs ...float64) string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = num(v)
	}
	return strings.Join(out, " ")
}

func xyz(m geom.Mat4) string {
	o := m.Origin()
	return nums(o.X, o.Y, o.Z)
}

func rpy(m geom.Mat4) string {
	r := m.RPY()
	return nums(r.X, r.Y, r.Z)
}

// pose6 is "x y z roll pitch yaw".
func pose6(m geom.Mat4) string {
	return xyz(m) + " " + rpy(m)
}

func encode(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("render: encoding xml: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Write serializes m in its format.
func Write(w io.Writer, m *Model) error {
	switch m.Format {
	case URDF:
		return WriteURDF(w, m)
	case SDF:
		return WriteSDF(w, m)
	}
	return fmt.Errorf("render: unknown output format %q", m.Format)
}

// FileName is the model file name of a format.
func FileName(f Format) string {
	if f == SDF {
		return "model.sdf"
	}
	return "robot.urdf"
}
