package render

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/chazu/linkage/pkg/kinematic"
)

type sdfRoot struct {
	XMLName xml.Name `xml:"sdf"`
	Version string   `xml:"version,attr"`
	Model   sdfModel `xml:"model"`
}

type sdfModel struct {
	Name  string `xml:"name,attr"`
	Items []any
	Extra string `xml:",innerxml"`
}

type sdfInertia struct {
	IXX string `xml:"ixx"`
	IXY string `xml:"ixy"`
	IXZ string `xml:"ixz"`
	IYY string `xml:"iyy"`
	IYZ string `xml:"iyz"`
	IZZ string `xml:"izz"`
}

type sdfInertial struct {
	Pose    string     `xml:"pose"`
	Mass    string     `xml:"mass"`
	Inertia sdfInertia `xml:"inertia"`
}

type sdfMesh struct {
	URI string `xml:"uri"`
}

type sdfBox struct {
	Size string `xml:"size"`
}

type sdfCylinder struct {
	Length string `xml:"length"`
	Radius string `xml:"radius"`
}

type sdfSphere struct {
	Radius string `xml:"radius"`
}

type sdfGeometry struct {
	Mesh     *sdfMesh     `xml:"mesh"`
	Box      *sdfBox      `xml:"box"`
	Cylinder *sdfCylinder `xml:"cylinder"`
	Sphere   *sdfSphere   `xml:"sphere"`
}

type sdfMaterial struct {
	Ambient  string `xml:"ambient"`
	Diffuse  string `xml:"diffuse"`
	Specular string `xml:"specular"`
	Emissive string `xml:"emissive"`
}

type sdfElement struct {
	Name     string       `xml:"name,attr"`
	Pose     string       `xml:"pose"`
	Geometry sdfGeometry  `xml:"geometry"`
	Material *sdfMaterial `xml:"material"`
}

type sdfLink struct {
	XMLName    xml.Name     `xml:"link"`
	Name       string       `xml:"name,attr"`
	Pose       string       `xml:"pose"`
	Inertial   *sdfInertial `xml:"inertial"`
	Visuals    []sdfElement `xml:"visual"`
	Collisions []sdfElement `xml:"collision"`
}

type sdfLimit struct {
	Lower    string `xml:"lower,omitempty"`
	Upper    string `xml:"upper,omitempty"`
	Effort   string `xml:"effort"`
	Velocity string `xml:"velocity"`
}

type sdfAxis struct {
	XYZ   string   `xml:"xyz"`
	Limit sdfLimit `xml:"limit"`
}

type sdfJoint struct {
	XMLName xml.Name `xml:"joint"`
	Name    string   `xml:"name,attr"`
	Type    string   `xml:"type,attr"`
	Pose    string   `xml:"pose"`
	Parent  string   `xml:"parent"`
	Child   string   `xml:"child"`
	Axis    *sdfAxis `xml:"axis"`
}

func sdfGeom(g Geometry) sdfGeometry {
	var out sdfGeometry
	switch {
	case g.Box != nil:
		out.Box = &sdfBox{Size: nums(g.Box[0], g.Box[1], g.Box[2])}
	case g.Cylinder != nil:
		out.Cylinder = &sdfCylinder{Length: num(g.Cylinder[0]), Radius: num(g.Cylinder[1])}
	case g.Sphere != nil:
		out.Sphere = &sdfSphere{Radius: num(*g.Sphere)}
	default:
		out.Mesh = &sdfMesh{URI: g.Mesh}
	}
	return out
}

// sdfElements names every element uniquely within its link.
func sdfElements(link string, els []Element, kind string) []sdfElement {
	out := make([]sdfElement, 0, len(els))
	for i, el := range els {
		e := sdfElement{
			Name:     fmt.Sprintf("%s_%d_%s_%s", link, i, el.Name, kind),
			Pose:     pose6(el.Pose),
			Geometry: sdfGeom(el.Geometry),
		}
		if kind == "visual" {
			rgb := nums(el.Color[0], el.Color[1], el.Color[2])
			e.Material = &sdfMaterial{
				Ambient:  rgb + " " + num(el.Color[3]),
				Diffuse:  rgb + " " + num(el.Color[3]),
				Specular: "0.1 0.1 0.1 1",
				Emissive: "0 0 0 0",
			}
		}
		out = append(out, e)
	}
	return out
}

func sdfJointOf(j *Joint) sdfJoint {
	out := sdfJoint{
		Name:   j.Name,
		Type:   string(j.Type),
		Pose:   pose6(j.Pose),
		Parent: j.Parent,
		Child:  j.Child,
	}
	if j.Type == kinematic.Fixed {
		return out
	}
	out.Axis = &sdfAxis{
		XYZ:   nums(j.Axis.X, j.Axis.Y, j.Axis.Z),
		Limit: sdfLimit{Effort: num(j.Effort), Velocity: num(j.Velocity)},
	}
	if j.Limits != nil {
		out.Axis.Limit.Lower, out.Axis.Limit.Upper = num(j.Limits.Min), num(j.Limits.Max)
	}
	return out
}

// WriteSDF writes m as an SDF 1.6 model. Link frames coincide with the
// world frame; poses of elements and joints are world poses.
func WriteSDF(w io.Writer, m *Model) error {
	doc := sdfRoot{Version: "1.6", Model: sdfModel{Name: m.Name}}
	if m.AdditionalXML != "" {
		doc.Model.Extra = "\n" + m.AdditionalXML + "\n"
	}
	for _, l := range m.Links {
		sl := sdfLink{
			Name:       l.Name,
			Pose:       "0 0 0 0 0 0",
			Visuals:    sdfElements(l.Name, l.Visuals, "visual"),
			Collisions: sdfElements(l.Name, l.Collisions, "collision"),
		}
		if !l.Bare {
			in := l.Inertial
			sl.Inertial = &sdfInertial{
				Pose: nums(in.COM.X, in.COM.Y, in.COM.Z, 0, 0, 0),
				Mass: num(in.Mass),
				Inertia: sdfInertia{
					IXX: num(in.Inertia.At(0, 0)), IXY: num(in.Inertia.At(0, 1)), IXZ: num(in.Inertia.At(0, 2)),
					IYY: num(in.Inertia.At(1, 1)), IYZ: num(in.Inertia.At(1, 2)), IZZ: num(in.Inertia.At(2, 2)),
				},
			}
		}
		doc.Model.Items = append(doc.Model.Items, sl)
		if l.Joint != nil {
			doc.Model.Items = append(doc.Model.Items, sdfJointOf(l.Joint))
		}
	}
	return encode(w, doc)
}
