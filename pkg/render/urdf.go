package render

import (
	"encoding/xml"
	"io"

	"github.com/chazu/linkage/pkg/kinematic"
)

type urdfRobot struct {
	XMLName xml.Name `xml:"robot"`
	Name    string   `xml:"name,attr"`
	Items   []any
	Extra   string `xml:",innerxml"`
}

type urdfOrigin struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

type urdfValue struct {
	Value string `xml:"value,attr"`
}

type urdfInertia struct {
	IXX string `xml:"ixx,attr"`
	IXY string `xml:"ixy,attr"`
	IXZ string `xml:"ixz,attr"`
	IYY string `xml:"iyy,attr"`
	IYZ string `xml:"iyz,attr"`
	IZZ string `xml:"izz,attr"`
}

type urdfInertial struct {
	Origin  urdfOrigin  `xml:"origin"`
	Mass    urdfValue   `xml:"mass"`
	Inertia urdfInertia `xml:"inertia"`
}

type urdfMesh struct {
	Filename string `xml:"filename,attr"`
}

type urdfBox struct {
	Size string `xml:"size,attr"`
}

type urdfCylinder struct {
	Length string `xml:"length,attr"`
	Radius string `xml:"radius,attr"`
}

type urdfSphere struct {
	Radius string `xml:"radius,attr"`
}

type urdfGeometry struct {
	Mesh     *urdfMesh     `xml:"mesh"`
	Box      *urdfBox      `xml:"box"`
	Cylinder *urdfCylinder `xml:"cylinder"`
	Sphere   *urdfSphere   `xml:"sphere"`
}

type urdfColor struct {
	RGBA string `xml:"rgba,attr"`
}

type urdfMaterial struct {
	Name  string    `xml:"name,attr"`
	Color urdfColor `xml:"color"`
}

type urdfElement struct {
	Origin   urdfOrigin    `xml:"origin"`
	Geometry urdfGeometry  `xml:"geometry"`
	Material *urdfMaterial `xml:"material"`
}

type urdfLink struct {
	XMLName    xml.Name      `xml:"link"`
	Name       string        `xml:"name,attr"`
	Inertial   *urdfInertial `xml:"inertial"`
	Visuals    []urdfElement `xml:"visual"`
	Collisions []urdfElement `xml:"collision"`
}

type urdfLinkRef struct {
	Link string `xml:"link,attr"`
}

type urdfAxis struct {
	XYZ string `xml:"xyz,attr"`
}

type urdfLimit struct {
	Effort   string `xml:"effort,attr"`
	Velocity string `xml:"velocity,attr"`
	Lower    string `xml:"lower,attr,omitempty"`
	Upper    string `xml:"upper,attr,omitempty"`
}

type urdfJointProperties struct {
	Friction string `xml:"friction,attr"`
}

type urdfJoint struct {
	XMLName    xml.Name             `xml:"joint"`
	Name       string               `xml:"name,attr"`
	Type       string               `xml:"type,attr"`
	Origin     urdfOrigin           `xml:"origin"`
	Parent     urdfLinkRef          `xml:"parent"`
	Child      urdfLinkRef          `xml:"child"`
	Axis       *urdfAxis            `xml:"axis"`
	Limit      *urdfLimit           `xml:"limit"`
	Properties *urdfJointProperties `xml:"joint_properties"`
}

func urdfGeom(g Geometry) urdfGeometry {
	var out urdfGeometry
	switch {
	case g.Box != nil:
		out.Box = &urdfBox{Size: nums(g.Box[0], g.Box[1], g.Box[2])}
	case g.Cylinder != nil:
		out.Cylinder = &urdfCylinder{Length: num(g.Cylinder[0]), Radius: num(g.Cylinder[1])}
	case g.Sphere != nil:
		out.Sphere = &urdfSphere{Radius: num(*g.Sphere)}
	default:
		out.Mesh = &urdfMesh{Filename: g.Mesh}
	}
	return out
}

func urdfElements(els []Element, visual bool) []urdfElement {
	out := make([]urdfElement, 0, len(els))
	for _, el := range els {
		e := urdfElement{
			Origin:   urdfOrigin{XYZ: xyz(el.Pose), RPY: rpy(el.Pose)},
			Geometry: urdfGeom(el.Geometry),
		}
		if visual {
			e.Material = &urdfMaterial{
				Name:  el.Name + "_material",
				Color: urdfColor{RGBA: nums(el.Color[0], el.Color[1], el.Color[2], el.Color[3])},
			}
		}
		out = append(out, e)
	}
	return out
}

func urdfJointOf(j *Joint) urdfJoint {
	out := urdfJoint{
		Name:   j.Name,
		Type:   string(j.Type),
		Origin: urdfOrigin{XYZ: xyz(j.Pose), RPY: rpy(j.Pose)},
		Parent: urdfLinkRef{Link: j.Parent},
		Child:  urdfLinkRef{Link: j.Child},
	}
	if j.Type == kinematic.Fixed {
		return out
	}
	out.Axis = &urdfAxis{XYZ: nums(j.Axis.X, j.Axis.Y, j.Axis.Z)}
	out.Limit = &urdfLimit{Effort: num(j.Effort), Velocity: num(j.Velocity)}
	if j.Limits != nil {
		out.Limit.Lower, out.Limit.Upper = num(j.Limits.Min), num(j.Limits.Max)
	}
	out.Properties = &urdfJointProperties{Friction: "0.0"}
	return out
}

// WriteURDF writes m as a URDF robot. Each link is followed by the joint
// attaching it to its parent.
func WriteURDF(w io.Writer, m *Model) error {
	doc := urdfRobot{Name: m.Name}
	if m.AdditionalXML != "" {
		doc.Extra = "\n" + m.AdditionalXML + "\n"
	}
	for _, l := range m.Links {
		ul := urdfLink{
			Name:       l.Name,
			Visuals:    urdfElements(l.Visuals, true),
			Collisions: urdfElements(l.Collisions, false),
		}
		if !l.Bare {
			in := l.Inertial
			ul.Inertial = &urdfInertial{
				Origin: urdfOrigin{XYZ: nums(in.COM.X, in.COM.Y, in.COM.Z), RPY: "0 0 0"},
				Mass:   urdfValue{Value: num(in.Mass)},
				Inertia: urdfInertia{
					IXX: num(in.Inertia.At(0, 0)), IXY: num(in.Inertia.At(0, 1)), IXZ: num(in.Inertia.At(0, 2)),
					IYY: num(in.Inertia.At(1, 1)), IYZ: num(in.Inertia.At(1, 2)), IZZ: num(in.Inertia.At(2, 2)),
				},
			}
		}
		doc.Items = append(doc.Items, ul)
		if l.Joint != nil {
			doc.Items = append(doc.Items, urdfJointOf(l.Joint))
		}
	}
	return encode(w, doc)
}
