// Package rospkg lays out output directories and scaffolds ROS catkin or
// ament description packages around a generated model.
package rospkg

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/chazu/linkage/pkg/render"
)

// Type is a package flavor.
type Type string

const (
	None   Type = "none"
	Catkin Type = "catkin"
	Ament  Type = "ament"
)

// ParseType validates a package type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case "":
		return None, nil
	case None, Catkin, Ament:
		return Type(s), nil
	}
	return "", fmt.Errorf("rospkg: packageType %q must be one of none, catkin, ament", s)
}

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Layout says where generated files go, relative to the output directory.
type Layout struct {
	Type      Type
	Name      string // package name
	Robot     string
	Format    render.Format
	ModelDir  string
	MeshDir   string
	ModelFile string // model path relative to the output directory
}

// NewLayout returns the layout of a package. With Type None everything is
// written flat into the output directory.
func NewLayout(typ Type, name, robot string, format render.Format) Layout {
	l := Layout{Type: typ, Name: name, Robot: robot, Format: format, ModelDir: ".", MeshDir: "."}
	if typ != None {
		switch format {
		case render.SDF:
			l.ModelDir = path.Join("models", robot)
			l.MeshDir = path.Join(l.ModelDir, "meshes")
		default:
			l.ModelDir = "urdf"
			l.MeshDir = "meshes"
		}
	}
	l.ModelFile = path.Join(l.ModelDir, render.FileName(format))
	return l
}

// Package reports whether a package is scaffolded.
func (l Layout) Package() bool {
	return l.Type != None
}

// MeshURL is the reference to a mesh file written in the model.
func (l Layout) MeshURL(file string) string {
	switch {
	case l.Format == render.SDF && l.Package():
		return "meshes/" + file
	case l.Format == render.URDF && l.Package():
		return "package://" + l.Name + "/meshes/" + file
	case l.Format == render.URDF && l.Name != "":
		return "package://" + l.Name + "/" + file
	}
	return file
}

// InstallDirs lists the package directories to install.
func (l Layout) InstallDirs() string {
	if l.Format == render.SDF {
		return "launch models"
	}
	return "launch " + l.ModelDir + " " + l.MeshDir
}

type file struct {
	template string
	dest     string
}

func (l Layout) files() []file {
	var files []file
	switch l.Type {
	case Catkin:
		files = []file{
			{"catkin_package.xml.tmpl", "package.xml"},
			{"catkin_CMakeLists.txt.tmpl", "CMakeLists.txt"},
			{"catkin_display.launch.tmpl", "launch/display.launch"},
		}
	case Ament:
		files = []file{
			{"ament_package.xml.tmpl", "package.xml"},
			{"ament_CMakeLists.txt.tmpl", "CMakeLists.txt"},
			{"ament_display.launch.py.tmpl", "launch/display.launch.py"},
		}
	}
	if l.Package() && l.Format == render.SDF {
		files = append(files, file{"model.config.tmpl", path.Join(l.ModelDir, "model.config")})
	}
	return files
}

// Generate writes the package files under dir and returns their paths.
func Generate(dir string, l Layout, log *zap.Logger) ([]string, error) {
	if !l.Package() {
		return nil, nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	if l.Name == "" {
		return nil, fmt.Errorf("rospkg: %s package needs a name", l.Type)
	}
	if !strings.HasSuffix(l.Name, "_description") {
		log.Warn("package name does not end with _description", zap.String("package", l.Name))
	}

	var written []string
	for _, f := range l.files() {
		var buf bytes.Buffer
		if err := templates.ExecuteTemplate(&buf, f.template, l); err != nil {
			return nil, fmt.Errorf("rospkg: rendering %s: %w", f.dest, err)
		}
		dest := filepath.Join(dir, filepath.FromSlash(f.dest))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, fmt.Errorf("rospkg: %w", err)
		}
		if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("rospkg: %w", err)
		}
		log.Debug("wrote package file", zap.String("path", dest))
		written = append(written, dest)
	}
	return written, nil
}
