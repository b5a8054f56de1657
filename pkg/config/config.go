// Package config loads the conversion settings of a robot directory.
//
// Settings are layered: built-in defaults, then the config file found in the
// robot directory (config.yaml, config.yml or config.json), then LINKAGE_*
// environment variables, then caller overrides such as CLI flags, then
// validation.
//
//	cfg, err := config.NewLoader().
//	    WithDir("robots/arm").
//	    Load()
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/chazu/linkage/pkg/render"
)

// Config is the complete set of conversion settings.
type Config struct {
	// Dir is the robot directory the settings were loaded for. Relative
	// paths below resolve against it.
	Dir string `yaml:"-" env:"-"`

	// Assembly is the snapshot file, relative to the robot directory.
	Assembly string `yaml:"assembly" env:"ASSEMBLY" validate:"required"`
	// Configuration replaces the snapshot's configuration descriptor.
	Configuration string `yaml:"configuration" env:"CONFIGURATION"`

	OutputFormat string `yaml:"outputFormat" env:"OUTPUT_FORMAT" validate:"oneof=urdf sdf"`
	RobotName    string `yaml:"robotName" env:"ROBOT_NAME" validate:"required"`

	DrawFrames     bool `yaml:"drawFrames" env:"DRAW_FRAMES"`
	DrawCollisions bool `yaml:"drawCollisions" env:"DRAW_COLLISIONS"`
	IgnoreLimits   bool `yaml:"ignoreLimits" env:"IGNORE_LIMITS"`

	JointMaxEffort   PerJoint `yaml:"jointMaxEffort" env:"JOINT_MAX_EFFORT"`
	JointMaxVelocity PerJoint `yaml:"jointMaxVelocity" env:"JOINT_MAX_VELOCITY"`

	NoDynamics bool `yaml:"noDynamics" env:"NO_DYNAMICS"`
	// Dynamics overrides mass properties by part name.
	Dynamics map[string]PartDynamics `yaml:"dynamics" env:"-"`

	Ignore      []string `yaml:"ignore" env:"IGNORE"`
	IgnoreRegex []string `yaml:"ignoreRegex" env:"IGNORE_REGEX" validate:"dive,regex"`
	// Whitelist keeps only the named parts when set.
	Whitelist []string `yaml:"whitelist" env:"WHITELIST"`

	// Color is an RGB or RGBA override for every part, components in 0..1.
	Color []float64 `yaml:"color" env:"-"`

	MergeSTLs        string `yaml:"mergeSTLs" env:"MERGE_STLS" validate:"oneof=no visual collision all"`
	UseFixedLinks    bool   `yaml:"useFixedLinks" env:"USE_FIXED_LINKS"`
	AddDummyBaseLink bool   `yaml:"addDummyBaseLink" env:"ADD_DUMMY_BASE_LINK"`

	AdditionalURDFFile string `yaml:"additionalUrdfFile" env:"ADDITIONAL_URDF_FILE"`
	AdditionalSDFFile  string `yaml:"additionalSdfFile" env:"ADDITIONAL_SDF_FILE"`

	PackageName string `yaml:"packageName" env:"PACKAGE_NAME" validate:"required_unless=PackageType none"`
	PackageType string `yaml:"packageType" env:"PACKAGE_TYPE" validate:"oneof=none catkin ament"`

	// PureShapeDilatation grows pure collision shapes outward, in meters.
	PureShapeDilatation float64 `yaml:"pureShapeDilatation" env:"PURE_SHAPE_DILATATION" validate:"gte=0"`

	MaterialTags     []render.MaterialTag `yaml:"materialTags" env:"-"`
	MaterialTagsOnly bool                 `yaml:"materialTagsOnly" env:"MATERIAL_TAGS_ONLY"`

	// CachePath is the mesh cache database. Empty disables caching.
	CachePath string `yaml:"cachePath" env:"CACHE_PATH"`
	// MeshCells is the marching cubes resolution along the longest side.
	MeshCells int `yaml:"meshCells" env:"MESH_CELLS" validate:"gte=0"`
	// Workers bounds concurrent mesh generation.
	Workers int `yaml:"workers" env:"WORKERS" validate:"gte=0"`
	// Timeout bounds a whole conversion. Zero means no limit.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT" validate:"gte=0"`
	// MetricsFile receives conversion metrics in the Prometheus text format
	// after every run. Empty disables it.
	MetricsFile string `yaml:"metricsFile" env:"METRICS_FILE"`

	Log LogConfig `yaml:"log" env:"LOG"`
}

// LogConfig configures the logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
	// Format is json or console.
	Format string `yaml:"format" env:"FORMAT" validate:"oneof=json console"`
}

// Format values.
const (
	FormatURDF = "urdf"
	FormatSDF  = "sdf"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Assembly:         "assembly.json",
		OutputFormat:     FormatURDF,
		RobotName:        "onshape",
		JointMaxEffort:   PerJoint{Default: 1},
		JointMaxVelocity: PerJoint{Default: 20},
		MergeSTLs:        "no",
		PackageType:      "none",
		CachePath:        defaultCachePath(),
		MeshCells:        64,
		Workers:          4,
		Timeout:          5 * time.Minute,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "linkage", "meshes.sqlite")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("regex", validateRegex)
	return v
}

func validateRegex(fl validator.FieldLevel) bool {
	_, err := regexp.Compile(fl.Field().String())
	return err == nil
}

// Validate checks enum values, regexes and numeric ranges.
func (c *Config) Validate() error {
	var errs []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		for _, fe := range verrs {
			errs = append(errs, describe(fe))
		}
	}
	if n := len(c.Color); n != 0 && n != 3 && n != 4 {
		errs = append(errs, fmt.Sprintf("color has %d components, want 3 or 4", n))
	}
	for name, d := range c.Dynamics {
		if n := len(d.Inertia); n != 0 && n != 9 {
			errs = append(errs, fmt.Sprintf("dynamics %q: inertia has %d values, want 9", name, n))
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// describe renders a field error with its config key.
func describe(fe validator.FieldError) string {
	key := fe.Namespace()
	if i := strings.IndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s: %q is not one of %s", key, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "required":
		return key + " must not be empty"
	case "required_unless":
		return key + " is required when packageType is set"
	case "regex":
		return fmt.Sprintf("%s: %q does not compile", key, fe.Value())
	case "gte":
		return key + " must not be negative"
	}
	return fmt.Sprintf("%s: failed %s", key, fe.Tag())
}

// IgnorePatterns compiles IgnoreRegex. Patterns are anchored at the start
// of the part name.
func (c *Config) IgnorePatterns() ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(c.IgnoreRegex))
	for _, expr := range c.IgnoreRegex {
		re, err := regexp.Compile("^(?:" + expr + ")")
		if err != nil {
			return nil, fmt.Errorf("%w: ignoreRegex %q: %v", ErrInvalid, expr, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// RGBA returns the color override with an opaque alpha filled in, or nil.
func (c *Config) RGBA() *[4]float64 {
	if len(c.Color) < 3 {
		return nil
	}
	rgba := [4]float64{c.Color[0], c.Color[1], c.Color[2], 1}
	if len(c.Color) == 4 {
		rgba[3] = c.Color[3]
	}
	return &rgba
}

// AdditionalFile returns the extra XML file for the output format, resolved
// against Dir. It is empty when none is configured.
func (c *Config) AdditionalFile() string {
	f := c.AdditionalURDFFile
	if c.OutputFormat == FormatSDF {
		f = c.AdditionalSDFFile
	}
	if f == "" {
		return ""
	}
	return c.Path(f)
}

// Path resolves p against Dir unless it is absolute.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}
