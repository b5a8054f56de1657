// Package engine runs a complete conversion of a robot directory: it loads
// the assembly snapshot, resolves the kinematic tree, exports meshes and
// writes the robot description and its ROS package.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chazu/linkage/pkg/cache"
	"github.com/chazu/linkage/pkg/config"
	"github.com/chazu/linkage/pkg/graph"
	"github.com/chazu/linkage/pkg/kernel"
	"github.com/chazu/linkage/pkg/kernel/sdfx"
	"github.com/chazu/linkage/pkg/kinematic"
	"github.com/chazu/linkage/pkg/metrics"
	"github.com/chazu/linkage/pkg/render"
	"github.com/chazu/linkage/pkg/rospkg"
	"github.com/chazu/linkage/pkg/source"
	"github.com/chazu/linkage/pkg/tessellate"
)

// Result is the outcome of a conversion.
type Result struct {
	Robot *kinematic.Robot
	Model *render.Model
	// Files lists every written file, model first.
	Files []string
	// Warnings gathers the diagnostics of every step.
	Warnings []graph.Diagnostic
}

// Engine converts robot directories. It is safe for concurrent use; every
// call works on its own state.
type Engine struct {
	log     *zap.Logger
	kernel  kernel.Kernel
	metrics *metrics.Collector
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithKernel replaces the sdfx kernel used for meshes.
func WithKernel(k kernel.Kernel) Option {
	return func(e *Engine) { e.kernel = k }
}

// WithMetrics records conversions in m instead of a private collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{log: zap.NewNop(), metrics: metrics.New()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Resolve loads the snapshot of robotDir and builds its kinematic tree
// without writing anything.
func (e *Engine) Resolve(robotDir string, cfg *config.Config) (*source.Source, *kinematic.Robot, error) {
	c := forDir(robotDir, cfg)
	src, err := source.Load(c.Path(c.Assembly), c.Configuration, e.log)
	if err != nil {
		return nil, nil, err
	}
	robot, err := kinematic.Build(src.Document(), kinematic.Options{
		IgnoreLimits: c.IgnoreLimits,
		DrawFrames:   c.DrawFrames,
		Limits:       src,
		Logger:       e.log,
	})
	if err != nil {
		return nil, nil, err
	}
	return src, robot, nil
}

// Metrics returns the collector conversions are recorded in.
func (e *Engine) Metrics() *metrics.Collector {
	return e.metrics
}

// Convert converts robotDir and writes the output into it. The whole run is
// bounded by cfg.Timeout and by ctx. When cfg.MetricsFile is set the
// metrics are written there afterwards, whatever the outcome.
func (e *Engine) Convert(ctx context.Context, robotDir string, cfg *config.Config) (*Result, error) {
	start := time.Now()
	res, err := runWithTimeout(ctx, cfg.Timeout, func(ctx context.Context) (*Result, error) {
		return e.convert(ctx, robotDir, cfg)
	})

	conv := metrics.Conversion{Err: err, Duration: time.Since(start)}
	if res != nil {
		conv.Links = len(res.Model.Links)
		conv.Meshes = len(res.Model.Meshes) + len(res.Model.Merged)
		conv.Warnings = len(res.Warnings)
	}
	e.metrics.RecordConversion(conv)
	if cfg.MetricsFile != "" {
		path := forDir(robotDir, cfg).Path(cfg.MetricsFile)
		if werr := e.metrics.WriteFile(path); werr != nil {
			e.log.Warn("failed to write metrics", zap.String("path", path), zap.Error(werr))
		}
	}
	return res, err
}

func (e *Engine) convert(ctx context.Context, robotDir string, cfg *config.Config) (*Result, error) {
	c := forDir(robotDir, cfg)

	src, robot, err := e.Resolve(robotDir, c)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := render.ParseFormat(c.OutputFormat)
	if err != nil {
		return nil, err
	}
	pkgType, err := rospkg.ParseType(c.PackageType)
	if err != nil {
		return nil, err
	}
	layout := rospkg.NewLayout(pkgType, c.PackageName, c.RobotName, format)

	opts, err := e.renderOptions(c, format, layout)
	if err != nil {
		return nil, err
	}
	model, err := render.Plan(robot, src, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Robot:    robot,
		Model:    model,
		Warnings: append(append([]graph.Diagnostic(nil), robot.Warnings...), model.Warnings...),
	}

	modelPath := filepath.Join(robotDir, filepath.FromSlash(layout.ModelFile))
	if err := writeModel(modelPath, model); err != nil {
		return nil, err
	}
	res.Files = append(res.Files, modelPath)
	e.log.Info("wrote robot description", zap.String("path", modelPath), zap.Int("links", len(model.Links)))

	meshFiles, err := e.exportMeshes(ctx, c, filepath.Join(robotDir, filepath.FromSlash(layout.MeshDir)), model)
	if err != nil {
		return nil, err
	}
	res.Files = append(res.Files, meshFiles...)

	pkgFiles, err := rospkg.Generate(robotDir, layout, e.log)
	if err != nil {
		return nil, err
	}
	res.Files = append(res.Files, pkgFiles...)
	return res, nil
}

// forDir returns a copy of cfg whose relative paths resolve against dir.
func forDir(dir string, cfg *config.Config) *config.Config {
	c := *cfg
	c.Dir = dir
	return &c
}

func (e *Engine) renderOptions(c *config.Config, format render.Format, layout rospkg.Layout) (render.Options, error) {
	ignoreRegex, err := c.IgnorePatterns()
	if err != nil {
		return render.Options{}, err
	}
	opts := render.Options{
		Format:           format,
		RobotName:        c.RobotName,
		DrawCollisions:   c.DrawCollisions,
		ShapeDilatation:  c.PureShapeDilatation,
		MergeSTLs:        c.MergeSTLs,
		UseFixedLinks:    c.UseFixedLinks,
		AddDummyBaseLink: c.AddDummyBaseLink,
		NoDynamics:       c.NoDynamics,
		JointMaxEffort:   render.PerJoint{Default: c.JointMaxEffort.Default, ByJoint: c.JointMaxEffort.ByJoint},
		JointMaxVelocity: render.PerJoint{Default: c.JointMaxVelocity.Default, ByJoint: c.JointMaxVelocity.ByJoint},
		Color:            c.RGBA(),
		Ignore:           c.Ignore,
		IgnoreRegex:      ignoreRegex,
		Whitelist:        c.Whitelist,
		MaterialTags:     c.MaterialTags,
		MaterialTagsOnly: c.MaterialTagsOnly,
		MeshURL:          layout.MeshURL,
		Logger:           e.log,
	}
	if len(c.Dynamics) > 0 {
		opts.Dynamics = make(map[string]render.Dynamics, len(c.Dynamics))
		for name, d := range c.Dynamics {
			if d.Fixed {
				opts.Dynamics[strings.ToLower(name)] = render.Dynamics{}
				continue
			}
			opts.Dynamics[strings.ToLower(name)] = render.Dynamics{Mass: d.Mass, COM: d.COM, Inertia: d.Inertia}
		}
	}
	if path := c.AdditionalFile(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return render.Options{}, fmt.Errorf("engine: additional xml: %w", err)
		}
		opts.AdditionalXML = string(data)
	}
	return opts, nil
}

func writeModel(path string, model *render.Model) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := render.Write(f, model); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

// exportMeshes writes one STL per part mesh of the model and one per
// merged link mesh, and returns the written paths.
func (e *Engine) exportMeshes(ctx context.Context, c *config.Config, dir string, model *render.Model) ([]string, error) {
	if len(model.Meshes) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	k := e.kernel
	if k == nil {
		k = sdfx.New(sdfx.WithMeshCells(c.MeshCells))
	}
	topts := []tessellate.Option{
		tessellate.WithWorkers(c.Workers),
		tessellate.WithLogger(e.log),
		tessellate.WithRecorder(e.metrics),
	}
	if c.CachePath != "" {
		mc, err := cache.Open(c.Path(c.CachePath))
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		defer mc.Close()
		topts = append(topts, tessellate.WithCache(mc))
	}
	tz := tessellate.New(k, topts...)

	meshes, err := tz.Export(ctx, dir, model.Meshes)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*kernel.Mesh, len(meshes))
	var files []string
	for i, p := range model.Meshes {
		byName[p.Name] = meshes[i]
		files = append(files, filepath.Join(dir, p.Name+".stl"))
	}

	for _, mm := range model.Merged {
		placed := make([]tessellate.Placed, 0, len(mm.Parts))
		for _, p := range mm.Parts {
			placed = append(placed, tessellate.Placed{Mesh: byName[p.Mesh], Pose: p.Pose})
		}
		path := filepath.Join(dir, mm.Name+".stl")
		if err := tessellate.MergeLink(mm.Name, placed).SaveSTL(path); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		files = append(files, path)
	}
	e.log.Info("exported meshes", zap.Int("parts", len(model.Meshes)), zap.Int("merged", len(model.Merged)))
	return files, nil
}
