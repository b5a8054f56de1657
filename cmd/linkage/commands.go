package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/linkage/pkg/config"
	"github.com/chazu/linkage/pkg/engine"
	"github.com/chazu/linkage/pkg/graph"
	"github.com/chazu/linkage/pkg/kinematic"
	"github.com/chazu/linkage/pkg/logging"
	"github.com/chazu/linkage/pkg/watch"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	format     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "linkage",
		Short: "Convert CAD assemblies into URDF and SDF robot descriptions",
		Long: `linkage reads the assembly snapshot of a robot directory, resolves
its kinematic tree from the dof_, link_, frame_ and trunk tags and writes
the robot description, its meshes and optionally a ROS package.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default: config.yaml, config.yml or config.json in the robot directory)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: console or json")
	flags.StringVarP(&opts.format, "format", "f", "", "output format: urdf or sdf")

	root.AddCommand(newConvertCmd(opts), newTreeCmd(opts), newWatchCmd(opts), newVersionCmd())
	return root
}

// load reads the configuration of dir with flag overrides applied and
// builds the logger.
func (o *rootOptions) load(cmd *cobra.Command, dir string) (*config.Config, *zap.Logger, error) {
	cfg, err := o.config(dir)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(cfg.Log, cmd.ErrOrStderr()), nil
}

func (o *rootOptions) config(dir string) (*config.Config, error) {
	l := config.NewLoader().WithDir(dir).WithOverride(func(c *config.Config) {
		if o.logLevel != "" {
			c.Log.Level = o.logLevel
		}
		if o.logFormat != "" {
			c.Log.Format = o.logFormat
		}
		if o.format != "" {
			c.OutputFormat = o.format
		}
	})
	if o.configPath != "" {
		l = l.WithConfigPath(o.configPath)
	}
	return l.Load()
}

// watchedFiles lists the inputs of a conversion of dir.
func (o *rootOptions) watchedFiles(dir string, cfg *config.Config) []string {
	files := []string{cfg.Path(cfg.Assembly)}
	if o.configPath != "" {
		files = append(files, o.configPath)
	} else {
		for _, name := range config.FileNames {
			files = append(files, filepath.Join(dir, name))
		}
	}
	for _, f := range []string{cfg.AdditionalURDFFile, cfg.AdditionalSDFFile} {
		if f != "" {
			files = append(files, cfg.Path(f))
		}
	}
	return files
}

func newConvertCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <robot-dir>",
		Short: "Write the robot description and meshes into the robot directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			cfg, log, err := opts.load(cmd, dir)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
			defer stop()

			res, err := engine.New(engine.WithLogger(log)).Convert(ctx, dir, cfg)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), cfg, res)
			return nil
		},
	}
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <robot-dir>",
		Short: "Convert again whenever the snapshot or the config changes",
		Long: `watch converts the robot directory once and then again after every
change to the assembly snapshot, the config file or the additional XML
files. The config is reloaded before each conversion. Failed conversions
are logged and watching goes on until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			cfg, log, err := opts.load(cmd, dir)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
			defer stop()

			w, err := watch.New(opts.watchedFiles(dir, cfg), watch.WithDebounce(debounce), watch.WithLogger(log))
			if err != nil {
				return err
			}
			log.Info("watching", zap.Strings("files", w.Files()))

			eng := engine.New(engine.WithLogger(log))
			out := cmd.OutOrStdout()
			return w.Run(ctx, func(ctx context.Context) error {
				cfg, err := opts.config(dir)
				if err != nil {
					return err
				}
				res, err := eng.Convert(ctx, dir, cfg)
				if err != nil {
					return err
				}
				printResult(out, cfg, res)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before converting after a change")
	return cmd
}

func newTreeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <robot-dir>",
		Short: "Print the resolved kinematic tree without writing files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			cfg, log, err := opts.load(cmd, dir)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			_, robot, err := engine.New(engine.WithLogger(log)).Resolve(dir, cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, robot.String())
			printAssignments(out, robot)
			printWarnings(out, robot.Warnings)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "linkage", version)
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// printAssignments lists every top-level occurrence with its link, sorted
// by occurrence name.
func printAssignments(w io.Writer, robot *kinematic.Robot) {
	type row struct{ occ, link string }
	rows := make([]row, 0, len(robot.Assignments))
	for occ, link := range robot.Assignments {
		name := link
		if n, ok := robot.LinkNames[link]; ok {
			name = n
		}
		rows = append(rows, row{robot.DisplayName([]string{occ}), name})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].occ < rows[j].occ })

	fmt.Fprintln(w, "assignments:")
	for _, r := range rows {
		fmt.Fprintf(w, "  %s -> %s\n", r.occ, r.link)
	}
}

func printResult(w io.Writer, cfg *config.Config, res *engine.Result) {
	fmt.Fprintf(w, "wrote %d files for %s (%d links, %d meshes)\n",
		len(res.Files), cfg.RobotName, len(res.Model.Links), len(res.Model.Meshes)+len(res.Model.Merged))
	printWarnings(w, res.Warnings)
}

func printWarnings(w io.Writer, warnings []graph.Diagnostic) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "%d warnings:\n", len(warnings))
	for _, d := range warnings {
		fmt.Fprintf(w, "  %s\n", d.Error())
	}
}
