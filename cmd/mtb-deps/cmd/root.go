// Package cmd provides the CLI commands for mtb-deps.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mtb04313/mtb-scripts/internal/audit"
	"github.com/mtb04313/mtb-scripts/internal/config"
	"github.com/mtb04313/mtb-scripts/internal/errors"
	"github.com/mtb04313/mtb-scripts/internal/gitstatus"
	"github.com/mtb04313/mtb-scripts/internal/logging"
	"github.com/mtb04313/mtb-scripts/internal/report"
)

// Version information - set via ldflags at build time in main.go.
// These are exported so main.go can set them before Execute().
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// ErrDirtyDependencies is returned by the audit when --fail-on-dirty is set
// and at least one dependency has uncommitted changes. The report has
// already been printed, so Execute exits without another message.
var ErrDirtyDependencies = errors.New(errors.ErrGit, "dependencies have uncommitted changes")

// ErrMissingDependencies is returned by the audit when a descriptor resolves
// to a folder that is not a repository. The run still reports every
// dependency before failing.
var ErrMissingDependencies = errors.New(errors.ErrNotFound, "dependencies are missing from the shared-asset folder")

// reported is true for errors whose details are already in the report.
func reported(err error) bool {
	return err == ErrDirtyDependencies || err == ErrMissingDependencies
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mtb-deps",
	Short: "Report uncommitted changes in shared ModusToolbox dependencies",
	Long: `mtb-deps scans a ModusToolbox project for deps/*.mtb descriptor files,
resolves each one to its repository under mtb_shared, and reports whether
that repository has uncommitted changes.

Run it from the application folder, or point it there with --dir.

Examples:
  mtb-deps                     # Audit the current project
  mtb-deps -c                  # Colored output
  mtb-deps -d -f               # Debug logging, also written to out.log
  mtb-deps --format json       # Machine-readable report`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAudit,
}

func init() {
	addAuditFlags(rootCmd)
}

// addAuditFlags registers the audit flags on cmd.
func addAuditFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("debug", "d", false, "Enable debug logging on stderr")
	cmd.Flags().BoolP("color", "c", false, "Colorize the report")
	cmd.Flags().BoolP("file", "f", false, "Also write logs to "+logging.DefaultLogFile)
	cmd.Flags().String("dir", "", "Project folder (default: current directory)")
	cmd.Flags().String("config", "", "Config file (default: "+config.DefaultConfigPath+" in the project folder)")
	cmd.Flags().String("format", "", "Report format: text, json or yaml")
	cmd.Flags().String("backend", "", "Git status backend: exec or gogit")
	cmd.Flags().Bool("fail-on-dirty", false, "Exit with status 1 when any dependency is dirty")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
	rootCmd.SetVersionTemplate("mtb-deps {{.Version}}\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !reported(err) {
			fmt.Fprint(os.Stderr, errors.FormatError(err))
		}
		stop()
		os.Exit(1)
	}
}

// Root returns the root command for testing purposes.
func Root() *cobra.Command {
	return rootCmd
}

// runAudit is called when mtb-deps is invoked with no subcommand.
func runAudit(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	toFile, _ := cmd.Flags().GetBool("file")

	if err := logging.InitGlobal(logConfig(debug, toFile, cmd.ErrOrStderr())); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.CloseGlobal()

	logging.Info("run started", "time", time.Now().UTC().Format("2006-01-02 15:04:05 MST"))

	projectDir, err := projectDir(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, projectDir)
	if err != nil {
		return err
	}

	q, err := gitstatus.New(cfg.Git)
	if err != nil {
		return err
	}

	auditor := audit.New(afero.NewOsFs(), cfg, q)
	out := cmd.OutOrStdout()

	var tw *report.TextWriter
	if cfg.Output.Format == config.FormatText {
		tw = report.NewTextWriter(out, cfg.Output.Color)
		auditor.Observer = tw
	}

	rep, err := auditor.Run(cmd.Context(), projectDir)
	if err != nil {
		return err
	}

	if tw != nil {
		tw.Summary(rep)
	} else if err := report.Write(out, rep, cfg.Output.Format, cfg.Output.Color); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logging.Info("run finished", "dependencies", rep.Total(), "dirty", rep.Dirty, "missing", rep.Missing)

	if rep.Missing > 0 {
		return ErrMissingDependencies
	}
	if cfg.Output.FailOnDirty && rep.Dirty > 0 {
		return ErrDirtyDependencies
	}
	return nil
}

// logConfig maps the -d and -f flags to a logging configuration. Without
// either flag only warnings and errors reach stderr. With only -f, records
// go to the log file and stderr stays quiet.
func logConfig(debug, toFile bool, stderr io.Writer) *logging.Config {
	cfg := logging.DefaultConfig()
	cfg.ConsoleWriter = stderr
	if toFile {
		cfg.LogFile = logging.DefaultLogFile
		cfg.Level = logging.LevelInfo
		cfg.Console = debug
	}
	if debug {
		cfg.Level = logging.LevelDebug
		cfg.Console = true
	}
	return cfg
}

// projectDir returns --dir, or the working directory.
func projectDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir != "" {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrWorkspace, "failed to get current directory")
	}
	return wd, nil
}

// loadConfig loads the config file and applies flag overrides on top.
// Flags win over the file and the environment.
func loadConfig(cmd *cobra.Command, projectDir string) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(projectDir)
	}
	if err != nil {
		return nil, configError(err)
	}

	flags := cmd.Flags()
	if flags.Changed("color") {
		cfg.Output.Color, _ = flags.GetBool("color")
	}
	if flags.Changed("fail-on-dirty") {
		cfg.Output.FailOnDirty, _ = flags.GetBool("fail-on-dirty")
	}
	if flags.Changed("format") {
		f, _ := flags.GetString("format")
		cfg.Output.Format = config.Format(f)
	}
	if flags.Changed("backend") {
		b, _ := flags.GetString("backend")
		cfg.Git.Backend = config.Backend(b)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfig, "invalid option")
	}
	return cfg, nil
}

// configError maps a config load failure to a user-facing error.
func configError(err error) error {
	var loadErr *config.LoadError
	if !errors.As(err, &loadErr) {
		return errors.Wrap(err, errors.ErrConfig, "failed to load configuration")
	}

	var invalid config.ValidationErrors
	switch {
	case os.IsNotExist(loadErr.Err):
		return errors.WithSuggestion(errors.ErrConfig,
			"configuration file not found: "+loadErr.Path,
			"Create one with:\n  mtb-deps config init").WithCause(loadErr.Err)
	case errors.As(err, &invalid):
		return errors.Wrap(invalid, errors.ErrConfig, "invalid configuration: "+loadErr.Path)
	default:
		return errors.ConfigParseError(loadErr.Path, loadErr.Err)
	}
}
