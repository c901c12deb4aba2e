package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable autoslice reads.
const EnvPrefix = "AUTOSLICE"

var (
	cfgFile string
	verbose bool
	quiet   bool
	targets []string
)

// rootCmd is the application entry point. Without a subcommand it watches.
var rootCmd = &cobra.Command{
	Use:   "autoslice",
	Short: "Keep sliced G-code in sync with print projects and slicer profiles",
	Long: `autoslice slices every project file against every combination of
printer, filament and print profile, keeps the outputs current as projects
and profiles change, and copies them to remote printers with rsync.

Targets take the form "address" or "address[printer,printer]"; a bracketed
list restricts the target to artifacts for those printers.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if verbose && quiet {
			return fmt.Errorf("--verbose and --quiet are mutually exclusive")
		}
		setupLogging()
		return nil
	},
	RunE:         runWatch,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// configKeys maps config keys to the persistent flags that override them.
var configKeys = map[string]string{
	"projects":                      "projects",
	"profiles":                      "profiles",
	"output":                        "output",
	"slicer.command":                "slicer",
	"slicer.max_concurrent":         "max-slicers",
	"transfer.command":              "rsync",
	"transfer.max_concurrent":       "max-transfers",
	"transfer.mirror_batch_size":    "mirror-batch",
	"watch.debounce":                "debounce",
	"watch.sweep_on_remove":         "sweep-on-remove",
	"distribution.include_untagged": "include-untagged",
	"metrics.listen":                "metrics-addr",
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.autoslice.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")

	flags.StringP("projects", "p", "", "directory containing project files")
	flags.String("profiles", "", "slicer profile directory with printer/, filament/ and print/")
	flags.String("output", "", "artifact directory (default <projects>/gcode)")
	flags.String("slicer", "", "slicer command (default prusa-slicer)")
	flags.Int("max-slicers", 0, "parallel slicer processes per project (default NumCPU)")
	flags.String("rsync", "", "rsync command (default rsync)")
	flags.Int("max-transfers", 0, "parallel single-file transfers (default 10)")
	flags.Int("mirror-batch", 0, "targets mirrored at once after a full regeneration (default 10)")
	flags.Duration("debounce", 0, "quiet period before a changed file is handled (default 250ms)")
	flags.Bool("sweep-on-remove", true, "delete a project's artifacts when the project file is removed")
	flags.Bool("include-untagged", true, "send printer-less artifacts to printer-restricted targets")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address while watching (e.g. :9464)")
	flags.StringArrayVarP(&targets, "target", "t", nil, `distribution target, repeatable ("user@host:/dir[mk3,mk4]")`)

	if err := bindFlags(viper.GetViper(), flags); err != nil {
		panic(err)
	}
}

// bindFlags binds every flag in configKeys so that a flag given on the
// command line overrides the environment and the config file.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range configKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("flag %q is not defined", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	return nil
}

// initConfig configures environment lookup. AUTOSLICE_SLICER_COMMAND
// overrides slicer.command, and so on.
func initConfig() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindEnv("targets"); err != nil {
		slog.Debug("failed to bind targets environment", "error", err)
	}
}

func setupLogging() {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}

	// Using TextHandler for CLI friendliness
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
