package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/reglet-dev/autoslice/internal/application/errors"
	"github.com/reglet-dev/autoslice/internal/application/services"
	"github.com/reglet-dev/autoslice/internal/infrastructure/container"
	"github.com/reglet-dev/autoslice/internal/infrastructure/system"
	"github.com/spf13/viper"
)

// defaultConfigName is looked up in the working directory, then in $HOME.
const defaultConfigName = ".autoslice.yaml"

// configPath returns the config file to load, or "" when there is none.
func configPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidates := []string{defaultConfigName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, defaultConfigName))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// loadConfig merges the config file, the environment and flags, in
// increasing precedence. Targets accumulate across all three.
func loadConfig(v *viper.Viper, path string, flagTargets []string) (*system.Config, error) {
	cfg, err := system.NewConfigLoader().Load(path)
	if err != nil {
		return nil, apperrors.NewConfigurationError("config", "cannot load "+path, err)
	}
	if path != "" {
		slog.Debug("using config file", "file", path)
	}

	applyOverrides(cfg, v)

	// Allow-lists contain commas, so environment targets are space separated.
	cfg.Targets = append(cfg.Targets, strings.Fields(v.GetString("targets"))...)
	cfg.Targets = append(cfg.Targets, flagTargets...)

	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides copies every key set in the environment or on the command line.
func applyOverrides(cfg *system.Config, v *viper.Viper) {
	strs := map[string]*string{
		"projects":         &cfg.Projects,
		"profiles":         &cfg.Profiles,
		"output":           &cfg.Output,
		"slicer.command":   &cfg.Slicer.Command,
		"transfer.command": &cfg.Transfer.Command,
		"metrics.listen":   &cfg.Metrics.Listen,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	ints := map[string]*int{
		"slicer.max_concurrent":      &cfg.Slicer.MaxConcurrent,
		"transfer.max_concurrent":    &cfg.Transfer.MaxConcurrent,
		"transfer.mirror_batch_size": &cfg.Transfer.MirrorBatchSize,
	}
	for key, dst := range ints {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}

	bools := map[string]*bool{
		"watch.sweep_on_remove":         &cfg.Watch.SweepOnRemove,
		"distribution.include_untagged": &cfg.Distribution.IncludeUntagged,
	}
	for key, dst := range bools {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	if v.IsSet("watch.debounce") {
		cfg.Watch.Debounce = v.GetDuration("watch.debounce")
	}
}

// newContainer loads the configuration and wires the application.
func newContainer() (*container.Container, error) {
	cfg, err := loadConfig(viper.GetViper(), configPath(cfgFile), targets)
	if err != nil {
		return nil, err
	}
	return container.New(cfg, container.Options{Logger: slog.Default()})
}

// prepare checks the directory layout and readies the artifact tree. It
// reports fresh on a first run (no artifact root yet); otherwise it rebuilds
// the artifact index from disk.
func prepare(ctx context.Context, c *container.Container) (fresh bool, err error) {
	cfg := c.Config()
	err = services.ValidateLayout(services.Layout{
		ProjectRoot: cfg.Projects,
		ProfileRoot: cfg.Profiles,
		OutputRoot:  cfg.Output,
	})
	if err != nil {
		return false, err
	}

	existed, err := services.EnsureOutputRoot(cfg.Output)
	if err != nil {
		return false, err
	}

	catalog, err := c.Catalog().Load(ctx)
	if err != nil {
		return false, apperrors.NewConfigurationError("profiles", "cannot read slicer profiles", err)
	}
	slog.Info("loaded profile combinations",
		"printers", catalog.Printers,
		"filaments", catalog.Filaments,
		"print_settings", catalog.PrintSettings)

	parsed, _ := cfg.ParsedTargets()
	for _, t := range parsed {
		slog.Info("distribution target", "target", t.String())
	}

	if !existed {
		return true, nil
	}

	projects, err := c.Projects().List(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list projects: %w", err)
	}
	unindexed, err := c.Store().Rebuild(ctx, projects, catalog)
	if err != nil {
		return false, err
	}
	for _, rel := range unindexed {
		slog.Warn("artifact matches no project or profile, leaving it in place", "artifact", rel)
	}
	return false, nil
}
