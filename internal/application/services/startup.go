package services

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "github.com/reglet-dev/autoslice/internal/application/errors"
	"github.com/reglet-dev/autoslice/internal/domain/values"
)

// Layout names the directories autoslice works with.
type Layout struct {
	ProjectRoot string
	ProfileRoot string
	OutputRoot  string
}

// ValidateLayout checks that every required input directory exists.
// All failures are configuration errors; no partial run is attempted.
func ValidateLayout(layout Layout) error {
	if err := requireDir("projects", layout.ProjectRoot, "could not find project directory"); err != nil {
		return err
	}
	if err := requireDir("profiles", layout.ProfileRoot, "could not find slicer profile directory"); err != nil {
		return err
	}
	for _, category := range values.Categories() {
		dir := filepath.Join(layout.ProfileRoot, category.Dir())
		msg := fmt.Sprintf("expected a %s/ directory in %s, wrong directory?", category.Dir(), layout.ProfileRoot)
		if err := requireDir("profiles", dir, msg); err != nil {
			return err
		}
	}
	return nil
}

func requireDir(aspect, path, message string) error {
	if path == "" {
		return apperrors.NewConfigurationError(aspect, message+": no path given", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return apperrors.NewConfigurationError(aspect, fmt.Sprintf("%s %s", message, path), err)
	}
	if !info.IsDir() {
		return apperrors.NewConfigurationError(aspect, fmt.Sprintf("%s is not a directory", path), nil)
	}
	return nil
}

// EnsureOutputRoot creates the artifact root if needed. It reports whether the
// root already existed, which marks that a previous run populated it.
func EnsureOutputRoot(path string) (existed bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return true, nil
	} else if !os.IsNotExist(err) {
		return false, apperrors.NewConfigurationError("output", "cannot inspect output directory", err)
	}

	//nolint:gosec // G301: artifacts are shared with transfer tools
	if err := os.MkdirAll(path, 0o755); err != nil {
		return false, apperrors.NewConfigurationError("output", "cannot create output directory", err)
	}
	slog.Info("created output directory", "path", path)
	return false, nil
}
