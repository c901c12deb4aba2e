// Package projects discovers project files below the project root.
package projects

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/reglet-dev/autoslice/internal/application/ports"
	"github.com/reglet-dev/autoslice/internal/domain/entities"
)

// Ensure interface compliance
var _ ports.ProjectSource = (*Walker)(nil)

// Walker finds project files recursively, skipping the artifact tree.
type Walker struct {
	root    string
	ext     string
	exclude []string
}

// NewWalker creates a project walker. Directories in exclude (typically the
// artifact root, which lives under the project root by default) are skipped.
func NewWalker(root, ext string, exclude ...string) (*Walker, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	w := &Walker{root: absRoot, ext: ext}
	for _, dir := range exclude {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve excluded directory: %w", err)
		}
		w.exclude = append(w.exclude, abs)
	}
	return w, nil
}

// Root returns the absolute project root.
func (w *Walker) Root() string {
	return w.root
}

// Excluded reports whether path lies inside an excluded directory.
func (w *Walker) Excluded(path string) bool {
	for _, dir := range w.exclude {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// List returns every project file, sorted by relative path.
func (w *Walker) List(ctx context.Context) ([]entities.Project, error) {
	var found []entities.Project

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != w.root && w.Excluded(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), w.ext) {
			return nil
		}

		project, err := entities.NewProject(w.root, path)
		if err != nil {
			return err
		}
		found = append(found, project)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk projects in %s: %w", w.root, err)
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].RelPath < found[j].RelPath
	})
	return found, nil
}

// Resolve converts a project file path into a Project. The file need not exist.
func (w *Walker) Resolve(path string) (entities.Project, error) {
	if !strings.HasSuffix(path, w.ext) {
		return entities.Project{}, fmt.Errorf("%s is not a %s project file", path, w.ext)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return entities.Project{}, fmt.Errorf("failed to resolve project path: %w", err)
	}
	if w.Excluded(abs) {
		return entities.Project{}, fmt.Errorf("%s is inside the artifact tree", path)
	}
	return entities.NewProject(w.root, abs)
}
