// Package catalog reads slicer profiles from the slicer's configuration directory.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reglet-dev/autoslice/internal/application/ports"
	"github.com/reglet-dev/autoslice/internal/domain/entities"
	"github.com/reglet-dev/autoslice/internal/domain/values"
)

// Ensure interface compliance
var _ ports.CatalogSource = (*DirSource)(nil)

// DirSource enumerates <root>/printer, <root>/filament and <root>/print for profile files.
type DirSource struct {
	root string
	ext  string
}

// NewDirSource creates a catalog source. ext includes the leading dot (".ini").
func NewDirSource(root, ext string) *DirSource {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &DirSource{root: root, ext: ext}
}

// Root returns the profile root directory.
func (s *DirSource) Root() string {
	return s.root
}

// Load reads a fresh snapshot of every category.
func (s *DirSource) Load(ctx context.Context) (*entities.Catalog, error) {
	names := make(map[values.ProfileCategory][]string, 3)
	for _, category := range values.Categories() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := s.list(category)
		if err != nil {
			return nil, err
		}
		names[category] = found
	}

	return entities.NewCatalog(
		names[values.CategoryPrinter],
		names[values.CategoryFilament],
		names[values.CategoryPrintSetting],
	), nil
}

func (s *DirSource) list(category values.ProfileCategory) ([]string, error) {
	dir := filepath.Join(s.root, category.Dir())
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s profiles: %w", category, err)
	}

	var found []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), s.ext) {
			continue
		}
		found = append(found, strings.TrimSuffix(entry.Name(), s.ext))
	}
	return found, nil
}

// ProfileFile returns <root>/<category>/<name><ext>.
func (s *DirSource) ProfileFile(ref values.ProfileRef) string {
	return filepath.Join(s.root, ref.Category.Dir(), ref.Name+s.ext)
}
