package entities

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Project is a source design file below the project root.
type Project struct {
	// Path is the absolute path of the project file.
	Path string `json:"path" yaml:"path"`
	// RelPath is the path relative to the project root.
	RelPath string `json:"rel_path" yaml:"rel_path"`
}

// NewProject creates a Project from its path and the project root.
func NewProject(root, path string) (Project, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Project{}, fmt.Errorf("failed to resolve project root: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Project{}, fmt.Errorf("failed to resolve project path: %w", err)
	}

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return Project{}, fmt.Errorf("project %s is not below %s", path, root)
	}

	return Project{Path: absPath, RelPath: rel}, nil
}

// Name returns the file name without its extension.
func (p Project) Name() string {
	base := filepath.Base(p.RelPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Dir returns the directory of the project relative to the project root.
func (p Project) Dir() string {
	return filepath.Dir(p.RelPath)
}

// String returns the relative path
func (p Project) String() string {
	return p.RelPath
}
