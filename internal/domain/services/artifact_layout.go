package services

import (
	"path/filepath"
	"strings"

	"github.com/reglet-dev/autoslice/internal/domain/entities"
	"github.com/reglet-dev/autoslice/internal/domain/values"
)

// ArtifactLayout maps (project, permutation) pairs onto the artifact tree.
//
// A project at <projects>/sub/box.3mf produces <output>/sub/box.gcode for the
// vanilla permutation and <output>/sub/box_<printer>-<filament>-<print>.gcode otherwise.
type ArtifactLayout struct {
	OutputRoot  string
	ArtifactExt string
}

// NewArtifactLayout creates a layout rooted at outputRoot. ext has no leading dot.
func NewArtifactLayout(outputRoot, ext string) ArtifactLayout {
	return ArtifactLayout{
		OutputRoot:  outputRoot,
		ArtifactExt: strings.TrimPrefix(ext, "."),
	}
}

// FileName returns the artifact file name for a permutation of the project.
func (l ArtifactLayout) FileName(project entities.Project, perm values.Permutation) string {
	if perm.IsVanilla() {
		return project.Name() + "." + l.ArtifactExt
	}
	return project.Name() + "_" + perm.Tag() + "." + l.ArtifactExt
}

// Artifact returns the artifact for one permutation of the project.
func (l ArtifactLayout) Artifact(project entities.Project, perm values.Permutation) entities.Artifact {
	rel := filepath.Join(project.Dir(), l.FileName(project, perm))
	return entities.Artifact{
		Project:     project,
		Permutation: perm,
		Path:        filepath.Join(l.OutputRoot, rel),
		RelPath:     rel,
	}
}

// Artifacts maps every permutation to its artifact, preserving order.
func (l ArtifactLayout) Artifacts(project entities.Project, perms []values.Permutation) []entities.Artifact {
	artifacts := make([]entities.Artifact, 0, len(perms))
	for _, perm := range perms {
		artifacts = append(artifacts, l.Artifact(project, perm))
	}
	return artifacts
}

// ProjectDir returns the artifact directory holding the project's outputs.
func (l ArtifactLayout) ProjectDir(project entities.Project) string {
	return filepath.Join(l.OutputRoot, project.Dir())
}

// RelPath returns path relative to the output root.
func (l ArtifactLayout) RelPath(path string) (string, error) {
	return filepath.Rel(l.OutputRoot, path)
}

// MatchName reports whether fileName could have been sliced from a project named
// projectName: either "<project>.<ext>" or "<project>_<a>-<b>-<c>.<ext>".
// The returned tag is empty for the vanilla artifact.
func (l ArtifactLayout) MatchName(fileName, projectName string) (tag string, ok bool) {
	suffix := "." + l.ArtifactExt
	if fileName == projectName+suffix {
		return "", true
	}

	prefix := projectName + "_"
	if !strings.HasPrefix(fileName, prefix) || !strings.HasSuffix(fileName, suffix) {
		return "", false
	}

	tag = strings.TrimSuffix(strings.TrimPrefix(fileName, prefix), suffix)
	if strings.Count(tag, "-") < 2 {
		return "", false
	}
	return tag, true
}

// ResolveTag splits a "<printer>-<filament>-<print>" tag using the catalog.
// Profile names may themselves contain dashes, so the split is driven by the
// known names (plus None) rather than by the separator alone.
func ResolveTag(tag string, catalog *entities.Catalog) (values.Permutation, bool) {
	candidates := func(category values.ProfileCategory) []string {
		return append([]string{values.None}, catalog.Names(category)...)
	}

	for _, printer := range candidates(values.CategoryPrinter) {
		rest, ok := strings.CutPrefix(tag, printer+"-")
		if !ok {
			continue
		}
		for _, filament := range candidates(values.CategoryFilament) {
			printSetting, ok := strings.CutPrefix(rest, filament+"-")
			if !ok {
				continue
			}
			for _, candidate := range candidates(values.CategoryPrintSetting) {
				if candidate == printSetting {
					perm := values.NewPermutation(printer, filament, printSetting)
					if perm.IsVanilla() {
						return values.Permutation{}, false
					}
					return perm, true
				}
			}
		}
	}

	return values.Permutation{}, false
}
