// Package artifacts manages the on-disk tree of sliced outputs.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/reglet-dev/autoslice/internal/domain/entities"
	"github.com/reglet-dev/autoslice/internal/domain/services"
	"github.com/reglet-dev/autoslice/internal/domain/values"
)

// Store is the artifact tree plus an index from profiles and projects to the
// artifacts derived from them. The tree holds derived data only: anything in it
// can be deleted and regenerated from the projects and profiles.
//
// Store does not serialize passes; callers must not run two passes at once.
// Record may be called concurrently from slicing workers.
type Store struct {
	layout services.ArtifactLayout
	index  *index
	mu     sync.RWMutex
}

// NewStore creates a store over the layout's output root.
func NewStore(layout services.ArtifactLayout) *Store {
	return &Store{
		layout: layout,
		index:  newIndex(),
	}
}

// Layout returns the artifact layout.
func (s *Store) Layout() services.ArtifactLayout {
	return s.layout
}

// Root returns the artifact root directory.
func (s *Store) Root() string {
	return s.layout.OutputRoot
}

// Prepare ensures the artifact's parent directory exists.
func (s *Store) Prepare(a entities.Artifact) error {
	//nolint:gosec // G301: artifacts are shared with transfer tools
	if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return nil
}

// Exists reports whether the artifact file is present on disk.
func (s *Store) Exists(a entities.Artifact) bool {
	info, err := os.Stat(a.Path)
	return err == nil && info.Mode().IsRegular()
}

// Record indexes a freshly produced artifact.
func (s *Store) Record(a entities.Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index.add(a)
}

// Artifacts returns every indexed artifact, sorted by relative path.
func (s *Store) Artifacts() []entities.Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.all()
}

// ArtifactsForProfile returns the indexed artifacts that apply ref.
func (s *Store) ArtifactsForProfile(ref values.ProfileRef) []entities.Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.forProfile(ref)
}

// Indexed reports whether the artifact is in the index.
func (s *Store) Indexed(a entities.Artifact) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index.byID[a.ID()]
	return ok
}

// RemoveExcept deletes every indexed artifact whose ID is not in keep and
// returns what was removed.
func (s *Store) RemoveExcept(keep map[string]struct{}) ([]entities.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []entities.Artifact
	var errs []error
	for _, a := range s.index.all() {
		if _, ok := keep[a.ID()]; ok {
			continue
		}
		if err := removeFile(a.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		s.index.remove(a.ID())
		removed = append(removed, a)
	}
	return removed, errors.Join(errs...)
}

// WipeAll deletes the whole tree, recreates an empty root and clears the index.
func (s *Store) WipeAll() error {
	root := s.Root()
	slog.Warn("deleting all artifacts", "path", root)

	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("failed to delete artifact tree: %w", err)
	}
	//nolint:gosec // G301: artifacts are shared with transfer tools
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to recreate artifact root: %w", err)
	}

	s.mu.Lock()
	s.index = newIndex()
	s.mu.Unlock()
	return nil
}

// RemoveByProfile deletes every artifact that applies ref, in any slot of
// its category, and returns what was removed. Cost is proportional to the
// number of matches, not to the size of the tree.
func (s *Store) RemoveByProfile(ref values.ProfileRef) ([]entities.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []entities.Artifact
	var errs []error
	for _, a := range s.index.forProfile(ref) {
		if err := removeFile(a.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		s.index.remove(a.ID())
		removed = append(removed, a)
	}
	return removed, errors.Join(errs...)
}

// SweepProject deletes every artifact that could have been derived from the
// project, whatever permutation produced it. Indexed artifacts are removed
// first; the project's artifact directory is then scanned for unindexed
// leftovers named "<project>.<ext>" or "<project>_<a>-<b>-<c>.<ext>".
// siblings are the live projects; a leftover that a sibling with a longer
// name also matches (box vs box_lid) belongs to that sibling and is kept.
// It returns the removed paths relative to the artifact root.
func (s *Store) SweepProject(project entities.Project, siblings []entities.Project) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	var errs []error
	for _, a := range s.index.forProject(project.RelPath) {
		if err := removeFile(a.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		s.index.remove(a.ID())
		removed = append(removed, a.RelPath)
	}

	dir := s.layout.ProjectDir(project)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return removed, errors.Join(errs...)
		}
		return removed, errors.Join(append(errs, fmt.Errorf("failed to scan %s: %w", dir, err))...)
	}

	claimants := slices.Concat(siblings, s.index.projects())
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if _, ok := s.layout.MatchName(name, project.Name()); !ok {
			continue
		}
		if s.claimedByOther(name, project, claimants) {
			continue
		}

		path := filepath.Join(dir, name)
		if err := removeFile(path); err != nil {
			errs = append(errs, err)
			continue
		}
		rel, _ := s.layout.RelPath(path)
		removed = append(removed, rel)
	}

	return removed, errors.Join(errs...)
}

func (s *Store) claimedByOther(name string, project entities.Project, claimants []entities.Project) bool {
	for _, other := range claimants {
		if other.RelPath == project.RelPath || other.Dir() != project.Dir() {
			continue
		}
		if len(other.Name()) <= len(project.Name()) {
			continue
		}
		if _, ok := s.layout.MatchName(name, other.Name()); ok {
			return true
		}
	}
	return false
}

// Rebuild repopulates the index from the files already on disk, resolving names
// against the live projects and the current catalog. Files that cannot be
// attributed are returned, relative to the root, and left untouched.
func (s *Store) Rebuild(ctx context.Context, projects []entities.Project, catalog *entities.Catalog) ([]string, error) {
	byDir := make(map[string][]entities.Project)
	for _, p := range projects {
		byDir[p.Dir()] = append(byDir[p.Dir()], p)
	}

	fresh := newIndex()
	var unindexed []string
	suffix := "." + s.layout.ArtifactExt

	err := filepath.WalkDir(s.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}

		rel, err := s.layout.RelPath(path)
		if err != nil {
			return err
		}
		if a, ok := s.resolve(d.Name(), byDir[filepath.Dir(rel)], catalog); ok {
			fresh.add(a)
			return nil
		}
		unindexed = append(unindexed, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to index artifact tree: %w", err)
	}

	s.mu.Lock()
	s.index = fresh
	s.mu.Unlock()
	return unindexed, nil
}

// resolve attributes a file name to the longest-named candidate project it matches.
func (s *Store) resolve(name string, candidates []entities.Project, catalog *entities.Catalog) (entities.Artifact, bool) {
	var best entities.Artifact
	found := false
	for _, project := range candidates {
		tag, ok := s.layout.MatchName(name, project.Name())
		if !ok {
			continue
		}
		perm := values.Vanilla()
		if tag != "" {
			if perm, ok = services.ResolveTag(tag, catalog); !ok {
				continue
			}
		}
		if found && len(project.Name()) <= len(best.Project.Name()) {
			continue
		}
		best = s.layout.Artifact(project, perm)
		found = true
	}
	return best, found
}

func removeFile(path string) error {
	err := os.Remove(path)
	switch {
	case err == nil:
		slog.Info("deleted artifact", "path", path)
		return nil
	case os.IsNotExist(err):
		return nil
	default:
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
}
