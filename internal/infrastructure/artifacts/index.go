package artifacts

import (
	"sort"

	"github.com/reglet-dev/autoslice/internal/domain/entities"
	"github.com/reglet-dev/autoslice/internal/domain/values"
)

type idSet map[string]struct{}

// index maps profiles and projects to the artifacts derived from them.
// It is not safe for concurrent use; Store guards it.
type index struct {
	byID      map[string]entities.Artifact
	byProfile map[values.ProfileRef]idSet
	byProject map[string]idSet
}

func newIndex() *index {
	return &index{
		byID:      make(map[string]entities.Artifact),
		byProfile: make(map[values.ProfileRef]idSet),
		byProject: make(map[string]idSet),
	}
}

func (ix *index) add(a entities.Artifact) {
	id := a.ID()
	if _, exists := ix.byID[id]; exists {
		ix.remove(id)
	}
	ix.byID[id] = a

	for _, ref := range a.Permutation.Profiles() {
		set, ok := ix.byProfile[ref]
		if !ok {
			set = make(idSet)
			ix.byProfile[ref] = set
		}
		set[id] = struct{}{}
	}

	project := a.Project.RelPath
	set, ok := ix.byProject[project]
	if !ok {
		set = make(idSet)
		ix.byProject[project] = set
	}
	set[id] = struct{}{}
}

func (ix *index) remove(id string) (entities.Artifact, bool) {
	a, ok := ix.byID[id]
	if !ok {
		return entities.Artifact{}, false
	}
	delete(ix.byID, id)

	for _, ref := range a.Permutation.Profiles() {
		if set, ok := ix.byProfile[ref]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(ix.byProfile, ref)
			}
		}
	}

	project := a.Project.RelPath
	if set, ok := ix.byProject[project]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(ix.byProject, project)
		}
	}
	return a, true
}

func (ix *index) forProfile(ref values.ProfileRef) []entities.Artifact {
	return ix.collect(ix.byProfile[ref])
}

func (ix *index) forProject(relPath string) []entities.Artifact {
	return ix.collect(ix.byProject[relPath])
}

func (ix *index) projects() []entities.Project {
	projects := make([]entities.Project, 0, len(ix.byProject))
	for _, set := range ix.byProject {
		for id := range set {
			projects = append(projects, ix.byID[id].Project)
			break
		}
	}
	return projects
}

func (ix *index) all() []entities.Artifact {
	artifacts := make([]entities.Artifact, 0, len(ix.byID))
	for _, a := range ix.byID {
		artifacts = append(artifacts, a)
	}
	sortArtifacts(artifacts)
	return artifacts
}

func (ix *index) collect(set idSet) []entities.Artifact {
	artifacts := make([]entities.Artifact, 0, len(set))
	for id := range set {
		artifacts = append(artifacts, ix.byID[id])
	}
	sortArtifacts(artifacts)
	return artifacts
}

func sortArtifacts(artifacts []entities.Artifact) {
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].RelPath < artifacts[j].RelPath
	})
}
