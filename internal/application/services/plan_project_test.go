package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/reglet-dev/autoslice/internal/application/dto"
	"github.com/reglet-dev/autoslice/internal/domain/entities"
	"github.com/reglet-dev/autoslice/internal/domain/services"
	"github.com/reglet-dev/autoslice/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCatalog struct {
	catalog *entities.Catalog
	err     error
}

func (s staticCatalog) Load(context.Context) (*entities.Catalog, error) {
	return s.catalog, s.err
}

func (s staticCatalog) ProfileFile(ref values.ProfileRef) string {
	return filepath.Join("/profiles", ref.Category.Dir(), ref.Name+".ini")
}

func TestPlanProjectUseCase_Execute(t *testing.T) {
	catalog := staticCatalog{catalog: entities.NewCatalog([]string{"mk3", "mk4"}, []string{"pla"}, nil)}
	targets, err := entities.ParseTargets([]string{"pi@mk3:/w[mk3]", "nas:/all"})
	require.NoError(t, err)

	uc := NewPlanProjectUseCase(
		catalog,
		staticProjects{root: "/p"},
		services.NewArtifactLayout("/p/gcode", "gcode"),
		services.NewTargetSelector(targets, services.DefaultDistributionPolicy()),
		nil,
	)

	resp, err := uc.Execute(context.Background(), dto.PlanRequest{ProjectPath: "/p/parts/box.3mf"})
	require.NoError(t, err)

	assert.Equal(t, "parts/box.3mf", resp.Project)
	require.Len(t, resp.Artifacts, 3)

	assert.Equal(t, dto.PlannedArtifact{
		Path:         "parts/box.gcode",
		Printer:      values.None,
		Filament:     values.None,
		PrintSetting: values.None,
		Targets:      []string{"pi@mk3:/w", "nas:/all"},
	}, resp.Artifacts[0])
	assert.Equal(t, "parts/box_mk4-pla-none.gcode", resp.Artifacts[2].Path)
	assert.Equal(t, []string{"nas:/all"}, resp.Artifacts[2].Targets)
}

func TestPlanProjectUseCase_Errors(t *testing.T) {
	layout := services.NewArtifactLayout("/p/gcode", "gcode")
	selector := services.NewTargetSelector(nil, services.DefaultDistributionPolicy())

	uc := NewPlanProjectUseCase(staticCatalog{err: errors.New("boom")}, staticProjects{root: "/p"}, layout, selector, nil)

	_, err := uc.Execute(context.Background(), dto.PlanRequest{ProjectPath: "/p/box.stl"})
	assert.ErrorContains(t, err, "not a project")

	_, err = uc.Execute(context.Background(), dto.PlanRequest{ProjectPath: "/p/box.3mf"})
	assert.ErrorContains(t, err, "failed to load profiles")
}
