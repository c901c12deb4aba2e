package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/autoslice/internal/application/dto"
	"github.com/reglet-dev/autoslice/internal/application/ports"
	"github.com/reglet-dev/autoslice/internal/domain/services"
)

// PlanProjectUseCase reports the artifacts a project would produce and where
// they would be sent, without slicing or transferring anything.
type PlanProjectUseCase struct {
	catalog  ports.CatalogSource
	projects ports.ProjectSource
	layout   services.ArtifactLayout
	selector *services.TargetSelector
	planner  *services.PermutationPlanner
	logger   *slog.Logger
}

// NewPlanProjectUseCase creates a new plan use case.
func NewPlanProjectUseCase(
	catalog ports.CatalogSource,
	projects ports.ProjectSource,
	layout services.ArtifactLayout,
	selector *services.TargetSelector,
	logger *slog.Logger,
) *PlanProjectUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanProjectUseCase{
		catalog:  catalog,
		projects: projects,
		layout:   layout,
		selector: selector,
		planner:  services.NewPermutationPlanner(),
		logger:   logger,
	}
}

// Execute builds the plan.
func (uc *PlanProjectUseCase) Execute(ctx context.Context, req dto.PlanRequest) (*dto.PlanResponse, error) {
	project, err := uc.projects.Resolve(req.ProjectPath)
	if err != nil {
		return nil, fmt.Errorf("not a project: %w", err)
	}

	catalog, err := uc.catalog.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	uc.logger.Debug("planning project", "project", project.RelPath, "printers", len(catalog.Printers))

	perms := uc.planner.Plan(project, catalog)
	resp := &dto.PlanResponse{
		Project:   project.RelPath,
		Artifacts: make([]dto.PlannedArtifact, 0, len(perms)),
	}
	for _, a := range uc.layout.Artifacts(project, perms) {
		planned := dto.PlannedArtifact{
			Path:         a.RelPath,
			Printer:      a.Permutation.Printer,
			Filament:     a.Permutation.Filament,
			PrintSetting: a.Permutation.PrintSetting,
		}
		for _, target := range uc.selector.Targets(a) {
			planned.Targets = append(planned.Targets, target.Address)
		}
		resp.Artifacts = append(resp.Artifacts, planned)
	}
	return resp, nil
}
