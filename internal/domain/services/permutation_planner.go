package services

import (
	"github.com/reglet-dev/autoslice/internal/domain/entities"
	"github.com/reglet-dev/autoslice/internal/domain/values"
)

// PermutationPlanner enumerates the outputs a project needs for a catalog.
// Planning is pure: no I/O beyond the catalog snapshot it is given.
type PermutationPlanner struct{}

// NewPermutationPlanner creates a new permutation planner.
func NewPermutationPlanner() *PermutationPlanner {
	return &PermutationPlanner{}
}

// Plan returns every permutation the project needs. The vanilla permutation
// is always first, followed by printers × filaments × print-settings in catalog order.
// An empty category contributes a single None entry to its axis.
func (p *PermutationPlanner) Plan(_ entities.Project, catalog *entities.Catalog) []values.Permutation {
	printers := catalog.Axis(values.CategoryPrinter)
	filaments := catalog.Axis(values.CategoryFilament)
	printSettings := catalog.Axis(values.CategoryPrintSetting)

	perms := make([]values.Permutation, 0, 1+len(printers)*len(filaments)*len(printSettings))
	perms = append(perms, values.Vanilla())

	for _, printer := range printers {
		for _, filament := range filaments {
			for _, printSetting := range printSettings {
				perm := values.NewPermutation(printer, filament, printSetting)
				if perm.IsVanilla() {
					continue
				}
				perms = append(perms, perm)
			}
		}
	}

	return perms
}

// PlanForProfile returns only the planned permutations that apply ref.
func (p *PermutationPlanner) PlanForProfile(project entities.Project, catalog *entities.Catalog, ref values.ProfileRef) []values.Permutation {
	var perms []values.Permutation
	for _, perm := range p.Plan(project, catalog) {
		if perm.References(ref) {
			perms = append(perms, perm)
		}
	}
	return perms
}
