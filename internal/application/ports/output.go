package ports

import (
	"github.com/reglet-dev/autoslice/internal/application/dto"
)

// OutputFormatter formats command results.
type OutputFormatter interface {
	FormatPlan(plan *dto.PlanResponse) error
	FormatRegenerate(result *dto.RegenerateResponse) error
}
