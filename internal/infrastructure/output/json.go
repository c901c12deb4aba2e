package output

import (
	"encoding/json"
	"io"

	"github.com/reglet-dev/autoslice/internal/application/dto"
)

// JSONFormatter formats results as JSON.
type JSONFormatter struct {
	writer io.Writer
	indent bool
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(w io.Writer, indent bool) *JSONFormatter {
	return &JSONFormatter{writer: w, indent: indent}
}

// FormatPlan writes the plan as JSON.
func (f *JSONFormatter) FormatPlan(plan *dto.PlanResponse) error {
	return f.encode(plan)
}

// FormatRegenerate writes the regeneration report as JSON.
func (f *JSONFormatter) FormatRegenerate(result *dto.RegenerateResponse) error {
	return f.encode(result)
}

func (f *JSONFormatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	if f.indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}
