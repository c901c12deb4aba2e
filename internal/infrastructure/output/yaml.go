package output

import (
	"io"

	"github.com/goccy/go-yaml"
	"github.com/reglet-dev/autoslice/internal/application/dto"
)

// YAMLFormatter formats results as YAML.
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// FormatPlan writes the plan as YAML.
func (f *YAMLFormatter) FormatPlan(plan *dto.PlanResponse) error {
	return f.encode(plan)
}

// FormatRegenerate writes the regeneration report as YAML.
func (f *YAMLFormatter) FormatRegenerate(result *dto.RegenerateResponse) error {
	return f.encode(result)
}

func (f *YAMLFormatter) encode(v any) error {
	encoder := yaml.NewEncoder(f.writer, yaml.Indent(2))

	if err := encoder.Encode(v); err != nil {
		return err
	}

	return encoder.Close()
}
