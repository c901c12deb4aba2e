package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/reglet-dev/autoslice/internal/application/dto"
	"github.com/reglet-dev/autoslice/internal/domain/execution"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// TableFormatter formats results as human-readable text.
type TableFormatter struct {
	writer      io.Writer
	EnableColor bool
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{
		writer:      w,
		EnableColor: true, // Default to true, caller can disable
	}
}

// colorize returns the string wrapped in ANSI color codes if enabled.
func (f *TableFormatter) colorize(text, code string) string {
	if !f.EnableColor {
		return text
	}
	return code + text + colorReset
}

func (f *TableFormatter) rule() string {
	return f.colorize(strings.Repeat("─", 80), colorGray)
}

// FormatPlan writes one line per planned artifact.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatPlan(plan *dto.PlanResponse) error {
	fmt.Fprintf(f.writer, "Project: %s\n", f.colorize(plan.Project, colorBold))
	fmt.Fprintln(f.writer, f.rule())

	if len(plan.Artifacts) == 0 {
		fmt.Fprintln(f.writer, "No artifacts planned.")
		return nil
	}

	width := 0
	for _, a := range plan.Artifacts {
		width = max(width, len(a.Path))
	}

	for _, a := range plan.Artifacts {
		targets := f.colorize("(no targets)", colorGray)
		if len(a.Targets) > 0 {
			targets = f.colorize(strings.Join(a.Targets, ", "), colorCyan)
		}
		fmt.Fprintf(f.writer, "  %-*s  → %s\n", width, a.Path, targets)
	}

	fmt.Fprintln(f.writer, f.rule())
	fmt.Fprintf(f.writer, "%d artifacts\n", len(plan.Artifacts))
	return nil
}

// FormatRegenerate writes a summary of each pass.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatRegenerate(result *dto.RegenerateResponse) error {
	for _, pass := range result.Passes {
		f.formatPass(pass)
	}

	if result.TransferFailures > 0 {
		fmt.Fprintf(f.writer, "  %s Transfer failures: %d\n", f.colorize("⚠", colorYellow), result.TransferFailures)
	}
	return nil
}

//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatPass(pass *execution.PassResult) {
	summary := pass.Summary()

	fmt.Fprintln(f.writer, f.rule())
	fmt.Fprintf(f.writer, "Pass: %s %s\n", f.colorize(string(pass.Kind), colorBold), pass.Subject)
	fmt.Fprintf(f.writer, "Started: %s\n", pass.StartTime.Format(time.RFC3339))
	fmt.Fprintf(f.writer, "Duration: %s\n", pass.Duration.Round(time.Millisecond))
	fmt.Fprintln(f.writer)

	fmt.Fprintf(f.writer, "  %s Produced: %d\n", f.colorize("✓", colorGreen), summary.Produced)
	fmt.Fprintf(f.writer, "  %s Failed:   %d\n", f.colorize("✗", colorRed), summary.Failed)
	fmt.Fprintf(f.writer, "  %s Removed:  %d\n", f.colorize("⊘", colorGray), summary.Removed)

	for _, failed := range pass.Failed {
		fmt.Fprintf(f.writer, "      %s\n", f.colorize(failed, colorRed))
	}
	fmt.Fprintln(f.writer, f.rule())
}
