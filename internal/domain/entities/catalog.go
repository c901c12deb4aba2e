package entities

import (
	"slices"

	"github.com/reglet-dev/autoslice/internal/domain/values"
)

// Catalog is a snapshot of the available slicer profiles.
// It is never mutated after construction; a new catalog replaces the old one wholesale.
type Catalog struct {
	Printers      []string `json:"printers" yaml:"printers"`
	Filaments     []string `json:"filaments" yaml:"filaments"`
	PrintSettings []string `json:"print_settings" yaml:"print_settings"`
}

// NewCatalog creates a catalog with each category sorted for deterministic planning.
func NewCatalog(printers, filaments, printSettings []string) *Catalog {
	return &Catalog{
		Printers:      sortedCopy(printers),
		Filaments:     sortedCopy(filaments),
		PrintSettings: sortedCopy(printSettings),
	}
}

func sortedCopy(in []string) []string {
	out := slices.Clone(in)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Names returns the profile names in one category.
func (c *Catalog) Names(category values.ProfileCategory) []string {
	switch category {
	case values.CategoryPrinter:
		return c.Printers
	case values.CategoryFilament:
		return c.Filaments
	case values.CategoryPrintSetting:
		return c.PrintSettings
	default:
		return nil
	}
}

// Axis returns the planning axis for a category. An empty category
// degenerates to a single None entry, never to zero entries.
func (c *Catalog) Axis(category values.ProfileCategory) []string {
	names := c.Names(category)
	if len(names) == 0 {
		return []string{values.None}
	}
	return names
}

// Contains reports whether the catalog lists the referenced profile.
func (c *Catalog) Contains(ref values.ProfileRef) bool {
	return slices.Contains(c.Names(ref.Category), ref.Name)
}

// IsEmpty reports whether no category has any profile.
func (c *Catalog) IsEmpty() bool {
	return len(c.Printers) == 0 && len(c.Filaments) == 0 && len(c.PrintSettings) == 0
}
