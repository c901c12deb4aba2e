package values

import "strings"

// Permutation is one (printer, filament, print-setting) combination.
// Any slot may be None; the all-None permutation is the vanilla output.
type Permutation struct {
	Printer      string `json:"printer" yaml:"printer"`
	Filament     string `json:"filament" yaml:"filament"`
	PrintSetting string `json:"print_setting" yaml:"print_setting"`
}

// Vanilla returns the permutation with no profiles applied.
func Vanilla() Permutation {
	return Permutation{Printer: None, Filament: None, PrintSetting: None}
}

// NewPermutation builds a permutation, mapping empty slots to None.
func NewPermutation(printer, filament, printSetting string) Permutation {
	return Permutation{
		Printer:      orNone(printer),
		Filament:     orNone(filament),
		PrintSetting: orNone(printSetting),
	}
}

func orNone(s string) string {
	if s == "" {
		return None
	}
	return s
}

// IsVanilla reports whether every slot is None.
func (p Permutation) IsVanilla() bool {
	return p.Printer == None && p.Filament == None && p.PrintSetting == None
}

// Slot returns the profile name in the slot for category.
func (p Permutation) Slot(category ProfileCategory) string {
	switch category {
	case CategoryPrinter:
		return p.Printer
	case CategoryFilament:
		return p.Filament
	case CategoryPrintSetting:
		return p.PrintSetting
	default:
		return None
	}
}

// References reports whether the permutation applies the given profile.
func (p Permutation) References(ref ProfileRef) bool {
	return ref.Name != None && p.Slot(ref.Category) == ref.Name
}

// Profiles returns the non-None slots as profile references, in slot order.
func (p Permutation) Profiles() []ProfileRef {
	refs := make([]ProfileRef, 0, 3)
	for _, category := range Categories() {
		if name := p.Slot(category); name != None {
			refs = append(refs, ProfileRef{Category: category, Name: name})
		}
	}
	return refs
}

// Tag returns the "<printer>-<filament>-<print>" tag encoded in artifact names.
func (p Permutation) Tag() string {
	return strings.Join([]string{p.Printer, p.Filament, p.PrintSetting}, "-")
}

// String returns the tag, or "vanilla" for the all-None permutation.
func (p Permutation) String() string {
	if p.IsVanilla() {
		return "vanilla"
	}
	return p.Tag()
}
