// Package values contains domain value objects that encapsulate
// primitive types with validation and such.
package values

import (
	"fmt"
	"path/filepath"
	"strings"
)

// None marks an empty permutation slot.
const None = "none"

// ProfileCategory identifies which slicer profile directory a profile lives in.
type ProfileCategory string

const (
	// CategoryPrinter is a printer profile (printer/*.ini)
	CategoryPrinter ProfileCategory = "printer"
	// CategoryFilament is a filament profile (filament/*.ini)
	CategoryFilament ProfileCategory = "filament"
	// CategoryPrintSetting is a print-setting profile (print/*.ini)
	CategoryPrintSetting ProfileCategory = "print"
)

// Categories returns the profile categories in permutation slot order.
func Categories() []ProfileCategory {
	return []ProfileCategory{CategoryPrinter, CategoryFilament, CategoryPrintSetting}
}

// ParseProfileCategory converts a directory name into a category.
func ParseProfileCategory(s string) (ProfileCategory, error) {
	switch ProfileCategory(s) {
	case CategoryPrinter, CategoryFilament, CategoryPrintSetting:
		return ProfileCategory(s), nil
	default:
		return "", fmt.Errorf("unknown profile category: %q", s)
	}
}

// Dir returns the subdirectory of the profile root holding this category.
func (c ProfileCategory) Dir() string {
	return string(c)
}

// String returns the string representation
func (c ProfileCategory) String() string {
	return string(c)
}

// ProfileRef is a category-qualified profile identity.
type ProfileRef struct {
	Category ProfileCategory
	Name     string
}

// NewProfileRef creates a ProfileRef with validation
func NewProfileRef(category ProfileCategory, name string) (ProfileRef, error) {
	if _, err := ParseProfileCategory(string(category)); err != nil {
		return ProfileRef{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" || name == None {
		return ProfileRef{}, fmt.Errorf("invalid %s profile name: %q", category, name)
	}
	return ProfileRef{Category: category, Name: name}, nil
}

// ParseProfilePath derives a ProfileRef from a profile file path below root.
// The path must be <root>/<category>/<name><ext>.
func ParseProfilePath(root, path, ext string) (ProfileRef, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ProfileRef{}, fmt.Errorf("profile path %s is not below %s: %w", path, root, err)
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 2 || parts[0] == ".." {
		return ProfileRef{}, fmt.Errorf("profile path %s is not a <category>/<name>%s file", rel, ext)
	}

	category, err := ParseProfileCategory(parts[0])
	if err != nil {
		return ProfileRef{}, err
	}
	if !strings.HasSuffix(parts[1], ext) {
		return ProfileRef{}, fmt.Errorf("profile path %s does not end in %s", rel, ext)
	}

	return NewProfileRef(category, strings.TrimSuffix(parts[1], ext))
}

// String returns "<category>/<name>"
func (r ProfileRef) String() string {
	return string(r.Category) + "/" + r.Name
}

// IsZero returns true if this is the zero value
func (r ProfileRef) IsZero() bool {
	return r.Category == "" && r.Name == ""
}
