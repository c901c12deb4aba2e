package services

import (
	"strings"

	"github.com/reglet-dev/autoslice/internal/domain/entities"
	"github.com/reglet-dev/autoslice/internal/domain/values"
)

// DistributionPolicy configures how allow-listed targets treat untagged artifacts.
type DistributionPolicy struct {
	// IncludeUntagged sends artifacts whose printer slot is None (including the
	// vanilla artifact) to allow-listed targets.
	IncludeUntagged bool
}

// DefaultDistributionPolicy returns the policy used when none is configured.
func DefaultDistributionPolicy() DistributionPolicy {
	return DistributionPolicy{IncludeUntagged: true}
}

// TargetSelector maps artifacts to the targets that accept them.
type TargetSelector struct {
	targets []entities.Target
	policy  DistributionPolicy
}

// NewTargetSelector creates a selector over the configured targets.
func NewTargetSelector(targets []entities.Target, policy DistributionPolicy) *TargetSelector {
	return &TargetSelector{targets: targets, policy: policy}
}

// All returns every configured target.
func (s *TargetSelector) All() []entities.Target {
	return s.targets
}

// Accepts reports whether target should receive the artifact.
func (s *TargetSelector) Accepts(target entities.Target, artifact entities.Artifact) bool {
	if !target.Restricted() {
		return true
	}
	printer := artifact.Printer()
	if printer == values.None {
		return s.policy.IncludeUntagged
	}
	return target.Allows(printer)
}

// Targets returns the subset of targets that accept the artifact, in configuration order.
func (s *TargetSelector) Targets(artifact entities.Artifact) []entities.Target {
	var accepted []entities.Target
	for _, target := range s.targets {
		if s.Accepts(target, artifact) {
			accepted = append(accepted, target)
		}
	}
	return accepted
}

// FilterRules returns the mirror filters for a target so that a deleting mirror
// neither uploads incompatible artifacts nor removes anything it filtered out.
// Unrestricted targets get no filters. Each pattern names a full
// printer-filament-print tag from the catalog, so printers sharing a dashed
// prefix (mk3, mk3-s) never match each other's artifacts.
func (s *TargetSelector) FilterRules(target entities.Target, catalog *entities.Catalog, ext string) []entities.FilterRule {
	if !target.Restricted() {
		return nil
	}

	if !s.policy.IncludeUntagged {
		rules := []entities.FilterRule{{Action: entities.FilterInclude, Pattern: "*/"}}
		for _, printer := range target.AllowedPrinters {
			rules = append(rules, tagRules(entities.FilterInclude, printer, catalog, ext)...)
		}
		return append(rules, entities.FilterRule{Action: entities.FilterExclude, Pattern: "*." + ext})
	}

	var rules []entities.FilterRule
	for _, printer := range catalog.Printers {
		if target.Allows(printer) {
			continue
		}
		rules = append(rules, tagRules(entities.FilterExclude, printer, catalog, ext)...)
	}
	return rules
}

// tagRules returns one rule per filament and print setting combination of printer.
func tagRules(action, printer string, catalog *entities.Catalog, ext string) []entities.FilterRule {
	var rules []entities.FilterRule
	for _, filament := range catalog.Axis(values.CategoryFilament) {
		for _, printSetting := range catalog.Axis(values.CategoryPrintSetting) {
			tag := values.NewPermutation(printer, filament, printSetting).Tag()
			rules = append(rules, entities.FilterRule{
				Action:  action,
				Pattern: "*_" + escapeWildcards(tag) + "." + ext,
			})
		}
	}
	return rules
}

// escapeWildcards quotes the characters rsync treats as pattern syntax.
func escapeWildcards(name string) string {
	return wildcardEscaper.Replace(name)
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`)
