package entities

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Target is a remote distribution sink.
// A nil AllowedPrinters list accepts every artifact.
type Target struct {
	Address         string   `json:"address" yaml:"address"`
	AllowedPrinters []string `json:"allowed_printers,omitempty" yaml:"allowed_printers,omitempty"`
}

// ParseTarget parses "address" or "address[printerA,printerB]".
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("target cannot be empty")
	}

	if !strings.HasSuffix(raw, "]") {
		if strings.Contains(raw, "[") {
			return Target{}, fmt.Errorf("target %q has an unterminated printer list", raw)
		}
		return Target{Address: raw}, nil
	}

	open := strings.LastIndex(raw, "[")
	if open <= 0 {
		return Target{}, fmt.Errorf("target %q has a printer list but no address", raw)
	}

	address := strings.TrimSpace(raw[:open])
	var printers []string
	for _, p := range strings.Split(raw[open+1:len(raw)-1], ",") {
		if p = strings.TrimSpace(p); p != "" {
			printers = append(printers, p)
		}
	}
	if len(printers) == 0 {
		return Target{}, fmt.Errorf("target %q has an empty printer list", raw)
	}

	return Target{Address: address, AllowedPrinters: printers}, nil
}

// ParseTargets parses every raw target, failing on the first invalid entry.
func ParseTargets(raw []string) ([]Target, error) {
	targets := make([]Target, 0, len(raw))
	for _, r := range raw {
		t, err := ParseTarget(r)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// Restricted reports whether the target carries an allow-list.
func (t Target) Restricted() bool {
	return t.AllowedPrinters != nil
}

// Allows reports whether printer is on the allow-list. Unrestricted targets allow everything.
func (t Target) Allows(printer string) bool {
	return !t.Restricted() || slices.Contains(t.AllowedPrinters, printer)
}

// String returns the target in its configuration syntax.
func (t Target) String() string {
	if !t.Restricted() {
		return t.Address
	}
	return t.Address + "[" + strings.Join(t.AllowedPrinters, ",") + "]"
}

// Destination joins the address with a path relative to the artifact root.
// Duplicate slashes in the path part are collapsed; a "host:" prefix is kept.
func (t Target) Destination(relPath string) string {
	joined := strings.TrimSuffix(t.Address, "/") + "/" + filepath.ToSlash(relPath)

	host, path := "", joined
	if i := strings.Index(joined, ":"); i >= 0 && !strings.Contains(joined[:i], "/") {
		host, path = joined[:i+1], joined[i+1:]
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return host + path
}
