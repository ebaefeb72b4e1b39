package model

import (
	"regexp"
	"strings"
)

// FieldKind determines how a raw cell value is coerced after extraction
// and which comparison strategy applies to the field.
type FieldKind string

const (
	KindString   FieldKind = "string"
	KindCurrency FieldKind = "currency"
	KindNumeric  FieldKind = "numeric" // currency, then percentage, then integer
	KindPercent  FieldKind = "percent"
	KindInt      FieldKind = "int"
	KindBool     FieldKind = "bool"
	KindDate     FieldKind = "date" // kept as trimmed text, parsed at comparison time
)

// FieldSpec describes how a single quote attribute is located in a
// document grid: the labels that anchor it, regex fallbacks over the
// flattened text, and how its value cells are collected.
type FieldSpec struct {
	Name           string           `json:"name"`
	Labels         []string         `json:"labels"`
	Patterns       []*regexp.Regexp `json:"-"`
	Kind           FieldKind        `json:"kind"`
	AdjacentSearch bool             `json:"adjacent_search"`
	MultiCell      bool             `json:"multi_cell"`
	MatchThreshold float64          `json:"match_threshold,omitempty"` // 0 = registry default
}

// EntityOriented reports whether the field names a company or contract
// entity, which enables the contact-name disambiguation heuristics.
func (s FieldSpec) EntityOriented() bool {
	for _, l := range s.Labels {
		low := strings.ToLower(l)
		if strings.Contains(low, "contract") || strings.Contains(low, "agreement") {
			return true
		}
	}
	return false
}

// FieldRegistry is an indexed, ordered collection of field specs.
// Extraction walks specs in registry order so output is deterministic.
type FieldRegistry struct {
	Specs  []FieldSpec
	byName map[string]*FieldSpec
}

// NewFieldRegistry indexes the given specs by name. Later specs with a
// duplicate name replace earlier ones in the index but keep their slot,
// which is how file-based overrides shadow built-in defaults.
func NewFieldRegistry(specs []FieldSpec) *FieldRegistry {
	r := &FieldRegistry{
		Specs:  specs,
		byName: make(map[string]*FieldSpec, len(specs)),
	}
	for i := range r.Specs {
		r.byName[r.Specs[i].Name] = &r.Specs[i]
	}
	return r
}

// ByName returns the spec for the given field name, or nil.
func (r *FieldRegistry) ByName(name string) *FieldSpec {
	return r.byName[name]
}

// Names returns all field names in registry order.
func (r *FieldRegistry) Names() []string {
	names := make([]string, len(r.Specs))
	for i := range r.Specs {
		names[i] = r.Specs[i].Name
	}
	return names
}
