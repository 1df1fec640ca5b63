package model

import "sort"

// IndicatorRegistry indexes indicator mappings by code.
type IndicatorRegistry struct {
	mappings []IndicatorMapping
	byCode   map[string]IndicatorMapping
}

// NewIndicatorRegistry builds a registry from mappings. Later entries with a
// duplicate code replace earlier ones.
func NewIndicatorRegistry(mappings []IndicatorMapping) *IndicatorRegistry {
	r := &IndicatorRegistry{byCode: make(map[string]IndicatorMapping, len(mappings))}
	for _, m := range mappings {
		if _, seen := r.byCode[m.Code]; !seen {
			r.mappings = append(r.mappings, m)
		} else {
			for i := range r.mappings {
				if r.mappings[i].Code == m.Code {
					r.mappings[i] = m
					break
				}
			}
		}
		r.byCode[m.Code] = m
	}
	return r
}

// Lookup returns the mapping for a code.
func (r *IndicatorRegistry) Lookup(code string) (IndicatorMapping, bool) {
	m, ok := r.byCode[code]
	return m, ok
}

// Active returns the active mappings in registry order.
func (r *IndicatorRegistry) Active() []IndicatorMapping {
	var out []IndicatorMapping
	for _, m := range r.mappings {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}

// Codes returns all registered codes, sorted.
func (r *IndicatorRegistry) Codes() []string {
	codes := make([]string, 0, len(r.byCode))
	for c := range r.byCode {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Len reports the number of distinct codes.
func (r *IndicatorRegistry) Len() int {
	return len(r.byCode)
}
