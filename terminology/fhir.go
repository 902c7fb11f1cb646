package terminology

import (
	"strings"

	"github.com/gofhir/fhir/r4"

	ev "github.com/uvacab/ev5validator"
)

// CodeSystemBase prefixes the canonical URL of each field's CodeSystem.
const CodeSystemBase = "urn:ev5:codename:"

// FieldURL returns the canonical CodeSystem URL for field.
func FieldURL(field string) string {
	return CodeSystemBase + field
}

// FieldFromURL recovers the field name from a CodeSystem URL. URLs outside
// CodeSystemBase use their last path segment.
func FieldFromURL(url string) string {
	if strings.HasPrefix(url, CodeSystemBase) {
		return strings.TrimPrefix(url, CodeSystemBase)
	}
	url = strings.TrimRight(url, "/")
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		return url[i+1:]
	}
	return url
}

// CodesFromCodeSystems flattens R4 CodeSystems into registry triples, one
// per concept, nested concepts included. The field name comes from the
// CodeSystem URL.
func CodesFromCodeSystems(systems []*r4.CodeSystem) []ev.RegistryCode {
	var out []ev.RegistryCode
	for _, cs := range systems {
		if cs == nil || cs.Url == nil {
			continue
		}
		out = appendConcepts(out, FieldFromURL(*cs.Url), cs.Concept)
	}
	return out
}

func appendConcepts(out []ev.RegistryCode, field string, concepts []r4.CodeSystemConcept) []ev.RegistryCode {
	for _, c := range concepts {
		if c.Code != nil {
			rc := ev.RegistryCode{Field: field, Code: *c.Code}
			if c.Display != nil {
				rc.Description = *c.Display
			}
			out = append(out, rc)
		}
		if len(c.Concept) > 0 {
			out = appendConcepts(out, field, c.Concept)
		}
	}
	return out
}

// FromCodeSystems builds a Snapshot from R4 CodeSystems.
func FromCodeSystems(systems []*r4.CodeSystem, opts ...SnapshotOption) (*Snapshot, error) {
	return NewSnapshot(CodesFromCodeSystems(systems), opts...)
}

// CodeSystems returns the snapshot as one R4 CodeSystem per field, sorted
// by field, with concepts sorted by code.
func (s *Snapshot) CodeSystems() []*r4.CodeSystem {
	var out []*r4.CodeSystem
	var current *r4.CodeSystem
	var currentField string

	for _, row := range s.rows {
		if current == nil || row.Field != currentField {
			url := FieldURL(row.Field)
			current = &r4.CodeSystem{Url: &url}
			currentField = row.Field
			out = append(out, current)
		}
		code := row.Code
		concept := r4.CodeSystemConcept{Code: &code}
		if row.Description != "" {
			display := row.Description
			concept.Display = &display
		}
		current.Concept = append(current.Concept, concept)
	}
	return out
}
