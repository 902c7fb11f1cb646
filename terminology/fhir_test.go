package terminology

import (
	"encoding/json"
	"testing"

	"github.com/gofhir/fhir/r4"
)

func TestFieldURL(t *testing.T) {
	if got := FieldFromURL(FieldURL("BODY_TYPE")); got != "BODY_TYPE" {
		t.Errorf("round trip = %q; want BODY_TYPE", got)
	}
	if got := FieldFromURL("http://example.org/CodeSystem/STATUS"); got != "STATUS" {
		t.Errorf("FieldFromURL() = %q; want STATUS", got)
	}
}

func TestFromCodeSystems(t *testing.T) {
	url := "http://example.org/CodeSystem/STATUS"
	ok, okDisplay := "OK", "Operational"
	down := "DOWN"
	partial := "PARTIAL"

	cs := &r4.CodeSystem{
		Url: &url,
		Concept: []r4.CodeSystemConcept{
			{Code: &ok, Display: &okDisplay},
			{
				Code:    &down,
				Concept: []r4.CodeSystemConcept{{Code: &partial}},
			},
		},
	}

	s, err := FromCodeSystems([]*r4.CodeSystem{cs, nil})
	if err != nil {
		t.Fatalf("FromCodeSystems() error = %v", err)
	}
	if s.Size() != 3 {
		t.Errorf("Size() = %d; want 3", s.Size())
	}
	if !s.Contains("STATUS", "PARTIAL") {
		t.Error("nested concept should be registered")
	}
	if desc, _ := s.Description("STATUS", "OK"); desc != "Operational" {
		t.Errorf("Description() = %q", desc)
	}
}

func TestFromCodeSystems_Empty(t *testing.T) {
	if _, err := FromCodeSystems(nil); err == nil {
		t.Error("expected error for no CodeSystems")
	}
}

func TestSnapshot_CodeSystemsRoundTrip(t *testing.T) {
	s, _ := NewSnapshot(sampleCodes())

	systems := s.CodeSystems()
	if len(systems) != 2 {
		t.Fatalf("len(CodeSystems()) = %d; want 2", len(systems))
	}
	if *systems[0].Url != FieldURL("BODY_TYPE") {
		t.Errorf("Url = %s", *systems[0].Url)
	}
	if len(systems[1].Concept) != 2 {
		t.Errorf("STATUS concepts = %d; want 2", len(systems[1].Concept))
	}

	data, err := json.Marshal(systems)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded []*r4.CodeSystem
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	back, err := FromCodeSystems(decoded)
	if err != nil {
		t.Fatalf("FromCodeSystems() error = %v", err)
	}
	if back.Size() != s.Size() {
		t.Errorf("Size() after round trip = %d; want %d", back.Size(), s.Size())
	}
	if !back.Contains("BODY_TYPE", "COUPE") {
		t.Error("round trip lost BODY_TYPE/COUPE")
	}
}
