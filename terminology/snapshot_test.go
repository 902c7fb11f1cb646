package terminology

import (
	"errors"
	"sync"
	"testing"

	ev "github.com/uvacab/ev5validator"
)

func sampleCodes() []ev.RegistryCode {
	return []ev.RegistryCode{
		{Field: "STATUS", Code: "OK", Description: "Operational"},
		{Field: "STATUS", Code: "DOWN", Description: "Out of service"},
		{Field: "BODY_TYPE", Code: "SEDAN", Description: "Sedan"},
		{Field: " BODY_TYPE ", Code: " COUPE ", Description: " Coupe "},
	}
}

func TestNewSnapshot(t *testing.T) {
	s, err := NewSnapshot(sampleCodes())
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}

	if s.Size() != 4 {
		t.Errorf("Size() = %d; want 4", s.Size())
	}

	tests := []struct {
		field, code string
		want        bool
	}{
		{"STATUS", "OK", true},
		{"STATUS", "BAD", false},
		{"BODY_TYPE", "COUPE", true},
		{"STATUS", "ok", false},
		{"COLOR", "RED", false},
	}
	for _, tt := range tests {
		if got := s.Contains(tt.field, tt.code); got != tt.want {
			t.Errorf("Contains(%q, %q) = %v; want %v", tt.field, tt.code, got, tt.want)
		}
	}

	if !s.HasField("STATUS") || s.HasField("COLOR") {
		t.Error("HasField mismatch")
	}

	desc, ok := s.Description("BODY_TYPE", "COUPE")
	if !ok || desc != "Coupe" {
		t.Errorf("Description() = %q, %v; want %q, true", desc, ok, "Coupe")
	}
}

func TestNewSnapshot_Errors(t *testing.T) {
	tests := []struct {
		name  string
		codes []ev.RegistryCode
		index int
	}{
		{"empty", nil, -1},
		{"missing field", []ev.RegistryCode{{Field: "A", Code: "1"}, {Field: " ", Code: "X"}}, 1},
		{"missing code", []ev.RegistryCode{{Field: "A", Code: ""}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSnapshot(tt.codes)
			var re *ev.RegistryError
			if !errors.As(err, &re) {
				t.Fatalf("error = %v; want *ev.RegistryError", err)
			}
			if re.Index != tt.index {
				t.Errorf("Index = %d; want %d", re.Index, tt.index)
			}
		})
	}
}

func TestNewSnapshot_DuplicatesFirstWins(t *testing.T) {
	s, err := NewSnapshot([]ev.RegistryCode{
		{Field: "STATUS", Code: "OK", Description: "first"},
		{Field: "STATUS", Code: "OK", Description: "second"},
	})
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}
	if s.Size() != 1 {
		t.Errorf("Size() = %d; want 1", s.Size())
	}
	if s.Duplicates() != 1 {
		t.Errorf("Duplicates() = %d; want 1", s.Duplicates())
	}
	if desc, _ := s.Description("STATUS", "OK"); desc != "first" {
		t.Errorf("Description() = %q; want %q", desc, "first")
	}
}

func TestSnapshot_CaseFold(t *testing.T) {
	s, err := NewSnapshot([]ev.RegistryCode{{Field: "status", Code: "ok"}}, WithCaseFold())
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}
	if !s.Contains("STATUS", "Ok") {
		t.Error("case-folded snapshot should match regardless of case")
	}
	if !s.CaseFolded() {
		t.Error("CaseFolded() = false")
	}
	if rows := s.Rows(); rows[0].Field != "STATUS" || rows[0].Code != "OK" {
		t.Errorf("Rows() = %+v; want upper-cased", rows)
	}
}

func TestSnapshot_Rows(t *testing.T) {
	s, _ := NewSnapshot(sampleCodes())

	rows := s.Rows()
	want := []string{"BODY_TYPE/COUPE", "BODY_TYPE/SEDAN", "STATUS/DOWN", "STATUS/OK"}
	for i, r := range rows {
		if got := r.Field + "/" + r.Code; got != want[i] {
			t.Errorf("Rows()[%d] = %s; want %s", i, got, want[i])
		}
	}

	rows[0].Code = "MUTATED"
	if s.Rows()[0].Code == "MUTATED" {
		t.Error("Rows() must return a copy")
	}

	if f := s.Fields(); len(f) != 2 || f[0] != "BODY_TYPE" {
		t.Errorf("Fields() = %v", f)
	}
}

func TestSnapshot_ExpectedCodes(t *testing.T) {
	s, _ := NewSnapshot(sampleCodes())

	if got := s.ExpectedCodes("STATUS"); got != "DOWN, OK" {
		t.Errorf("ExpectedCodes(STATUS) = %q; want %q", got, "DOWN, OK")
	}
	s.ExpectedCodes("STATUS")
	if got := s.ExpectedCodes("COLOR"); got != "" {
		t.Errorf("ExpectedCodes(COLOR) = %q; want empty", got)
	}

	stats := s.CacheStats()
	if stats.Hits != 1 || stats.Misses != 2 {
		t.Errorf("hits/misses = %d/%d; want 1/2", stats.Hits, stats.Misses)
	}
}

func TestSnapshot_ConcurrentReads(t *testing.T) {
	s, _ := NewSnapshot(sampleCodes())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if !s.Contains("STATUS", "OK") {
					t.Error("Contains(STATUS, OK) = false")
					return
				}
				_ = s.ExpectedCodes("BODY_TYPE")
			}
		}()
	}
	wg.Wait()
}
