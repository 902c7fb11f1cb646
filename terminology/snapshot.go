package terminology

import (
	"fmt"
	"sort"
	"strings"

	ev "github.com/uvacab/ev5validator"
	"github.com/uvacab/ev5validator/cache"
)

// Snapshot is an immutable, queryable set of registry codes.
// It is safe for concurrent use.
//
// Duplicate (field, code) pairs collapse to the first occurrence; later
// descriptions are ignored and counted in Duplicates.
type Snapshot struct {
	fields     map[string]map[string]string // field -> code -> description
	rows       []ev.RegistryCode            // sorted by field, then code
	duplicates int
	fold       bool

	expected *cache.LRU[string, string]
}

// SnapshotOption configures a Snapshot.
type SnapshotOption func(*snapshotConfig)

type snapshotConfig struct {
	fold          bool
	expectedCache int
}

// WithCaseFold makes field and code matching case-insensitive by storing
// and querying upper-cased keys.
func WithCaseFold() SnapshotOption {
	return func(c *snapshotConfig) {
		c.fold = true
	}
}

// WithExpectedCacheSize sets how many joined expected-code lists are kept.
func WithExpectedCacheSize(size int) SnapshotOption {
	return func(c *snapshotConfig) {
		if size > 0 {
			c.expectedCache = size
		}
	}
}

// NewSnapshot builds a Snapshot from raw registry triples. Fields, codes and
// descriptions are trimmed. It fails with *ev.RegistryError when codes is
// empty or an entry has no field name or no code.
func NewSnapshot(codes []ev.RegistryCode, opts ...SnapshotOption) (*Snapshot, error) {
	cfg := snapshotConfig{expectedCache: 256}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(codes) == 0 {
		return nil, &ev.RegistryError{Index: -1, Reason: "no codes returned"}
	}

	s := &Snapshot{
		fields:   make(map[string]map[string]string),
		fold:     cfg.fold,
		expected: cache.New[string, string](cfg.expectedCache),
	}

	for i, c := range codes {
		field := s.normalize(c.Field)
		code := s.normalize(c.Code)
		switch {
		case field == "":
			return nil, &ev.RegistryError{Index: i, Reason: "missing field name"}
		case code == "":
			return nil, &ev.RegistryError{Index: i, Reason: fmt.Sprintf("missing code for field %q", field)}
		}

		byCode, ok := s.fields[field]
		if !ok {
			byCode = make(map[string]string)
			s.fields[field] = byCode
		}
		if _, dup := byCode[code]; dup {
			s.duplicates++
			continue
		}
		desc := strings.TrimSpace(c.Description)
		byCode[code] = desc
		s.rows = append(s.rows, ev.RegistryCode{Field: field, Code: code, Description: desc})
	}

	sort.Slice(s.rows, func(a, b int) bool {
		if s.rows[a].Field != s.rows[b].Field {
			return s.rows[a].Field < s.rows[b].Field
		}
		return s.rows[a].Code < s.rows[b].Code
	})
	return s, nil
}

func (s *Snapshot) normalize(v string) string {
	v = strings.TrimSpace(v)
	if s.fold {
		v = strings.ToUpper(v)
	}
	return v
}

// Contains reports whether code is registered for field.
func (s *Snapshot) Contains(field, code string) bool {
	byCode, ok := s.fields[s.normalize(field)]
	if !ok {
		return false
	}
	_, ok = byCode[s.normalize(code)]
	return ok
}

// HasField reports whether the registry has any code for field.
func (s *Snapshot) HasField(field string) bool {
	_, ok := s.fields[s.normalize(field)]
	return ok
}

// Description returns the description registered for (field, code).
func (s *Snapshot) Description(field, code string) (string, bool) {
	byCode, ok := s.fields[s.normalize(field)]
	if !ok {
		return "", false
	}
	desc, ok := byCode[s.normalize(code)]
	return desc, ok
}

// Size returns the number of distinct (field, code) pairs.
func (s *Snapshot) Size() int {
	return len(s.rows)
}

// Duplicates returns how many input entries repeated an earlier pair.
func (s *Snapshot) Duplicates() int {
	return s.duplicates
}

// CaseFolded reports whether the snapshot matches case-insensitively.
func (s *Snapshot) CaseFolded() bool {
	return s.fold
}

// Rows returns all codes sorted by field, then code.
func (s *Snapshot) Rows() []ev.RegistryCode {
	out := make([]ev.RegistryCode, len(s.rows))
	copy(out, s.rows)
	return out
}

// Fields returns the registered field names in sorted order.
func (s *Snapshot) Fields() []string {
	out := make([]string, 0, len(s.fields))
	for f := range s.fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Codes returns the sorted codes of field.
func (s *Snapshot) Codes(field string) []string {
	byCode := s.fields[s.normalize(field)]
	out := make([]string, 0, len(byCode))
	for c := range byCode {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ExpectedCodes returns the sorted codes of field joined with ", ".
// Results are memoized; unknown fields yield "".
func (s *Snapshot) ExpectedCodes(field string) string {
	field = s.normalize(field)
	return s.expected.GetOrCompute(field, func() string {
		return strings.Join(s.Codes(field), ", ")
	})
}

// CacheStats returns statistics of the expected-codes memo.
func (s *Snapshot) CacheStats() cache.Stats {
	return s.expected.Stats()
}
