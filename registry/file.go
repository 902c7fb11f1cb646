package registry

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofhir/fhir/r4"

	ev "github.com/uvacab/ev5validator"
	"github.com/uvacab/ev5validator/terminology"
)

// FileSource reads the registry from a local file. Accepted contents:
//   - the registry JSON response ({"results": [...]})
//   - an R4 CodeSystem, or a JSON array of them, one per field
//   - a valid-codes CSV with a CodeName,Code,Description header
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file path.
func (s *FileSource) Path() string {
	return s.path
}

// Ping checks that the file exists and is a regular file.
func (s *FileSource) Ping(_ context.Context) error {
	info, err := os.Stat(s.path)
	if err != nil {
		return &PingError{Reason: "registry file not readable", Err: err}
	}
	if info.IsDir() {
		return &PingError{Reason: fmt.Sprintf("%s is a directory", s.path)}
	}
	return nil
}

// Fetch reads and decodes the file.
func (s *FileSource) Fetch(_ context.Context) ([]ev.RegistryCode, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &ev.FileAccessError{Path: s.path, Err: err}
	}
	if strings.EqualFold(filepath.Ext(s.path), ".csv") {
		return decodeCSV(bytes.NewReader(data))
	}
	return Decode(data)
}

// Decode parses registry JSON in any of the forms FileSource accepts.
func Decode(data []byte) ([]ev.RegistryCode, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &ev.RegistryError{Index: -1, Reason: "empty registry document"}
	}

	if data[0] == '[' {
		var systems []*r4.CodeSystem
		if err := json.Unmarshal(data, &systems); err != nil {
			return nil, &ev.RegistryError{Index: -1, Reason: fmt.Sprintf("decode CodeSystem list: %v", err)}
		}
		return terminology.CodesFromCodeSystems(systems), nil
	}

	var probe struct {
		ResourceType string          `json:"resourceType"`
		Results      json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &ev.RegistryError{Index: -1, Reason: fmt.Sprintf("decode registry document: %v", err)}
	}

	switch {
	case probe.ResourceType == "CodeSystem":
		var cs r4.CodeSystem
		if err := json.Unmarshal(data, &cs); err != nil {
			return nil, &ev.RegistryError{Index: -1, Reason: fmt.Sprintf("decode CodeSystem: %v", err)}
		}
		return terminology.CodesFromCodeSystems([]*r4.CodeSystem{&cs}), nil
	case probe.Results != nil:
		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, &ev.RegistryError{Index: -1, Reason: fmt.Sprintf("decode results: %v", err)}
		}
		return resp.Results, nil
	default:
		return nil, &ev.RegistryError{Index: -1, Reason: "unrecognized registry document"}
	}
}

func decodeCSV(r io.Reader) ([]ev.RegistryCode, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, &ev.RegistryError{Index: -1, Reason: fmt.Sprintf("read CSV header: %v", err)}
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	fieldCol, okField := cols["codename"]
	codeCol, okCode := cols["code"]
	descCol, okDesc := cols["description"]
	if !okField || !okCode {
		return nil, &ev.RegistryError{Index: -1, Reason: "CSV header must contain CodeName and Code"}
	}

	var out []ev.RegistryCode
	for i := 0; ; i++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ev.RegistryError{Index: i, Reason: err.Error()}
		}
		rc := ev.RegistryCode{Field: column(rec, fieldCol), Code: column(rec, codeCol)}
		if okDesc {
			rc.Description = column(rec, descCol)
		}
		out = append(out, rc)
	}
	return out, nil
}

func column(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

var _ Source = (*FileSource)(nil)
