package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	ev "github.com/uvacab/ev5validator"
)

// Format is an on-disk schema encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Load reads a schema file. The format follows the file extension:
// .yaml and .yml are YAML, everything else is JSON.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}

	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}
	return Parse(data, format)
}

// Parse decodes a block -> field -> column mapping.
//
// A field value is either a column (number or numeric string), which marks
// the field as code-validated, or an object {"column": n, "validate": bool}.
//
//	{
//	  "VEHICLE": {"BODY_TYPE": 3, "MAKE": "4", "VIN": {"column": 2, "validate": false}}
//	}
func Parse(data []byte, format Format) (*Index, error) {
	var raw map[string]map[string]any

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &ev.SchemaError{Reason: "invalid YAML: " + err.Error()}
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, &ev.SchemaError{Reason: "invalid JSON: " + err.Error()}
		}
	}

	def := make(map[string]map[string]FieldDef, len(raw))
	for block, fields := range raw {
		def[block] = make(map[string]FieldDef, len(fields))
		for field, v := range fields {
			fd, err := fieldDef(v)
			if err != nil {
				return nil, &ev.SchemaError{Block: block, Field: field, Reason: err.Error()}
			}
			def[block][field] = fd
		}
	}
	return FromMap(def)
}

func fieldDef(v any) (FieldDef, error) {
	if m, ok := v.(map[string]any); ok {
		col, ok := m["column"]
		if !ok {
			return FieldDef{}, fmt.Errorf("missing column")
		}
		n, err := toColumn(col)
		if err != nil {
			return FieldDef{}, err
		}
		fd := FieldDef{Column: n, Validate: true}
		for _, name := range []string{"validate", "validates"} {
			if flag, ok := m[name]; ok {
				b, ok := flag.(bool)
				if !ok {
					return FieldDef{}, fmt.Errorf("%s must be a boolean", name)
				}
				fd.Validate = b
			}
		}
		return fd, nil
	}

	n, err := toColumn(v)
	if err != nil {
		return FieldDef{}, err
	}
	return FieldDef{Column: n, Validate: true}, nil
}

func toColumn(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		if n > math.MaxInt32 {
			return 0, fmt.Errorf("column %d out of range", n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("column %v is not an integer", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("column %q is not an integer", n.String())
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("column %q is not an integer", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("unsupported column value %v", v)
	}
}
