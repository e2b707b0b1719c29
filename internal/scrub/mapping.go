package scrub

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RawRow is one parsed input line keyed by source column name.
// Ragged rows may lack keys.
type RawRow map[string]string

// Record is a canonical row at the textual boundary: every schema field is present.
type Record map[string]string

// MappingKind discriminates FieldMapping.
type MappingKind int

const (
	MappingUnmapped MappingKind = iota
	MappingSingle
	MappingMerge
)

func (k MappingKind) String() string {
	switch k {
	case MappingSingle:
		return "single"
	case MappingMerge:
		return "merge"
	default:
		return "unmapped"
	}
}

// FieldMapping resolves one target field: unmapped, a single source column,
// or an ordered list of columns merged with ", ".
type FieldMapping struct {
	kind    MappingKind
	columns []string
}

// Unmapped returns the explicit no-mapping marker.
func Unmapped() FieldMapping { return FieldMapping{} }

// Single maps a target field to one source column. An empty name is Unmapped.
func Single(column string) FieldMapping {
	if column == "" {
		return Unmapped()
	}
	return FieldMapping{kind: MappingSingle, columns: []string{column}}
}

// Merge maps a target field to several source columns, joined in order.
// Empty column names are dropped; no columns at all is Unmapped.
func Merge(columns ...string) FieldMapping {
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		if c != "" {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return Unmapped()
	}
	return FieldMapping{kind: MappingMerge, columns: cols}
}

func (m FieldMapping) Kind() MappingKind { return m.kind }

// Columns returns a copy of the source columns in merge order.
func (m FieldMapping) Columns() []string {
	return append([]string(nil), m.columns...)
}

func (m FieldMapping) IsMapped() bool { return m.kind != MappingUnmapped }

// Uses reports whether column is one of this mapping's sources.
func (m FieldMapping) Uses(column string) bool {
	for _, c := range m.columns {
		if c == column {
			return true
		}
	}
	return false
}

// Resolve computes the field value from a raw row.
func (m FieldMapping) Resolve(raw RawRow) string {
	switch m.kind {
	case MappingSingle:
		return strings.TrimSpace(raw[m.columns[0]])
	case MappingMerge:
		parts := make([]string, 0, len(m.columns))
		for _, c := range m.columns {
			if v := strings.TrimSpace(raw[c]); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// MarshalJSON encodes "" for unmapped, "col" for single and ["a","b"] for merge.
func (m FieldMapping) MarshalJSON() ([]byte, error) {
	switch m.kind {
	case MappingSingle:
		return json.Marshal(m.columns[0])
	case MappingMerge:
		return json.Marshal(m.columns)
	default:
		return []byte(`""`), nil
	}
}

func (m *FieldMapping) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*m = Unmapped()
		return nil
	case strings.HasPrefix(trimmed, "["):
		var cols []string
		if err := json.Unmarshal(data, &cols); err != nil {
			return fmt.Errorf("decode merge mapping: %w", err)
		}
		*m = Merge(cols...)
		return nil
	default:
		var col string
		if err := json.Unmarshal(data, &col); err != nil {
			return fmt.Errorf("decode field mapping: %w", err)
		}
		*m = Single(col)
		return nil
	}
}

// Mapping assigns a FieldMapping to each target field.
type Mapping map[string]FieldMapping

// Complete returns a copy containing an entry for every schema field,
// inserting Unmapped for fields the mapping does not mention.
func (m Mapping) Complete(fields []string) Mapping {
	out := make(Mapping, len(fields))
	for _, f := range fields {
		out[f] = m[f]
	}
	return out
}

// IsMapped distinguishes an unmapped field from one mapped to an empty column.
func (m Mapping) IsMapped(field string) bool {
	return m[field].IsMapped()
}

// UnmappedFields lists fields that resolve to nothing, in field order.
func (m Mapping) UnmappedFields(fields []string) []string {
	var out []string
	for _, f := range fields {
		if !m.IsMapped(f) {
			out = append(out, f)
		}
	}
	return out
}

// UsedColumns returns the set of source columns consumed by any field.
func (m Mapping) UsedColumns() map[string]bool {
	used := make(map[string]bool)
	for _, fm := range m {
		for _, c := range fm.columns {
			used[c] = true
		}
	}
	return used
}

// MapRow resolves every target field from raw. It never fails: unmapped
// fields and absent source columns resolve to "".
func MapRow(raw RawRow, mapping Mapping, fields []string) Record {
	rec := make(Record, len(fields))
	for _, f := range fields {
		rec[f] = mapping[f].Resolve(raw)
	}
	return rec
}
