package scrub

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestMapRow(t *testing.T) {
	schema := Schema{Phones: 1, Emails: 1}
	fields := schema.Fields()

	raw := RawRow{
		"fname":  "  Jo ",
		"street": " 1 Elm St ",
		"city":   "",
		"state":  " TX",
		"zip":    "75001 ",
		"phone":  "555-1111",
	}

	mapping := Mapping{
		"First Name":       Single("fname"),
		"Phone":            Single("phone"),
		"Email":            Single("missing_column"),
		"Property Address": Merge("street", "city", "state", "zip"),
	}

	got := MapRow(raw, mapping, fields)

	want := Record{
		"First Name":       "Jo",
		"Last Name":        "",
		"Phone":            "555-1111",
		"Email":            "",
		"Property Address": "1 Elm St, TX, 75001",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MapRow() = %v, want %v", got, want)
	}

	for _, f := range fields {
		if _, ok := got[f]; !ok {
			t.Errorf("field %q missing from output", f)
		}
	}
}

func TestMapRow_MergeAllEmpty(t *testing.T) {
	raw := RawRow{"a": "  ", "b": ""}
	got := MapRow(raw, Mapping{"Property Address": Merge("a", "b", "c")}, []string{"Property Address"})
	if got["Property Address"] != "" {
		t.Errorf("merge of empty values = %q, want empty", got["Property Address"])
	}
}

func TestMapRow_MergeIdempotent(t *testing.T) {
	raw := RawRow{"a": " 1 Elm ", "b": "", "c": "Austin"}
	fields := []string{"Property Address"}
	mapping := Mapping{"Property Address": Merge("a", "b", "c")}

	first := MapRow(raw, mapping, fields)
	again := MapRow(RawRow{"x": first["Property Address"]}, Mapping{"Property Address": Merge("x")}, fields)

	if first["Property Address"] != "1 Elm, Austin" {
		t.Fatalf("merged = %q, want %q", first["Property Address"], "1 Elm, Austin")
	}
	if again["Property Address"] != first["Property Address"] {
		t.Errorf("re-normalized = %q, want %q", again["Property Address"], first["Property Address"])
	}
}

func TestFieldMapping_JSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind MappingKind
		wantCols []string
	}{
		{"empty string", `""`, MappingUnmapped, nil},
		{"null", `null`, MappingUnmapped, nil},
		{"single", `"Phone Number"`, MappingSingle, []string{"Phone Number"}},
		{"merge", `["Street","City"]`, MappingMerge, []string{"Street", "City"}},
		{"empty list", `[]`, MappingUnmapped, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fm FieldMapping
			if err := json.Unmarshal([]byte(tt.input), &fm); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.input, err)
			}
			if fm.Kind() != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", fm.Kind(), tt.wantKind)
			}
			if len(fm.Columns()) != len(tt.wantCols) {
				t.Fatalf("Columns() = %v, want %v", fm.Columns(), tt.wantCols)
			}
			for i := range tt.wantCols {
				if fm.Columns()[i] != tt.wantCols[i] {
					t.Errorf("Columns()[%d] = %q, want %q", i, fm.Columns()[i], tt.wantCols[i])
				}
			}
		})
	}
}

func TestMapping_CompleteAndIsMapped(t *testing.T) {
	fields := []string{"First Name", "Last Name", "Phone"}
	m := Mapping{"First Name": Single("first")}.Complete(fields)

	if len(m) != len(fields) {
		t.Fatalf("Complete() has %d entries, want %d", len(m), len(fields))
	}
	if !m.IsMapped("First Name") {
		t.Error("First Name should be mapped")
	}
	if m.IsMapped("Phone") {
		t.Error("Phone should be unmapped")
	}

	got := m.UnmappedFields(fields)
	want := []string{"Last Name", "Phone"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UnmappedFields() = %v, want %v", got, want)
	}
}
