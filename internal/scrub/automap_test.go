package scrub

import (
	"reflect"
	"testing"
)

func TestAutoMap_Synonyms(t *testing.T) {
	headers := []string{"FNAME", "Last_Name", "Mobile Phone", "E-Mail Address", "Property Address", "Notes"}
	schema := Schema{Phones: 1, Emails: 1}

	res := AutoMap(headers, schema)

	want := map[string]string{
		"First Name":       "FNAME",
		"Last Name":        "Last_Name",
		"Phone":            "Mobile Phone",
		"Email":            "E-Mail Address",
		"Property Address": "Property Address",
	}
	for field, col := range want {
		fm := res.Mapping[field]
		if fm.Kind() != MappingSingle || fm.Columns()[0] != col {
			t.Errorf("mapping[%q] = %v %v, want single %q", field, fm.Kind(), fm.Columns(), col)
		}
	}
	if res.Mapped != 5 {
		t.Errorf("Mapped = %d, want 5", res.Mapped)
	}
}

func TestAutoMap_PhoneSlotsConsumeInOrder(t *testing.T) {
	headers := []string{"Cell", "Home Phone", "Work Phone", "Email"}
	schema := Schema{Phones: 3, Emails: 1}

	res := AutoMap(headers, schema)

	for i, col := range []string{"Cell", "Home Phone", "Work Phone"} {
		field := schema.PhoneField(i + 1)
		if got := res.Mapping[field].Columns(); len(got) != 1 || got[0] != col {
			t.Errorf("mapping[%q] = %v, want %q", field, got, col)
		}
	}
}

func TestAutoMap_ColumnUsedOnce(t *testing.T) {
	headers := []string{"phone"}
	schema := Schema{Phones: 2, Emails: 1}

	res := AutoMap(headers, schema)

	if !res.Mapping.IsMapped("Phone 1") {
		t.Error("Phone 1 should be mapped")
	}
	if res.Mapping.IsMapped("Phone 2") {
		t.Errorf("Phone 2 should be unmapped, got %v", res.Mapping["Phone 2"].Columns())
	}
}

func TestAutoMap_AddressMerge(t *testing.T) {
	headers := []string{"First", "Street", "City", "State", "Zip"}
	schema := Schema{Phones: 1, Emails: 1}

	res := AutoMap(headers, schema)

	fm := res.Mapping["Property Address"]
	if fm.Kind() != MappingMerge {
		t.Fatalf("Property Address kind = %v, want merge", fm.Kind())
	}
	want := []string{"Street", "City", "State", "Zip"}
	if !reflect.DeepEqual(fm.Columns(), want) {
		t.Errorf("merge columns = %v, want %v", fm.Columns(), want)
	}
}

func TestAutoMap_SingleAddressPartNotMerged(t *testing.T) {
	res := AutoMap([]string{"First", "Zip"}, Schema{Phones: 1, Emails: 1})
	if res.Mapping.IsMapped("Property Address") {
		t.Errorf("Property Address = %v, want unmapped", res.Mapping["Property Address"].Columns())
	}
}

func TestAutoMap_CRMFields(t *testing.T) {
	headers := []string{"Client Name", "stage", "Pipeline", "tag", "Contact_Type"}
	res := AutoMap(headers, Schema{Phones: 1, Emails: 1, CRMFields: true})

	want := map[string]string{
		"Opportunity Name": "Client Name",
		"Stage":            "stage",
		"Pipeline":         "Pipeline",
		"Tags":             "tag",
		"Contact Type":     "Contact_Type",
	}
	for field, col := range want {
		if got := res.Mapping[field].Columns(); len(got) != 1 || got[0] != col {
			t.Errorf("mapping[%q] = %v, want %q", field, got, col)
		}
	}
}
