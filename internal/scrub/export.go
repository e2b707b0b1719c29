package scrub

import (
	"io"
	"strings"
)

// exportPhoneDetails are the per-slot columns added under the prison tier.
var exportPhoneDetails = []string{PhoneSuffixType, PhoneSuffixCarrier}

// ExportFields returns the CSV column order. It depends only on the slot
// counts, the tier and whether CRM fields are included.
func ExportFields(schema Schema, tier Tier, includeCRM bool) []string {
	fields := []string{FieldFirstName, FieldLastName}
	for _, slot := range schema.PhoneFields() {
		fields = append(fields, slot)
		if tier == TierPrison {
			for _, suffix := range exportPhoneDetails {
				fields = append(fields, PhoneDetailField(slot, suffix))
			}
		}
	}
	fields = append(fields, schema.EmailFields()...)
	fields = append(fields, FieldPropertyAddress)
	if includeCRM {
		fields = append(fields, CRMFields...)
	}
	return fields
}

// EscapeField quotes a value only when it contains a comma, a double quote
// or a newline, doubling any internal quotes. encoding/csv also quotes
// values with leading spaces or a carriage return, which would change the
// bytes of an otherwise plain field.
func EscapeField(v string) string {
	if !strings.ContainsAny(v, ",\"\n") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// ToCSV renders rows as CSV text with lines joined by "\n" and no trailing newline.
func ToCSV(rows []CleanedRow, schema Schema, tier Tier, includeCRM bool) string {
	var b strings.Builder
	_ = WriteCSV(&b, rows, schema, tier, includeCRM)
	return b.String()
}

// WriteCSV streams the same bytes ToCSV returns.
func WriteCSV(w io.Writer, rows []CleanedRow, schema Schema, tier Tier, includeCRM bool) error {
	fields := ExportFields(schema, tier, includeCRM)

	if err := writeLine(w, fields); err != nil {
		return err
	}

	values := make([]string, len(fields))
	for _, r := range rows {
		for i, f := range fields {
			values[i] = r.Value(f)
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		if err := writeLine(w, values); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w io.Writer, values []string) error {
	for i, v := range values {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, EscapeField(v)); err != nil {
			return err
		}
	}
	return nil
}
