package scrub

import "strings"

// Sentinel detail values written to phone slots.
const (
	DetailUnknown = "unknown"
	DetailNA      = "N/A"
	DetailYes     = "Yes"
	DetailNo      = "No"

	StatusInvalid = "INVALID"
	StatusError   = "ERROR"
)

// PhoneSlot is one phone number plus its lookup details. Details stay empty
// under the basic tier.
type PhoneSlot struct {
	Number  string `json:"number"`
	Type    string `json:"type,omitempty"`
	Carrier string `json:"carrier,omitempty"`
	Status  string `json:"status,omitempty"`
	Ported  string `json:"ported,omitempty"`
	Roaming string `json:"roaming,omitempty"`
}

// CleanedRow is a canonical row plus derived flags.
type CleanedRow struct {
	FirstName       string      `json:"firstName"`
	LastName        string      `json:"lastName"`
	Phones          []PhoneSlot `json:"phones"`
	Emails          []string    `json:"emails"`
	PropertyAddress string      `json:"propertyAddress"`
	ContactType     string      `json:"contactType,omitempty"`
	OpportunityName string      `json:"opportunityName,omitempty"`
	Stage           string      `json:"stage,omitempty"`
	Pipeline        string      `json:"pipeline,omitempty"`
	Tags            string      `json:"tags,omitempty"`

	MissingPhone bool `json:"missingPhone"`
	// DuplicateAddress is exported as "Duplicate Phone" but keyed on the
	// normalized property address.
	DuplicateAddress bool `json:"duplicatePhone"`
	PhoneValid       bool `json:"phoneValid"`
	EmailValid       bool `json:"emailValid"`

	schema Schema
}

// NewCleanedRow builds a typed row from a mapped record.
func NewCleanedRow(rec Record, schema Schema) CleanedRow {
	row := CleanedRow{
		FirstName:       rec[FieldFirstName],
		LastName:        rec[FieldLastName],
		PropertyAddress: rec[FieldPropertyAddress],
		Phones:          make([]PhoneSlot, schema.Phones),
		Emails:          make([]string, schema.Emails),
		schema:          schema,
	}
	for i := range row.Phones {
		row.Phones[i].Number = rec[schema.PhoneField(i+1)]
	}
	for i := range row.Emails {
		row.Emails[i] = rec[schema.EmailField(i+1)]
	}
	if schema.CRMFields {
		row.ContactType = rec[FieldContactType]
		row.OpportunityName = rec[FieldOpportunityName]
		row.Stage = rec[FieldStage]
		row.Pipeline = rec[FieldPipeline]
		row.Tags = rec[FieldTags]
	}
	return row
}

func (r CleanedRow) Schema() Schema { return r.schema }

// PhoneNumbers returns the non-empty phone values in slot order.
func (r CleanedRow) PhoneNumbers() []string {
	var out []string
	for _, p := range r.Phones {
		if n := strings.TrimSpace(p.Number); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// EmailAddresses returns the non-empty email values in slot order.
func (r CleanedRow) EmailAddresses() []string {
	var out []string
	for _, e := range r.Emails {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// Value reads a field by its canonical or export column name.
// Unknown names return "".
func (r CleanedRow) Value(field string) string {
	switch field {
	case FieldFirstName:
		return r.FirstName
	case FieldLastName:
		return r.LastName
	case FieldPropertyAddress:
		return r.PropertyAddress
	case FieldContactType:
		return r.ContactType
	case FieldOpportunityName:
		return r.OpportunityName
	case FieldStage:
		return r.Stage
	case FieldPipeline:
		return r.Pipeline
	case FieldTags:
		return r.Tags
	case FieldMissingPhone:
		return boolText(r.MissingPhone)
	case FieldDuplicatePhone:
		return boolText(r.DuplicateAddress)
	case FieldPhoneValid:
		return boolText(r.PhoneValid)
	case FieldEmailValid:
		return boolText(r.EmailValid)
	}

	for i := range r.Emails {
		if field == r.schema.EmailField(i+1) {
			return r.Emails[i]
		}
	}
	for i, p := range r.Phones {
		slot := r.schema.PhoneField(i + 1)
		if field == slot {
			return p.Number
		}
		rest, ok := strings.CutPrefix(field, slot+" ")
		if !ok {
			continue
		}
		switch rest {
		case PhoneSuffixType:
			return p.Type
		case PhoneSuffixCarrier:
			return p.Carrier
		case PhoneSuffixStatus:
			return p.Status
		case PhoneSuffixPorted:
			return p.Ported
		case PhoneSuffixRoaming:
			return p.Roaming
		}
	}
	return ""
}

// Record converts the row back to the textual boundary form: every schema
// field plus the derived flags and any populated phone details.
func (r CleanedRow) Record() Record {
	rec := make(Record)
	for _, f := range r.schema.Fields() {
		rec[f] = r.Value(f)
	}
	for i, p := range r.Phones {
		if p.Type == "" {
			continue
		}
		slot := r.schema.PhoneField(i + 1)
		for _, suffix := range phoneDetailSuffixes {
			name := PhoneDetailField(slot, suffix)
			rec[name] = r.Value(name)
		}
	}
	rec[FieldMissingPhone] = boolText(r.MissingPhone)
	rec[FieldDuplicatePhone] = boolText(r.DuplicateAddress)
	rec[FieldPhoneValid] = boolText(r.PhoneValid)
	rec[FieldEmailValid] = boolText(r.EmailValid)
	return rec
}

func boolText(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func yesNo(b bool) string {
	if b {
		return DetailYes
	}
	return DetailNo
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
