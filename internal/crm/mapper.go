package crm

import (
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/propscrub/internal/scrub"
)

const (
	ImportTag          = "propscrub-import"
	DefaultContactType = "Seller"
)

// ExportOptions control how cleaned rows become contacts.
type ExportOptions struct {
	DefaultType    string   `json:"defaultType"`
	AdditionalTags []string `json:"additionalTags"`
	// Pipeline and Stage apply to rows that name no pipeline of their own.
	Pipeline string `json:"pipeline,omitempty"`
	Stage    string `json:"stage,omitempty"`
}

// ImportTags builds the per-run tags: the market search (when set) and the
// import date.
func ImportTags(marketSearch string, now time.Time) []string {
	var tags []string
	if m := strings.TrimSpace(marketSearch); m != "" {
		tags = append(tags, m)
	}
	return append(tags, now.Format("2006-01-02"))
}

// ContactFromRow maps one cleaned row to a contact. Custom fields are set
// only when the row has a value and the location defines the field.
func ContactFromRow(row scrub.CleanedRow, opts ExportOptions, ids FieldIDs) Contact {
	c := Contact{
		FirstName: orDefault(strings.TrimSpace(row.FirstName), "Unknown"),
		LastName:  strings.TrimSpace(row.LastName),
		Address1:  strings.TrimSpace(row.PropertyAddress),
	}
	if len(row.Emails) > 0 {
		c.Email = strings.TrimSpace(row.Emails[0])
	}
	if len(row.Phones) > 0 {
		c.Phone = strings.TrimSpace(row.Phones[0].Number)
	}

	c.Type = strings.ToLower(orDefault(orDefault(strings.TrimSpace(row.ContactType), opts.DefaultType), DefaultContactType))

	c.Tags = append([]string{ImportTag}, opts.AdditionalTags...)
	for _, t := range strings.Split(row.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			c.Tags = append(c.Tags, t)
		}
	}
	c.Tags = dedupe(c.Tags)

	set := func(name, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		if id, ok := ids.Lookup(name); ok {
			c.CustomFields = append(c.CustomFields, CustomFieldValue{ID: id, Value: value})
		}
	}

	set(scrub.FieldContactType, row.ContactType)
	set(scrub.FieldPropertyAddress, row.PropertyAddress)
	for i := 1; i < len(row.Phones); i++ {
		set(phoneCustomName(i+1), row.Phones[i].Number)
	}
	for i := 1; i < len(row.Emails); i++ {
		set(emailCustomName(i+1), row.Emails[i])
	}
	for i, p := range row.Phones {
		if strings.TrimSpace(p.Number) == "" || p.Type == "" {
			continue
		}
		name := phoneCustomName(i + 1)
		set(name+" Type", lineTypeOption(p.Type))
		set(name+" Status", statusOption(p.Status))
		if p.Carrier != scrub.DetailNA && p.Carrier != scrub.DetailUnknown {
			set(name+" Carrier", p.Carrier)
		}
		set(name+" Ported", yesNoOption(p.Ported))
		set(name+" Roaming", yesNoOption(p.Roaming))
	}
	return c
}

func lineTypeOption(t string) string {
	switch strings.ToLower(t) {
	case "mobile", "cell", "wireless":
		return "Mobile"
	case "landline", "fixed", "fixed_line":
		return "Landline"
	case "voip", "nonfixedvoip", "fixedvoip":
		return "VoIP"
	}
	return "Unknown"
}

func statusOption(s string) string {
	switch strings.ToUpper(s) {
	case "LIVE":
		return "LIVE"
	case "NOT_LIVE", "DEAD", "ABSENT_SUBSCRIBER", "NO_TELESERVICE_PROVISIONED", scrub.StatusInvalid:
		return "NOT_LIVE"
	}
	return "Unknown"
}

func yesNoOption(v string) string {
	switch v {
	case scrub.DetailYes, scrub.DetailNo:
		return v
	}
	return "Unknown"
}

// contactLabel identifies a row in export errors.
func contactLabel(c Contact, index int) string {
	switch {
	case c.Email != "":
		return c.Email
	case c.Phone != "":
		return c.Phone
	}
	return "Row " + strconv.Itoa(index+1)
}

func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := tags[:0]
	for _, t := range tags {
		k := strings.ToLower(t)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
