package crm

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/propscrub/internal/scrub"
)

// GoHighLevel custom field data types used here.
const (
	DataTypeText          = "TEXT"
	DataTypePhone         = "PHONE"
	DataTypeEmail         = "EMAIL"
	DataTypeSingleOptions = "SINGLE_OPTIONS"
)

// CustomField is a field definition as listed by the API.
type CustomField struct {
	ID        string   `json:"id,omitempty"`
	Name      string   `json:"name"`
	DataType  string   `json:"dataType"`
	Position  int      `json:"position,omitempty"`
	ObjectKey string   `json:"objectKey,omitempty"`
	ParentID  string   `json:"parentId,omitempty"`
	Options   []string `json:"options,omitempty"`
}

var (
	lineTypeOptions = []string{"Mobile", "Landline", "VoIP", "Unknown"}
	statusOptions   = []string{"LIVE", "NOT_LIVE", "Unknown"}
	yesNoOptions    = []string{"Yes", "No", "Unknown"}
)

// phoneCustomName names the custom field for phone slot i. Slot 1 is the
// contact's primary phone, so its details use the bare "Phone" prefix.
func phoneCustomName(i int) string {
	if i == 1 {
		return "Phone"
	}
	return "Phone " + strconv.Itoa(i)
}

func emailCustomName(i int) string {
	return "Email " + strconv.Itoa(i)
}

// RequiredCustomFields is the field set the exporter writes to.
func RequiredCustomFields() []CustomField {
	fields := []CustomField{
		{Name: scrub.FieldContactType, DataType: DataTypeSingleOptions,
			Options: []string{"Owner", "Tenant", "Agent", "Property Manager", "Other"}},
		{Name: scrub.FieldPropertyAddress, DataType: DataTypeText},
	}
	for i := 2; i <= scrub.MaxSlots; i++ {
		fields = append(fields, CustomField{Name: phoneCustomName(i), DataType: DataTypePhone})
	}
	for i := 2; i <= scrub.MaxSlots; i++ {
		fields = append(fields, CustomField{Name: emailCustomName(i), DataType: DataTypeEmail})
	}
	for i := 1; i <= scrub.MaxSlots; i++ {
		p := phoneCustomName(i)
		fields = append(fields,
			CustomField{Name: p + " Type", DataType: DataTypeSingleOptions, Options: lineTypeOptions},
			CustomField{Name: p + " Status", DataType: DataTypeSingleOptions, Options: statusOptions},
			CustomField{Name: p + " Carrier", DataType: DataTypeText},
			CustomField{Name: p + " Ported", DataType: DataTypeSingleOptions, Options: yesNoOptions},
			CustomField{Name: p + " Roaming", DataType: DataTypeSingleOptions, Options: yesNoOptions},
		)
	}
	for i := range fields {
		fields[i].Position = i + 1
	}
	return fields
}

var objectKeyStrip = regexp.MustCompile(`[^a-z0-9_]`)

// ObjectKey derives the contact.<key> identifier from a field name.
func ObjectKey(name string) string {
	key := strings.Join(strings.Fields(strings.ToLower(name)), "_")
	return "contact." + objectKeyStrip.ReplaceAllString(key, "")
}

func (c *Client) customFieldsPath() string {
	return "/locations/" + url.PathEscape(c.locationID) + "/customFields"
}

func (c *Client) CustomFields(ctx context.Context) ([]CustomField, error) {
	var resp struct {
		CustomFields []CustomField `json:"customFields"`
	}
	if err := c.request(ctx, "GET", c.customFieldsPath(), nil, &resp); err != nil {
		return nil, fmt.Errorf("list custom fields: %w", err)
	}
	return resp.CustomFields, nil
}

func (c *Client) CreateCustomField(ctx context.Context, f CustomField) (*CustomField, error) {
	body := struct {
		CustomField
		LocationID string `json:"locationId"`
	}{CustomField: f, LocationID: c.locationID}
	body.ID = ""
	body.ObjectKey = ObjectKey(f.Name)
	body.ParentID = c.locationID
	if f.DataType != DataTypeSingleOptions {
		body.Options = nil
	}

	var resp struct {
		CustomField
		Wrapped *CustomField `json:"customField"`
	}
	if err := c.request(ctx, "POST", c.customFieldsPath(), body, &resp); err != nil {
		return nil, fmt.Errorf("create custom field %q: %w", f.Name, err)
	}
	if resp.Wrapped != nil {
		return resp.Wrapped, nil
	}
	return &resp.CustomField, nil
}

// FieldIDs maps lowercased custom field names to their ids.
type FieldIDs map[string]string

func (ids FieldIDs) Lookup(name string) (string, bool) {
	id, ok := ids[strings.ToLower(name)]
	return id, ok && id != ""
}

// FieldIDs lists the location's custom fields keyed by lowercased name.
func (c *Client) FieldIDs(ctx context.Context) (FieldIDs, error) {
	fields, err := c.CustomFields(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(FieldIDs, len(fields))
	for _, f := range fields {
		ids[strings.ToLower(f.Name)] = f.ID
	}
	return ids, nil
}

// SetupResult summarizes EnsureCustomFields.
type SetupResult struct {
	Created []string          `json:"created"`
	Skipped []string          `json:"skipped"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// EnsureCustomFields creates every required field the location lacks.
// Existing fields are matched by case-insensitive name. Individual create
// failures are collected and do not stop the run.
func (c *Client) EnsureCustomFields(ctx context.Context) (*SetupResult, error) {
	existing, err := c.FieldIDs(ctx)
	if err != nil {
		return nil, err
	}

	res := &SetupResult{Created: []string{}, Skipped: []string{}}
	for _, f := range RequiredCustomFields() {
		if _, ok := existing.Lookup(f.Name); ok {
			res.Skipped = append(res.Skipped, f.Name)
			continue
		}
		created, err := c.CreateCustomField(ctx, f)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			if res.Failed == nil {
				res.Failed = make(map[string]string)
			}
			res.Failed[f.Name] = err.Error()
			slog.Warn("custom field create failed", "field", f.Name, "error", err)
			continue
		}
		slog.Info("custom field created", "field", f.Name, "id", created.ID)
		res.Created = append(res.Created, f.Name)
	}
	return res, nil
}
