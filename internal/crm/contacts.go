package crm

import (
	"context"
	"fmt"
	"net/url"
)

// CustomFieldValue sets one custom field on a contact.
type CustomFieldValue struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Contact is the subset of the GoHighLevel contact we read and write.
type Contact struct {
	ID           string             `json:"id,omitempty"`
	LocationID   string             `json:"locationId,omitempty"`
	FirstName    string             `json:"firstName,omitempty"`
	LastName     string             `json:"lastName,omitempty"`
	Email        string             `json:"email,omitempty"`
	Phone        string             `json:"phone,omitempty"`
	Type         string             `json:"type,omitempty"`
	Address1     string             `json:"address1,omitempty"`
	Tags         []string           `json:"tags,omitempty"`
	CustomFields []CustomFieldValue `json:"customFields,omitempty"`
}

type contactEnvelope struct {
	Contact Contact `json:"contact"`
}

type contactSearchResponse struct {
	Contacts []Contact `json:"contacts"`
}

// SearchContact returns the first contact matching query, or nil.
func (c *Client) SearchContact(ctx context.Context, query string) (*Contact, error) {
	q := url.Values{}
	q.Set("locationId", c.locationID)
	q.Set("query", query)

	var resp contactSearchResponse
	if err := c.request(ctx, "GET", "/contacts/?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("search contact: %w", err)
	}
	if len(resp.Contacts) == 0 {
		return nil, nil
	}
	return &resp.Contacts[0], nil
}

func (c *Client) CreateContact(ctx context.Context, contact Contact) (*Contact, error) {
	contact.ID = ""
	contact.LocationID = c.locationID

	var resp contactEnvelope
	if err := c.request(ctx, "POST", "/contacts/", contact, &resp); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return &resp.Contact, nil
}

// UpdateContact replaces the given fields on an existing contact.
func (c *Client) UpdateContact(ctx context.Context, id string, contact Contact) (*Contact, error) {
	contact.ID = ""
	contact.LocationID = ""

	var resp contactEnvelope
	if err := c.request(ctx, "PUT", "/contacts/"+url.PathEscape(id), contact, &resp); err != nil {
		return nil, fmt.Errorf("update contact %s: %w", id, err)
	}
	if resp.Contact.ID == "" {
		resp.Contact.ID = id
	}
	return &resp.Contact, nil
}

// AddTags appends tags to a contact, leaving its existing tags in place.
func (c *Client) AddTags(ctx context.Context, contactID string, tags []string) error {
	body := map[string][]string{"tags": tags}
	if err := c.request(ctx, "POST", "/contacts/"+url.PathEscape(contactID)+"/tags", body, nil); err != nil {
		return fmt.Errorf("add tags to %s: %w", contactID, err)
	}
	return nil
}

// UpsertResult reports the contact written and whether it was new.
type UpsertResult struct {
	Contact *Contact
	Created bool
}

// UpsertContact looks the contact up by email, then by phone, and updates
// the first match or creates a new contact. Tags on an update are added
// rather than replaced.
func (c *Client) UpsertContact(ctx context.Context, contact Contact) (UpsertResult, error) {
	var existing *Contact
	var err error

	if contact.Email != "" {
		if existing, err = c.SearchContact(ctx, contact.Email); err != nil {
			return UpsertResult{}, err
		}
	}
	if existing == nil && contact.Phone != "" {
		if existing, err = c.SearchContact(ctx, contact.Phone); err != nil {
			return UpsertResult{}, err
		}
	}

	if existing != nil {
		// A PUT with tags replaces them; existing contacts only gain tags.
		tags := contact.Tags
		contact.Tags = nil
		updated, err := c.UpdateContact(ctx, existing.ID, contact)
		if err != nil {
			return UpsertResult{}, err
		}
		if len(tags) > 0 {
			if err := c.AddTags(ctx, existing.ID, tags); err != nil {
				return UpsertResult{}, err
			}
		}
		return UpsertResult{Contact: updated}, nil
	}

	created, err := c.CreateContact(ctx, contact)
	if err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{Contact: created, Created: true}, nil
}
