package crm

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Opportunity is a deal linked to a contact in a pipeline stage.
type Opportunity struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name"`
	PipelineID      string `json:"pipelineId"`
	PipelineStageID string `json:"pipelineStageId"`
	ContactID       string `json:"contactId,omitempty"`
	LocationID      string `json:"locationId,omitempty"`
	Status          string `json:"status,omitempty"`
}

// SearchOpportunities lists a contact's opportunities in one pipeline.
func (c *Client) SearchOpportunities(ctx context.Context, contactID, pipelineID string) ([]Opportunity, error) {
	q := url.Values{}
	q.Set("location_id", c.locationID)
	q.Set("contact_id", contactID)
	q.Set("pipeline_id", pipelineID)

	var resp struct {
		Opportunities []Opportunity `json:"opportunities"`
	}
	if err := c.request(ctx, "GET", "/opportunities/search?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("search opportunities: %w", err)
	}
	return resp.Opportunities, nil
}

func (c *Client) CreateOpportunity(ctx context.Context, o Opportunity) (*Opportunity, error) {
	o.ID = ""
	o.LocationID = c.locationID
	if o.Status == "" {
		o.Status = "open"
	}

	var resp struct {
		Opportunity Opportunity `json:"opportunity"`
	}
	if err := c.request(ctx, "POST", "/opportunities/", o, &resp); err != nil {
		return nil, fmt.Errorf("create opportunity: %w", err)
	}
	return &resp.Opportunity, nil
}

func (c *Client) UpdateOpportunity(ctx context.Context, id string, o Opportunity) (*Opportunity, error) {
	o.ID = ""
	o.LocationID = ""
	o.ContactID = ""

	var resp struct {
		Opportunity Opportunity `json:"opportunity"`
	}
	if err := c.request(ctx, "PUT", "/opportunities/"+url.PathEscape(id), o, &resp); err != nil {
		return nil, fmt.Errorf("update opportunity %s: %w", id, err)
	}
	if resp.Opportunity.ID == "" {
		resp.Opportunity.ID = id
	}
	return &resp.Opportunity, nil
}

// UpsertOpportunity is keyed by (pipeline, stage, name) for one contact. A
// match on pipeline and name is moved to the requested stage; otherwise a
// new opportunity is created.
func (c *Client) UpsertOpportunity(ctx context.Context, o Opportunity) (*Opportunity, bool, error) {
	existing, err := c.SearchOpportunities(ctx, o.ContactID, o.PipelineID)
	if err != nil {
		return nil, false, err
	}

	for _, e := range existing {
		if !strings.EqualFold(strings.TrimSpace(e.Name), strings.TrimSpace(o.Name)) {
			continue
		}
		if e.PipelineStageID == o.PipelineStageID {
			return &e, false, nil
		}
		updated, err := c.UpdateOpportunity(ctx, e.ID, o)
		return updated, false, err
	}

	created, err := c.CreateOpportunity(ctx, o)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}
