package crm

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

type Stage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Pipeline struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Stages []Stage `json:"stages"`
}

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ContactType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ContactTypes are the fixed types offered in the export dialog.
var ContactTypes = []ContactType{
	{ID: "lead", Name: "Lead"},
	{ID: "seller", Name: "Seller"},
	{ID: "buyer", Name: "Buyer"},
	{ID: "wholesaler", Name: "Wholesaler"},
	{ID: "agent", Name: "Agent"},
	{ID: "other", Name: "Other"},
}

// Options is what the UI needs to build an export mapping.
type Options struct {
	ContactTypes []ContactType `json:"contactTypes"`
	Pipelines    []Pipeline    `json:"pipelines"`
	Tags         []Tag         `json:"tags"`
}

func (c *Client) Pipelines(ctx context.Context) ([]Pipeline, error) {
	var resp struct {
		Pipelines []Pipeline `json:"pipelines"`
	}
	path := "/opportunities/pipelines?locationId=" + url.QueryEscape(c.locationID)
	if err := c.request(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	return resp.Pipelines, nil
}

func (c *Client) Tags(ctx context.Context) ([]Tag, error) {
	var resp struct {
		Tags []Tag `json:"tags"`
	}
	path := "/locations/" + url.PathEscape(c.locationID) + "/tags"
	if err := c.request(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return resp.Tags, nil
}

// Options fetches pipelines with their stages and the location's tags.
func (c *Client) Options(ctx context.Context) (*Options, error) {
	pipelines, err := c.Pipelines(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := c.Tags(ctx)
	if err != nil {
		return nil, err
	}
	if pipelines == nil {
		pipelines = []Pipeline{}
	}
	if tags == nil {
		tags = []Tag{}
	}
	return &Options{ContactTypes: ContactTypes, Pipelines: pipelines, Tags: tags}, nil
}

// findPipeline resolves a pipeline and stage by id or case-insensitive name.
// An empty stage selects the pipeline's first stage.
func findPipeline(pipelines []Pipeline, pipeline, stage string) (Pipeline, Stage, bool) {
	for _, p := range pipelines {
		if !matchesRef(p.ID, p.Name, pipeline) {
			continue
		}
		if stage == "" {
			if len(p.Stages) == 0 {
				return Pipeline{}, Stage{}, false
			}
			return p, p.Stages[0], true
		}
		for _, s := range p.Stages {
			if matchesRef(s.ID, s.Name, stage) {
				return p, s, true
			}
		}
		return Pipeline{}, Stage{}, false
	}
	return Pipeline{}, Stage{}, false
}

func matchesRef(id, name, ref string) bool {
	ref = strings.TrimSpace(ref)
	return ref != "" && (id == ref || strings.EqualFold(name, ref))
}
