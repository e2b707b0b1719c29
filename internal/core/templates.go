package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// CreateTemplate saves a column mapping for reuse on later files with the
// same layout.
func (s *Service) CreateTemplate(ctx context.Context, t MappingTemplate) (*MappingTemplate, error) {
	if err := validateTemplate(&t); err != nil {
		return nil, err
	}
	return s.store.CreateTemplate(ctx, t)
}

// SaveSessionTemplate stores the mapping a session was last scrubbed with.
func (s *Service) SaveSessionTemplate(ctx context.Context, id, name string) (*MappingTemplate, error) {
	sess, err := s.getSession(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if !sess.scrubbed {
		sess.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", id, ErrNotScrubbed)
	}
	t := MappingTemplate{
		Name:       name,
		Phones:     sess.settings.NumberOfPhones,
		Emails:     sess.settings.NumberOfEmails,
		CRMFields:  sess.includeCRM,
		Mapping:    sess.mapping,
		CSVHeaders: sess.Headers,
	}
	sess.mu.Unlock()

	return s.CreateTemplate(ctx, t)
}

func (s *Service) GetTemplate(ctx context.Context, id string) (*MappingTemplate, error) {
	return s.store.GetTemplate(ctx, id)
}

func (s *Service) ListTemplates(ctx context.Context) ([]MappingTemplate, error) {
	return s.store.ListTemplates(ctx)
}

func (s *Service) UpdateTemplate(ctx context.Context, t MappingTemplate) (*MappingTemplate, error) {
	if err := validateTemplate(&t); err != nil {
		return nil, err
	}
	return s.store.UpdateTemplate(ctx, t)
}

func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	return s.store.DeleteTemplate(ctx, id)
}

func validateTemplate(t *MappingTemplate) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return ErrNameRequired
	}
	schema, err := t.Schema()
	if err != nil {
		return err
	}
	t.Mapping = t.Mapping.Complete(schema.Fields())
	return nil
}

// MatchTemplates finds templates that match the given file headers, best
// match first.
func (s *Service) MatchTemplates(ctx context.Context, headers []string) ([]TemplateMatch, error) {
	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}

	matches := []TemplateMatch{}
	for _, t := range templates {
		score := matchTemplateHeaders(headers, t.CSVHeaders)
		if score >= TemplateMatchThreshold {
			matches = append(matches, TemplateMatch{
				Template:   t,
				MatchScore: score,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})

	return matches, nil
}

// matchTemplateHeaders is the share of template headers present in the
// file, compared case-insensitively.
func matchTemplateHeaders(fileHeaders, templateHeaders []string) float64 {
	if len(templateHeaders) == 0 {
		return 0
	}

	present := make(map[string]bool, len(fileHeaders))
	for _, h := range fileHeaders {
		present[strings.ToLower(strings.TrimSpace(h))] = true
	}

	matched := 0
	for _, h := range templateHeaders {
		if present[strings.ToLower(strings.TrimSpace(h))] {
			matched++
		}
	}

	return float64(matched) / float64(len(templateHeaders))
}
