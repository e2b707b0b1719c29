package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/propscrub/internal/core"
)

// handleListTemplates returns all mapping templates.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.service.ListTemplates(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if templates == nil {
		templates = []core.MappingTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

// handleMatchTemplates finds templates matching the provided CSV headers.
func (s *Server) handleMatchTemplates(w http.ResponseWriter, r *http.Request) {
	headers := splitList(r.URL.Query().Get("headers"))
	if len(headers) == 0 {
		s.badRequest(w, r, errMissingHeaders)
		return
	}

	matches, err := s.service.MatchTemplates(r.Context(), headers)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// handleGetTemplate returns a single mapping template by ID.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	template, err := s.service.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, template)
}

// handleCreateTemplate creates a new mapping template.
func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req core.MappingTemplate
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	template, err := s.service.CreateTemplate(ctx, req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, template)
}

// handleSaveSessionTemplate stores the mapping a session was scrubbed with.
func (s *Server) handleSaveSessionTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	template, err := s.service.SaveSessionTemplate(ctx, chi.URLParam(r, "id"), req.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, template)
}

// handleUpdateTemplate updates an existing mapping template.
func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req core.MappingTemplate
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, r, err)
		return
	}
	req.ID = chi.URLParam(r, "id")

	ctx := WithRequestMetadata(r.Context(), r)
	template, err := s.service.UpdateTemplate(ctx, req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, template)
}

// handleDeleteTemplate deletes a mapping template.
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.DeleteTemplate(ctx, chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
