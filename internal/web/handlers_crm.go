package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/propscrub/internal/core"
	"github.com/JonMunkholm/propscrub/internal/logging"
)

// handleValidatePhone is the lookup proxy: it keeps provider credentials on
// the server for clients configured with the proxy provider. CORS headers
// and preflight are handled by the CORS middleware.
func (s *Server) handleValidatePhone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	var req struct {
		Phone string `json:"phone"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, r, err)
		return
	}
	if strings.TrimSpace(req.Phone) == "" {
		s.badRequest(w, r, errMissingPhone)
		return
	}

	res, err := s.service.ValidatePhone(r.Context(), req.Phone)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleExportGHL pushes a session's filtered rows to GoHighLevel. The call
// is synchronous; contacts are written one at a time.
func (s *Server) handleExportGHL(w http.ResponseWriter, r *http.Request) {
	var opts core.CRMOptions
	if err := decodeJSON(w, r, &opts); err != nil {
		s.badRequest(w, r, err)
		return
	}
	s.exportGHL(w, r, chi.URLParam(r, "id"), opts)
}

// handleExportToGHL is the body-addressed form of handleExportGHL.
func (s *Server) handleExportToGHL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
		core.CRMOptions
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, r, err)
		return
	}
	if req.SessionID == "" {
		s.badRequest(w, r, errMissingSession)
		return
	}
	s.exportGHL(w, r, req.SessionID, req.CRMOptions)
}

func (s *Server) exportGHL(w http.ResponseWriter, r *http.Request, id string, opts core.CRMOptions) {
	ctx := logging.WithSession(WithRequestMetadata(r.Context(), r), id)
	log := logging.FromContext(ctx)

	res, err := s.service.ExportCRM(ctx, id, opts, func(done, total int) {
		if done%25 == 0 || done == total {
			log.Debug("crm export progress", "done", done, "total", total)
		}
	})
	if err != nil && res == nil {
		s.respondError(w, r, err)
		return
	}
	if err != nil {
		// Cancelled part way; report what was written.
		log.Warn("crm export interrupted", "error", err)
	}
	writeJSON(w, http.StatusOK, res)
}

// handleGHLOptions lists pipelines, tags and contact types for the export form.
func (s *Server) handleGHLOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.service.CRMOptions(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// handleGHLSetupFields creates any missing PropScrub custom fields.
func (s *Server) handleGHLSetupFields(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.SetupCRMFields(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
