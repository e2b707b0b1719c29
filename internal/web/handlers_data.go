package web

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/propscrub/internal/core"
	"github.com/JonMunkholm/propscrub/internal/scrub"
	"github.com/JonMunkholm/propscrub/internal/web/templates"
)

// defaultPageSize is how many rows the results table shows per page.
const defaultPageSize = 50

// handleIndex renders the app shell.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := templates.IndexParams{
		Capabilities: s.service.Capabilities(),
		MaxFileSize:  s.cfg.Upload.MaxFileSize,
	}

	// Balance is decoration here; the page still works without it.
	if b, err := s.service.Balance(ctx); err == nil {
		params.Balance = b
	} else {
		slog.Warn("index: balance unavailable", "error", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Index(params).Render(ctx, w); err != nil {
		slog.Error("render index", "error", err)
	}
}

// handleHealth reports liveness plus scrub slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"capabilities": s.service.Capabilities(),
		"scrubs":       s.service.LimiterStatus(),
	})
}

// handleRows returns the filtered rows of a scrubbed session, as a table
// fragment for HTMX requests and JSON otherwise.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1)
	pageSize := parseIntParam(r, "pageSize", defaultPageSize)

	res, err := s.service.Results(chi.URLParam(r, "id"), page, pageSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.ResultsTable(res).Render(r.Context(), w); err != nil {
			slog.Error("render results", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleUpdateSettings changes filter toggles and the market search.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings scrub.FilterSettings
	if err := decodeJSON(w, r, &settings); err != nil {
		s.badRequest(w, r, err)
		return
	}

	updated, err := s.service.UpdateSettings(chi.URLParam(r, "id"), settings)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleExportCSV downloads the filtered rows. The CSV is rendered into a
// buffer first so a failure still produces a proper error response.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)

	var buf bytes.Buffer
	if _, err := s.service.ExportCSV(ctx, chi.URLParam(r, "id"), &buf); err != nil {
		s.respondError(w, r, err)
		return
	}

	filename := core.ExportFileName(time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(buf.Bytes())
}
