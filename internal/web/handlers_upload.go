package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/propscrub/internal/core"
)

// multipartOverhead leaves room for form boundaries and fields around the
// file itself.
const multipartOverhead = 1 << 20

// handleImport parses an uploaded CSV or Excel file into a new session.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(w, r, fmt.Errorf("%d byte limit: %w", maxSize, core.ErrFileTooLarge))
			return
		}
		s.badRequest(w, r, fmt.Errorf("parse form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	summary, err := s.service.Import(ctx, header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, summary)
}

// handleGetSession returns a snapshot of a session.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.Session(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleResetSession discards a session ("clean another list").
func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.Reset(ctx, chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleSuggestMapping re-runs auto-mapping for new slot counts.
func (s *Server) handleSuggestMapping(w http.ResponseWriter, r *http.Request) {
	phones := parseIntParam(r, "phones", 1)
	emails := parseIntParam(r, "emails", 1)

	res, err := s.service.SuggestMapping(chi.URLParam(r, "id"), phones, emails, parseBoolParam(r, "crm"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleStartScrub charges the account and starts a scrub. Progress is
// followed on the progress stream.
func (s *Server) handleStartScrub(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req core.ScrubRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.StartScrub(ctx, id, req); err != nil {
		s.respondError(w, r, err)
		return
	}

	progress, _ := s.service.Progress(id)
	writeJSON(w, http.StatusAccepted, progress)
}

// handleScrubProgress streams scrub progress via Server-Sent Events.
// The stream ends with a "complete" event carrying the terminal state.
// Supports resumption via Last-Event-ID (or lastEventId) for reconnection;
// the event id is the completed row count.
func (s *Server) handleScrubProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	lastEventID := -1
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		lastEventID, _ = strconv.Atoi(v)
	} else if v := r.URL.Query().Get("lastEventId"); v != "" {
		lastEventID, _ = strconv.Atoi(v)
	}

	progressCh, err := s.service.SubscribeProgress(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var last core.ScrubProgress
	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				// Channel closed - scrub finished, failed or was cancelled
				data, _ := json.Marshal(last)
				fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
				flusher.Flush()
				return
			}
			last = progress

			if progress.Phase == core.PhaseScrubbing && progress.Completed <= lastEventID {
				continue
			}

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", progress.Completed, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleCancelScrub stops a running scrub.
func (s *Server) handleCancelScrub(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.service.CancelScrub(id); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}
