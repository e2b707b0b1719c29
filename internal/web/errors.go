package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err), optionally with an explicit status
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered as JSON or as an HTMX fragment

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/propscrub/internal/billing"
	"github.com/JonMunkholm/propscrub/internal/core"
	"github.com/JonMunkholm/propscrub/internal/crm"
	"github.com/JonMunkholm/propscrub/internal/importer"
	"github.com/JonMunkholm/propscrub/internal/phonelookup"
	"github.com/JonMunkholm/propscrub/internal/scrub"
	"github.com/JonMunkholm/propscrub/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusRules map sentinel errors to HTTP statuses, first match wins.
var statusRules = []struct {
	err    error
	status int
}{
	{core.ErrSessionNotFound, http.StatusNotFound},
	{core.ErrTemplateNotFound, http.StatusNotFound},
	{core.ErrTemplateExists, http.StatusConflict},
	{core.ErrScrubRunning, http.StatusConflict},
	{core.ErrNotScrubbed, http.StatusConflict},
	{core.ErrSlotCountsFrozen, http.StatusConflict},
	{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{core.ErrTooManyScrubs, http.StatusServiceUnavailable},
	{billing.ErrInsufficientBalance, http.StatusPaymentRequired},
	{billing.ErrUnknownOption, http.StatusBadRequest},
	{core.ErrNoFile, http.StatusBadRequest},
	{core.ErrNameRequired, http.StatusBadRequest},
	{core.ErrUnknownColumn, http.StatusBadRequest},
	{scrub.ErrEmptyInput, http.StatusBadRequest},
	{scrub.ErrInvalidSlotCount, http.StatusBadRequest},
	{scrub.ErrUnknownTier, http.StatusBadRequest},
	{importer.ErrNoHeader, http.StatusBadRequest},
	{importer.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
	{scrub.ErrNoPhoneLookup, http.StatusNotImplemented},
	{crm.ErrNotConfigured, http.StatusNotImplemented},
	{phonelookup.ErrNotConfigured, http.StatusNotImplemented},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	for _, rule := range statusRules {
		if errors.Is(err, rule.err) {
			return rule.status
		}
	}
	var apiErr *crm.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	var lookupErr *phonelookup.StatusError
	if errors.As(err, &lookupErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError handles error responses with user-friendly messages, using
// the status implied by err.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	s.respondErrorStatus(w, r, err, statusFor(err))
}

// respondErrorStatus logs the technical error server-side and returns an
// appropriate response based on the request type (HTMX or JSON).
func (s *Server) respondErrorStatus(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	// Get request ID for correlation
	requestID := middleware.GetReqID(r.Context())

	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", requestID,
	)

	if isHTMX(r) && !wantsJSON(r) {
		renderErrorPartial(w, r, userMsg, statusCode)
		return
	}
	respondErrorJSON(w, userMsg, statusCode)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		slog.Error("render error partial", "error", err)
	}
}

// badRequest reports malformed input that never reached the service.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	s.respondErrorStatus(w, r, err, http.StatusBadRequest)
}

// isHTMX checks if the request wants an HTML fragment.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client explicitly prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
