package web

import (
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/propscrub/internal/web/templates"
)

// handleBalance returns the caller's balance and the bundles for sale.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.Balance(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.Balance(info).Render(r.Context(), w); err != nil {
			slog.Error("render balance", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handlePurchase credits a bundle to the caller's account.
func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OptionID string `json:"optionId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	info, err := s.service.Purchase(ctx, req.OptionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleHistory lists the caller's recent scrubs.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListHistory(r.Context(), parseIntParam(r, "limit", 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.HistoryTable(runs).Render(r.Context(), w); err != nil {
			slog.Error("render history", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, runs)
}
