package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/propscrub/internal/core"
	"github.com/JonMunkholm/propscrub/internal/logging"
)

// WithRequestMetadata adds the client IP and, for session routes, the
// session id to the context so service log lines can be correlated.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr) // Already processed by TrustedRealIP
	if id := chi.URLParam(r, "id"); id != "" {
		ctx = logging.WithSession(ctx, id)
	}
	return ctx
}
