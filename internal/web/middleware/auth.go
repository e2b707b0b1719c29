package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/propscrub/internal/config"
	"github.com/JonMunkholm/propscrub/internal/core"
)

// apiKey is one configured key. Keys written as "account:key" charge that
// account; bare keys use the server's default account.
type apiKey struct {
	account string
	key     []byte
}

func parseAPIKeys(entries []string) []apiKey {
	keys := make([]apiKey, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		account, key, ok := strings.Cut(e, ":")
		if !ok {
			account, key = "", account
		}
		keys = append(keys, apiKey{account: strings.TrimSpace(account), key: []byte(strings.TrimSpace(key))})
	}
	return keys
}

// APIKeyAuth returns middleware that validates the X-API-Key header against
// configured keys and scopes the request to the key's account.
// If RequireAPIKey is false, all requests pass through; a valid key is still
// honored so callers can select their account.
// If RequireAPIKey is true but no keys are configured, all requests are rejected.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	keys := parseAPIKeys(cfg.APIKeys)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-API-Key")

			if provided == "" {
				if !cfg.RequireAPIKey {
					next.ServeHTTP(w, r)
					return
				}
				slog.Warn("auth: missing API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				http.Error(w, `{"error":"missing API key","code":"AUTH_MISSING_KEY"}`, http.StatusUnauthorized)
				return
			}

			account, ok := matchAPIKey(provided, keys)
			if !ok {
				slog.Warn("auth: invalid API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				http.Error(w, `{"error":"invalid API key","code":"AUTH_INVALID_KEY"}`, http.StatusForbidden)
				return
			}

			if account != "" {
				r = r.WithContext(core.ContextWithAccount(r.Context(), account))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// matchAPIKey checks the provided key against ALL configured keys with
// constant-time comparison, so timing does not reveal which key matched.
func matchAPIKey(provided string, keys []apiKey) (string, bool) {
	account := ""
	valid := 0
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(provided), k.key) == 1 {
			valid = 1
			account = k.account
		}
	}
	return account, valid == 1
}
