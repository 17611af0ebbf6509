package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"sort"
	"strings"
)

type contextKey string

const ClientKey contextKey = "client"

// publicPaths skip auth and rate limiting.
var publicPaths = map[string]bool{
	"/health":  true,
	"/livez":   true,
	"/readyz":  true,
	"/metrics": true,
}

// IsPublic reports whether path is a probe or metrics endpoint.
func IsPublic(path string) bool { return publicPaths[path] }

// APIKeyAuth validates the API key from the Authorization header. validKeys
// maps client name to key; an empty map disables auth. config.Validate
// rejects shared keys, and if one slips through the lowest name wins.
func APIKeyAuth(validKeys map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}
		names := make([]string, 0, len(validKeys))
		for name := range validKeys {
			names = append(names, name)
		}
		sort.Strings(names)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}

			// "Bearer <key>" and "<key>" are both accepted
			apiKey := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if apiKey == "" {
				http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			// constant-time comparison, no early exit; first name wins
			client := ""
			for _, name := range names {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(validKeys[name])) == 1 && client == "" {
					client = name
				}
			}
			if client == "" {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClientKey, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientFromContext returns the authenticated client name, if any.
func ClientFromContext(ctx context.Context) string {
	if c, ok := ctx.Value(ClientKey).(string); ok {
		return c
	}
	return ""
}
