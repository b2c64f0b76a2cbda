package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
)

type apiClientKey struct{}

// APIKeyAuth rejects requests without a known X-API-Key header. validKeys
// maps keys to client names; an empty map lets every request through.
func APIKeyAuth(logger *slog.Logger, validKeys map[string]string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				logger.WarnContext(ctx, "missing API key",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeProblem(w, ProblemFromStatus(http.StatusUnauthorized, "API key required", GetRequestID(ctx)))
				return
			}

			clientName, valid := lookupKey(validKeys, apiKey)
			if !valid {
				logger.WarnContext(ctx, "invalid API key",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeProblem(w, ProblemFromStatus(http.StatusUnauthorized, "Invalid API key", GetRequestID(ctx)))
				return
			}

			ctx = context.WithValue(ctx, apiClientKey{}, clientName)
			logger.DebugContext(ctx, "API key authentication successful",
				"client", clientName,
				"method", r.Method,
				"path", r.URL.Path,
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APIClient returns the client name authenticated by APIKeyAuth.
func APIClient(ctx context.Context) string {
	name, _ := ctx.Value(apiClientKey{}).(string)
	return name
}

func lookupKey(validKeys map[string]string, apiKey string) (string, bool) {
	for key, name := range validKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			return name, true
		}
	}
	return "", false
}
