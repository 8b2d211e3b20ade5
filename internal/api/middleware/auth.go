// internal/api/middleware/auth.go
package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/newthinker/signalpro/internal/api/response"
	"github.com/newthinker/signalpro/internal/core"
)

// APIKeyAuth returns middleware that validates the X-API-Key header.
// Browsers cannot set headers on a websocket handshake, so the api_key
// query parameter is accepted as well. An empty apiKey disables auth.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get("X-API-Key")
			if providedKey == "" {
				providedKey = r.URL.Query().Get("api_key")
			}
			if providedKey == "" {
				response.Error(w, core.WrapError(core.ErrUnauthorized, errors.New("api key missing")))
				return
			}

			// Constant-time comparison to prevent timing attacks
			if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
				response.Error(w, core.WrapError(core.ErrUnauthorized, errors.New("api key invalid")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares so the first one listed runs outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
