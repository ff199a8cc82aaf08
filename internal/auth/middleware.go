// Package auth provides HTTP middleware for bearer token authentication.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Option customises the middleware.
type Option func(*settings)

type settings struct {
	open   map[string]struct{}
	logger zerolog.Logger
}

// WithOpenPaths lets requests for the exact given paths through without a
// token. Use it for liveness probes.
func WithOpenPaths(paths ...string) Option {
	return func(s *settings) {
		for _, p := range paths {
			s.open[p] = struct{}{}
		}
	}
}

// WithLogger logs rejected requests at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// NewAuthMiddleware returns an HTTP middleware that enforces bearer token
// authentication. If the configured token is empty, authentication is disabled
// and all requests pass through to the next handler unconditionally.
//
// When enabled, the request must carry
//
//	Authorization: Bearer <token>
//
// with a case-sensitive "Bearer" prefix followed by exactly one space. The
// token is compared in constant time. Anything else gets 401 Unauthorized
// and the next handler is never called.
func NewAuthMiddleware(token string, opts ...Option) func(http.Handler) http.Handler {
	s := settings{open: map[string]struct{}{}, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&s)
	}
	want := []byte(token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := s.open[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			const prefix = "Bearer "
			header := r.Header.Get("Authorization")
			provided, ok := strings.CutPrefix(header, prefix)
			if !ok || provided == "" || subtle.ConstantTimeCompare([]byte(provided), want) != 1 {
				s.logger.Debug().
					Str("path", r.URL.Path).
					Str("remote", r.RemoteAddr).
					Bool("header_present", header != "").
					Msg("Rejected unauthenticated request")
				w.Header().Set("WWW-Authenticate", `Bearer realm="pimonitor"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
