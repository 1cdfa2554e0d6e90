package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/logging"
)

type ctxKey int

const userIDKey ctxKey = iota

// UserID returns the authenticated owner stored by the auth middleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// instrument adds a request-scoped logger, a request id, an access log line
// and the latency histogram.
func (s *Server) instrument(next http.Handler) http.Handler {
	h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("HTTP request")
		s.svc.Metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(status), duration.Seconds())
	})(next)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	return hlog.NewHandler(s.logger)(h)
}

// authenticated resolves HTTP basic credentials to an owner id.
func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="trading-journal"`)
			writeError(w, r, apperrors.ErrUnauthorized)
			return
		}

		user, err := s.svc.Accounts.Authenticate(r.Context(), email, password)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="trading-journal"`)
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, user.ID)
		logger := logging.WithUser(*hlog.FromRequest(r), user.ID)
		next(w, r.WithContext(logger.WithContext(ctx)))
	})
}
