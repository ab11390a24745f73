package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// logRequests emits one structured line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// requireDev guards developer routes with HTTP basic auth against the
// configured credential pair. With no pair configured the routes are closed
// outright: an open network listener is not the local trusted shell.
func (s *Server) requireDev(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.creds.Configured() {
			s.writeError(w, http.StatusForbidden, "developer routes disabled: no credentials configured")

			return
		}

		username, password, ok := r.BasicAuth()
		if !ok || s.creds.Verify(username, password) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="wt"`)
			s.writeError(w, http.StatusUnauthorized, "invalid credentials")

			return
		}

		next.ServeHTTP(w, r)
	})
}
