package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
)

// Logging emits one access line per request once the handler returns. Server
// errors are logged at warn so they stand out from normal traffic.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			began := time.Now()

			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			access := map[string]any{
				"status":  status,
				"bytes":   ww.BytesWritten(),
				"took_ms": time.Since(began).Milliseconds(),
			}
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if pattern := rc.RoutePattern(); pattern != "" {
					access["route"] = pattern
				}
			}
			ctx = logg.WithFields(ctx, access)
			if status >= http.StatusInternalServerError {
				logg.Warn(ctx, "http.access")
				return
			}
			logg.Info(ctx, "http.access")
		})
	}
}
