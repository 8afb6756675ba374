package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
)

const (
	requestIDHeader  = "X-Request-Id"
	cloudTraceHeader = "X-Cloud-Trace-Context"
)

var acceptableRequestID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// RequestID tags each request with an id taken from the caller, the Cloud Run
// trace header, or a fresh uuid, in that order. The id is echoed back and
// stored where both our logger and chi's GetReqID can read it.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := incomingRequestID(r)
			w.Header().Set(requestIDHeader, id)

			ctx := context.WithValue(r.Context(), chimw.RequestIDKey, id)
			if logg != nil {
				ctx = logg.WithRequestID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func incomingRequestID(r *http.Request) string {
	if id := r.Header.Get(requestIDHeader); acceptableRequestID.MatchString(id) {
		return id
	}
	// TRACE_ID/SPAN_ID;o=1
	trace, _, _ := strings.Cut(r.Header.Get(cloudTraceHeader), "/")
	if acceptableRequestID.MatchString(trace) {
		return trace
	}
	return uuid.NewString()
}
