package middleware

import (
	"net/http"

	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID stamps every request with a correlation id. An id supplied
// by the caller is trusted so the broker and downstream services can
// correlate across hops; otherwise a fresh one is generated.
func (a *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			id, err := uuid.New()
			if err != nil {
				errorResponse(w, http.StatusInternalServerError, "failed to generate request id")
				return
			}
			requestID = id.String()
		}

		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(wrap.WithRequestID(r.Context(), requestID)))
	})
}
