package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/spendlog/backend/internal/logger"
)

// RequestLogger copies chi's request id into the logger context so service
// logs carry it. It must run after middleware.RequestID.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(logger.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
