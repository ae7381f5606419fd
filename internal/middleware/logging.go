package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/zjoart/go-sms-pay/pkg/id"
	"github.com/zjoart/go-sms-pay/pkg/logger"
	"github.com/zjoart/go-sms-pay/pkg/utils"
)

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := id.Generate()

		w.Header().Add("Content-Type", "application/json")
		w.Header().Set("X-Request-ID", requestID)

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		ctx := context.WithValue(r.Context(), utils.RequestIDKey, requestID)
		next.ServeHTTP(rw, r.WithContext(ctx))

		duration := time.Since(start)

		logger.Info("Request completed", logger.Fields{
			logger.RequestIDKey: requestID,
			"method":            r.Method,
			"path":              r.URL.Path,
			"status":            rw.status,
			"duration":          duration.String(),
			"remote":            r.RemoteAddr,
		})
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
