package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/zjoart/go-sms-pay/pkg/logger"
	"github.com/zjoart/go-sms-pay/pkg/utils"
)

// RecoverMiddleware is the outermost safety net: a panicking handler is
// logged with its stack and answered with a generic 500, leaking nothing.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Handler panicked", logger.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"panic":  rec,
					"stack":  string(debug.Stack()),
				})
				utils.BuildErrorResponse(w, http.StatusInternalServerError, "Internal server error", nil)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
