package company

import (
	"context"
	"errors"
	"net/http"

	"github.com/zjoart/go-sms-pay/pkg/utils"
)

// APIKeyMiddleware resolves the X-API-Key header to a Company and stores it
// on the request context. Every tenant-scoped route sits behind this; domain
// code never sees a request without a resolved company.
func APIKeyMiddleware(repo Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				utils.BuildErrorResponse(w, http.StatusUnauthorized, "Missing X-API-Key", nil)
				return
			}

			c, err := repo.FindByAPIKey(apiKey)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					utils.BuildErrorResponse(w, http.StatusUnauthorized, "Invalid X-API-Key", nil)
					return
				}
				utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to resolve credential", nil)
				return
			}

			if !c.IsActive {
				utils.BuildErrorResponse(w, http.StatusForbidden, "Company is inactive", nil)
				return
			}

			ctx := context.WithValue(r.Context(), utils.CompanyKey, *c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CompanyFromContext returns the company resolved by APIKeyMiddleware.
func CompanyFromContext(ctx context.Context) (Company, bool) {
	c, ok := ctx.Value(utils.CompanyKey).(Company)
	return c, ok
}
