package company

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	byKey map[string]*Company
}

func (s *stubRepo) FindByAPIKey(apiKey string) (*Company, error) {
	if c, ok := s.byKey[apiKey]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

func (s *stubRepo) FindByID(string) (*Company, error)            { return nil, ErrNotFound }
func (s *stubRepo) FindChannelByAPIKey(string) (*Channel, error) { return nil, ErrNotFound }
func (s *stubRepo) FindChannelByID(string) (*Channel, error)     { return nil, ErrNotFound }

func TestAPIKeyMiddleware(t *testing.T) {
	active := &Company{ID: uuid.New(), APIKey: "live-key", IsActive: true}
	dormant := &Company{ID: uuid.New(), APIKey: "dormant-key", IsActive: false}
	repo := &stubRepo{byKey: map[string]*Company{active.APIKey: active, dormant.APIKey: dormant}}

	var resolved Company
	var resolvedOK bool
	handler := APIKeyMiddleware(repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, resolvedOK = CompanyFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		apiKey   string
		wantCode int
	}{
		{name: "valid key", apiKey: "live-key", wantCode: http.StatusOK},
		{name: "missing key", apiKey: "", wantCode: http.StatusUnauthorized},
		{name: "unknown key", apiKey: "bogus", wantCode: http.StatusUnauthorized},
		{name: "inactive company", apiKey: "dormant-key", wantCode: http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resolvedOK = false
			req := httptest.NewRequest(http.MethodPost, "/payments/check", nil)
			if tc.apiKey != "" {
				req.Header.Set("X-API-Key", tc.apiKey)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.wantCode, rec.Code)

			if tc.wantCode == http.StatusOK {
				require.True(t, resolvedOK, "handler must see the resolved company")
				assert.Equal(t, active.ID, resolved.ID)
			} else {
				assert.False(t, resolvedOK)
			}
		})
	}
}
