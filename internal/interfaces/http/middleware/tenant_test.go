package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campus/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubTenantValidator struct {
	campuses map[string]*TenantInfo
	err      error
}

func (s *stubTenantValidator) ValidateTenant(tenantID string) (*TenantInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	if info, ok := s.campuses[tenantID]; ok {
		return info, nil
	}
	return nil, errors.New("tenant not found")
}

func serveTenant(mw gin.HandlerFunc, path, tenantID string, inspect func(*gin.Context)) *httptest.ResponseRecorder {
	router := gin.New()
	router.Use(mw)
	router.GET(path, func(c *gin.Context) {
		if inspect != nil {
			inspect(c)
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if tenantID != "" {
		req.Header.Set(TenantHeaderKey, tenantID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTenantMiddlewareHeaderResolution(t *testing.T) {
	t.Run("valid header sets the tenant", func(t *testing.T) {
		campus := uuid.NewString()
		var got string
		w := serveTenant(TenantMiddleware(), "/payments", campus, func(c *gin.Context) {
			got = GetTenantID(c)
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, campus, got)
	})

	t.Run("missing header is rejected when required", func(t *testing.T) {
		w := serveTenant(TenantMiddleware(), "/payments", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-UUID header is rejected", func(t *testing.T) {
		w := serveTenant(TenantMiddleware(), "/payments", "sede-norte", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("header ignored when extraction disabled", func(t *testing.T) {
		cfg := DefaultTenantConfig()
		cfg.HeaderEnabled = false
		cfg.Required = false

		var got string
		w := serveTenant(TenantMiddlewareWithConfig(cfg), "/payments", uuid.NewString(), func(c *gin.Context) {
			got = GetTenantID(c)
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, got)
	})
}

func TestTenantMiddlewareSkipPaths(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		skipPaths  []string
		wantStatus int
	}{
		{"health skipped", "/health", []string{"/health"}, http.StatusOK},
		{"nested health skipped", "/health/ready", []string{"/health"}, http.StatusOK},
		{"metrics skipped", "/metrics", []string{"/metrics"}, http.StatusOK},
		{"billing route still guarded", "/api/v1/billing/cartera", []string{"/health"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTenantConfig()
			cfg.SkipPaths = tt.skipPaths

			w := serveTenant(TenantMiddlewareWithConfig(cfg), tt.path, "", nil)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestOptionalTenantMiddleware(t *testing.T) {
	var got string
	w := serveTenant(OptionalTenantMiddleware(), "/payments", "", func(c *gin.Context) {
		got = GetTenantID(c)
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, got)
}

func TestTenantMiddlewareValidator(t *testing.T) {
	norte := uuid.NewString()
	validator := &stubTenantValidator{
		campuses: map[string]*TenantInfo{
			norte: {ID: uuid.MustParse(norte), Code: "NORTE"},
		},
	}

	newMiddleware := func(v TenantValidator) gin.HandlerFunc {
		cfg := DefaultTenantConfig()
		cfg.Validator = v
		return TenantMiddlewareWithConfig(cfg)
	}

	t.Run("known campus passes and exposes its code", func(t *testing.T) {
		var code string
		w := serveTenant(newMiddleware(validator), "/payments", norte, func(c *gin.Context) {
			code = GetTenantCode(c)
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "NORTE", code)
	})

	t.Run("unknown campus is rejected", func(t *testing.T) {
		w := serveTenant(newMiddleware(validator), "/payments", uuid.NewString(), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("validator outage is rejected", func(t *testing.T) {
		broken := &stubTenantValidator{err: errors.New("database connection failed")}
		w := serveTenant(newMiddleware(broken), "/payments", uuid.NewString(), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestTenantFromSubdomain(t *testing.T) {
	tests := []struct {
		name       string
		host       string
		baseDomain string
		want       string
	}{
		{"simple subdomain", "norte.campus.edu.co", "campus.edu.co", "norte"},
		{"port stripped", "norte.campus.edu.co:8080", "campus.edu.co", "norte"},
		{"bare base domain", "campus.edu.co", "campus.edu.co", ""},
		{"www ignored", "www.campus.edu.co", "campus.edu.co", ""},
		{"unrelated host", "norte.other.com", "campus.edu.co", ""},
		{"multi-level keeps leftmost", "caja.norte.campus.edu.co", "campus.edu.co", "caja"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tenantFromSubdomain(tt.host, tt.baseDomain))
		})
	}
}

func TestGetTenantUUID(t *testing.T) {
	t.Run("parses the resolved tenant", func(t *testing.T) {
		campus := uuid.New()
		w := serveTenant(TenantMiddleware(), "/payments", campus.String(), func(c *gin.Context) {
			got, err := GetTenantUUID(c)
			require.NoError(t, err)
			assert.Equal(t, campus, got)
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("nil without error when unresolved", func(t *testing.T) {
		w := serveTenant(OptionalTenantMiddleware(), "/payments", "", func(c *gin.Context) {
			got, err := GetTenantUUID(c)
			require.NoError(t, err)
			assert.Equal(t, uuid.Nil, got)
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestTenantMiddlewareContextPropagation(t *testing.T) {
	campus := uuid.NewString()

	w := serveTenant(TenantMiddleware(), "/payments", campus, func(c *gin.Context) {
		// The service layer reads the tenant from the request context.
		assert.Equal(t, campus, logger.GetTenantID(c.Request.Context()))
	})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDefaultTenantConfig(t *testing.T) {
	cfg := DefaultTenantConfig()

	assert.True(t, cfg.HeaderEnabled)
	assert.False(t, cfg.SubdomainEnabled)
	assert.True(t, cfg.Required)
	assert.Nil(t, cfg.Validator)
	assert.Contains(t, cfg.SkipPaths, "/health")
	assert.Contains(t, cfg.SkipPaths, "/metrics")
}
