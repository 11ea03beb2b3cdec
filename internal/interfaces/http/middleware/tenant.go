package middleware

import (
	"net/http"
	"strings"

	"github.com/campus/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context keys and header for campus tenant propagation.
const (
	TenantIDKey     = "tenant_id"
	TenantCodeKey   = "tenant_code"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantInfo identifies a campus resolved by a TenantValidator.
type TenantInfo struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
}

// TenantValidator checks that a tenant exists and is active.
type TenantValidator interface {
	ValidateTenant(tenantID string) (*TenantInfo, error)
}

// TenantMiddlewareConfig controls how the campus tenant is resolved.
type TenantMiddlewareConfig struct {
	// HeaderEnabled turns on X-Tenant-ID header extraction.
	HeaderEnabled bool
	// SubdomainEnabled turns on subdomain extraction against BaseDomain.
	SubdomainEnabled bool
	// BaseDomain anchors subdomain extraction, e.g. "campus.edu.co".
	BaseDomain string
	// SkipPaths bypass tenant resolution entirely.
	SkipPaths []string
	// Required rejects requests that resolve no tenant.
	Required bool
	// Validator optionally verifies the resolved tenant.
	Validator TenantValidator
	Logger    *zap.Logger
}

// DefaultTenantConfig resolves the tenant from the X-Tenant-ID header and
// requires one, skipping health and metrics endpoints.
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		HeaderEnabled: true,
		SkipPaths:     []string{"/health", "/healthz", "/ready", "/metrics", "/api/v1/health"},
		Required:      true,
	}
}

// TenantMiddleware resolves the tenant with the default configuration.
func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig())
}

// OptionalTenantMiddleware resolves the tenant when present but lets
// requests without one through. Handlers fall back to the development
// tenant in that case.
func OptionalTenantMiddleware() gin.HandlerFunc {
	cfg := DefaultTenantConfig()
	cfg.Required = false
	return TenantMiddlewareWithConfig(cfg)
}

// TenantMiddlewareWithConfig resolves the campus tenant for each request,
// header first, then subdomain, and stores it in both the gin context and
// the request context for the service layer.
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipTenantResolution(c.Request.URL.Path, cfg.SkipPaths) {
			c.Next()
			return
		}

		tenantID, source := resolveTenantID(c, cfg)

		if tenantID != "" {
			if _, err := uuid.Parse(tenantID); err != nil {
				rejectTenant(c, "Invalid tenant ID format")
				return
			}
		}
		if tenantID == "" {
			if cfg.Required {
				rejectTenant(c, "Tenant identification required")
				return
			}
			c.Next()
			return
		}

		var info *TenantInfo
		if cfg.Validator != nil {
			resolved, err := cfg.Validator.ValidateTenant(tenantID)
			if err != nil {
				log := cfg.Logger
				if log == nil {
					log = logger.FromContext(c.Request.Context())
				}
				log.Warn("Tenant validation failed",
					zap.String("tenant_id", tenantID),
					zap.Error(err),
				)
				rejectTenant(c, "Invalid or inactive tenant")
				return
			}
			info = resolved
		}

		c.Set(TenantIDKey, tenantID)
		if info != nil {
			c.Set(TenantCodeKey, info.Code)
		}

		ctx := c.Request.Context()
		ctx, _ = logger.WithTenantID(ctx, logger.FromContext(ctx), tenantID)
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil {
			cfg.Logger.Debug("Tenant identified",
				zap.String("tenant_id", tenantID),
				zap.String("source", source),
			)
		}

		c.Next()
	}
}

func skipTenantResolution(path string, skipPaths []string) bool {
	for _, skip := range skipPaths {
		if path == skip || strings.HasPrefix(path, skip+"/") {
			return true
		}
	}
	return false
}

// resolveTenantID returns the raw tenant identifier and where it came from.
func resolveTenantID(c *gin.Context, cfg TenantMiddlewareConfig) (string, string) {
	if cfg.HeaderEnabled {
		if id := c.GetHeader(TenantHeaderKey); id != "" {
			return id, "header"
		}
	}
	if cfg.SubdomainEnabled && cfg.BaseDomain != "" {
		if id := tenantFromSubdomain(c.Request.Host, cfg.BaseDomain); id != "" {
			return id, "subdomain"
		}
	}
	return "", ""
}

// tenantFromSubdomain maps "norte.campus.edu.co" with base "campus.edu.co"
// to "norte". The bare base domain and "www" carry no tenant.
func tenantFromSubdomain(host, baseDomain string) string {
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	if !strings.HasSuffix(host, baseDomain) {
		return ""
	}
	subdomain := strings.TrimSuffix(host, "."+baseDomain)
	if subdomain == host || subdomain == "" || subdomain == "www" {
		return ""
	}
	// Multi-level subdomains keep only the leftmost label.
	return strings.Split(subdomain, ".")[0]
}

func rejectTenant(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetTenantID returns the resolved tenant ID or "" when none was set.
func GetTenantID(c *gin.Context) string {
	if v, ok := c.Get(TenantIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// GetTenantUUID returns the resolved tenant ID parsed as a UUID.
// A missing tenant yields uuid.Nil with no error.
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	id := GetTenantID(c)
	if id == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(id)
}

// GetTenantCode returns the campus code set by the validator, if any.
func GetTenantCode(c *gin.Context) string {
	if v, ok := c.Get(TenantCodeKey); ok {
		if code, ok := v.(string); ok {
			return code
		}
	}
	return ""
}
