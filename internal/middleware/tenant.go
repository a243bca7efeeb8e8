package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const tenantContextKey = "tenant_id"

// RequireTenant rejects requests without a valid X-Tenant-ID header.
// Every data-plane route is tenant-scoped; there is no cross-tenant
// surface.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("X-Tenant-ID"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing X-Tenant-ID header"})
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid X-Tenant-ID header"})
			return
		}
		c.Set(tenantContextKey, tenantID)
		c.Next()
	}
}

// TenantID reads the tenant set by RequireTenant. The second return is
// false only on routes that skipped the middleware.
func TenantID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(tenantContextKey)
	if !ok {
		return uuid.Nil, false
	}
	tenantID, ok := value.(uuid.UUID)
	return tenantID, ok
}
