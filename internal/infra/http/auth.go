package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminKeyHeader authenticates vendor-management endpoints.
const AdminKeyHeader = "X-Admin-Key"

func (s *Server) requireAdminKey(c *gin.Context) bool {
	if s.adminAPIKey == "" {
		writeErrorCode(c, http.StatusUnauthorized, "ADMIN_DISABLED", "admin api key not configured")
		return false
	}
	key := strings.TrimSpace(c.GetHeader(AdminKeyHeader))
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminAPIKey)) != 1 {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "admin key required")
		return false
	}
	return true
}
