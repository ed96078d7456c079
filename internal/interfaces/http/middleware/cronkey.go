package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"github.com/storesync/backend/internal/interfaces/http/dto"
)

// SyncKeyHeader authenticates the scheduler that triggers all-tenant passes
const SyncKeyHeader = "X-Sync-Key"

// CronKey guards the cron trigger with a shared secret. An empty configured
// key closes the endpoint entirely rather than leaving it open.
func CronKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(SyncKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Invalid or missing sync key")
			return
		}
		c.Next()
	}
}
