package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nutricoach/nutricoach/internal/common"
	"go.uber.org/zap"
)

// Recovery converts panics into the standard error envelope instead of
// gin's default plain-text response.
func Recovery(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if log != nil {
					log.Errorw("panic recovered", "path", c.FullPath(), "panic", r)
				}
				common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
