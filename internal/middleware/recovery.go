package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"gigmarket/pkg/log"
	"gigmarket/pkg/utils"
)

// Recovery converts panics into a 500 without leaking internals
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(map[string]interface{}{
					"panic": r,
					"path":  c.Request.URL.Path,
					"stack": string(debug.Stack()),
				}).Error("Panic recovered")

				utils.Error(c, utils.CodeInternal, "something went wrong, try again later")
				c.Abort()
			}
		}()

		c.Next()
	}
}
