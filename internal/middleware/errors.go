package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/axiestudio/embedded-chat/pkg/utils"
)

func abortInternal(c *gin.Context) {
	if c.Writer.Written() {
		c.Abort()
		return
	}
	utils.AbortWithError(c, http.StatusInternalServerError, "Internal server error")
}

// SecurityHeaders sets the response headers every route shares
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.SetSecurityHeaders(c)
		c.Next()
	}
}
