package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/sweetlayer/cakeshop/utils"
)

// WebSocketAuthMiddleware authenticates the order-feed socket. Browsers
// cannot set headers on a websocket handshake, so the token arrives as
// a query parameter.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		if utils.IsTokenBlacklisted(token) {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set("role", claims.Role)
		c.Set("user_id", claims.UserID)

		c.Next()
	}
}
