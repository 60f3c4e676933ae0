package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sweetlayer/cakeshop/feed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FeedHandler upgrades to the order-feed websocket. Identity comes from
// the websocket auth middleware; admins receive every order event,
// customers only their own.
func FeedHandler(c *gin.Context) {
	roleInterface, exists := c.Get("role")
	if !exists {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	userIDInterface, exists := c.Get("user_id")
	if !exists {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	feed.RegisterClient(ws, roleInterface.(string), userIDInterface.(uint))

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	feed.UnregisterClient(ws)
}
