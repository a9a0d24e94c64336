package ws

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vnkhanh/e-learning-backend/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleUserWebSocket opens the realtime channel of the user named by the
// token query parameter. Browsers cannot set headers on a websocket request.
func HandleUserWebSocket(hub *Hub, tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			utils.FailWithStatus(c, http.StatusUnauthorized, "missing token")
			return
		}
		claims, err := tokens.VerifyToken(token)
		if err != nil {
			utils.FailWithStatus(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("ws upgrade failed:", err)
			return
		}
		log.Printf("user ws connected: user=%d", claims.UserID)

		client := hub.Register(claims.UserID, conn)
		if hello, err := json.Marshal(gin.H{"type": "connected"}); err == nil {
			client.Send <- hello
		}
		hub.ReadPump(client)
		log.Printf("user ws disconnected: user=%d", claims.UserID)
	}
}
