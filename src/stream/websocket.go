package stream

import (
	"net/http"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades the connection and streams each newly stored
// error event to the client as a JSON message.
func WebSocketHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Error("websocket upgrade failed")
			return
		}
		defer conn.Close()

		events, unsubscribe := hub.Subscribe()
		defer unsubscribe()

		// Read pump. Clients send nothing useful; this only detects
		// disconnects so the subscription gets torn down.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					unsubscribe()
					return
				}
			}
		}()

		for ev := range events {
			if err := conn.WriteJSON(ev); err != nil {
				logger.WithError(err).Debug("websocket write failed, closing subscriber")
				return
			}
		}
	}
}
