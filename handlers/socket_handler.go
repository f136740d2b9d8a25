package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rahulkarmakar28/code-sandbox/models"
	"github.com/rahulkarmakar28/code-sandbox/services"
)

// inboundBudget bounds control frames per socket. Clients only ever send
// join events, so anything chattier than this is a misbehaving peer.
const (
	inboundRate  = rate.Limit(2)
	inboundBurst = 8
)

// SocketUpgrade rejects plain HTTP requests on the realtime endpoint.
func SocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// SocketHandler runs one connection's lifecycle: unjoined until a joinRoom
// frame arrives, then scoped to that room until disconnect or re-join.
// Output frames are pumped from the hub; the read loop only consumes join
// events.
func SocketHandler(hub *services.Hub, logger *zap.Logger) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client := services.NewSocketClient()
		defer func() {
			hub.Leave(client)
			client.Close()
		}()

		go func() {
			for {
				select {
				case frame := <-client.Outbox():
					if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
						return
					}
				case <-client.Done():
					return
				}
			}
		}()

		limiter := rate.NewLimiter(inboundRate, inboundBurst)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if !limiter.Allow() {
				logger.Warn("closing flooding socket", zap.String("remote", conn.RemoteAddr().String()))
				return
			}

			var ev models.SocketEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				logger.Debug("ignoring malformed socket frame", zap.Error(err))
				continue
			}
			if ev.Event == models.EventJoinRoom && ev.Data != "" {
				hub.Join(client, ev.Data)
			}
		}
	}, websocket.Config{
		HandshakeTimeout: 10 * time.Second,
	})
}
