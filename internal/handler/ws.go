package handler

import (
	"encoding/json"
	"log"
	"time"

	"github.com/IlyaM70/JustMessanger/internal/middleware"
	"github.com/IlyaM70/JustMessanger/internal/model"
	"github.com/IlyaM70/JustMessanger/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type WSHandler struct {
	hub       *service.WSHub
	jwtSecret []byte
}

func NewWSHandler(hub *service.WSHub, jwtSecret string) *WSHandler {
	return &WSHandler{hub: hub, jwtSecret: []byte(jwtSecret)}
}

// Upgrade validates the JWT from the query string and hands the connection
// to the hub under the token's user id.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		token := c.Query("token")
		if token == "" {
			return c.Status(401).JSON(fiber.Map{"error": "token required"})
		}

		userID, _, _, err := middleware.ParseToken(h.jwtSecret, token)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
		}

		c.Locals("user_id", userID)
		return websocket.New(h.handleConnection)(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *WSHandler) handleConnection(c *websocket.Conn) {
	userID, _ := c.Locals("user_id").(string)

	client := &service.WSClient{
		Conn:   c,
		UserID: userID,
		Send:   make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	// Writer goroutine
	go func() {
		defer c.Close()
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	// Reader loop. Inbound traffic is only keepalives; messages are sent
	// over HTTP, never over the socket.
	c.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			break
		}

		// Reset deadline on any message
		c.SetReadDeadline(time.Now().Add(60 * time.Second))

		var event model.WSEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			continue
		}

		switch event.Type {
		case "ping":
			pong, _ := json.Marshal(model.WSEvent{Type: "pong"})
			select {
			case client.Send <- pong:
			default:
			}
		default:
			log.Printf("WS: unknown event type %s from user %s", event.Type, userID)
		}
	}
}
