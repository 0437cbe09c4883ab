package handler

import (
	"errors"
	"log"

	"github.com/IlyaM70/JustMessanger/internal/model"
	"github.com/IlyaM70/JustMessanger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type MessageHandler struct {
	relay *service.Relay
}

func NewMessageHandler(relay *service.Relay) *MessageHandler {
	return &MessageHandler{relay: relay}
}

// Send persists a direct message and pushes it to the recipient. The sender
// is always the authenticated caller.
// POST /api/message/send
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	var req model.SendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	senderID, _ := c.Locals("user_id").(string)

	if _, err := h.relay.Send(c.Context(), senderID, req.RecipientID, req.Text); err != nil {
		return messageError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// GetHistory returns the full conversation between two users, oldest first.
// GET /api/message/history?userId=&otherUserId=
func (h *MessageHandler) GetHistory(c *fiber.Ctx) error {
	msgs, err := h.relay.History(c.Context(), c.Query("userId"), c.Query("otherUserId"))
	if err != nil {
		return messageError(c, err)
	}

	return c.JSON(msgs)
}

// GetContacts lists the caller's conversation partners.
// GET /api/message/contacts
func (h *MessageHandler) GetContacts(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	contacts, err := h.relay.Contacts(c.Context(), userID)
	if err != nil {
		return messageError(c, err)
	}

	return c.JSON(contacts)
}

func messageError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrEmptyRecipient):
		return c.Status(400).JSON(fiber.Map{"error": "RecipientId is empty"})
	case errors.Is(err, service.ErrEmptyText):
		return c.Status(400).JSON(fiber.Map{"error": "Text is empty"})
	case errors.Is(err, service.ErrEmptyUserID):
		return c.Status(400).JSON(fiber.Map{"error": "UserId is empty"})
	case errors.Is(err, service.ErrEmptyOtherUserID):
		return c.Status(400).JSON(fiber.Map{"error": "OtherUserId is empty"})
	case errors.Is(err, service.ErrSenderNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "Sender with given ID was not found"})
	case errors.Is(err, service.ErrRecipientNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "Recipient with given ID was not found"})
	default:
		log.Printf("[Message] %v", err)
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
}
