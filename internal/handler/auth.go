package handler

import (
	"errors"

	"github.com/IlyaM70/JustMessanger/internal/model"
	"github.com/IlyaM70/JustMessanger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authSvc *service.AuthService
}

func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req model.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "username, email and password are required"})
	}

	if _, err := h.authSvc.Register(c.Context(), &req, c.BaseURL()); err != nil {
		return authError(c, err)
	}

	return c.JSON(model.RegisterResponse{
		Message: "You successfully registered! Please confirm your email.",
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req model.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "email and password are required"})
	}

	token, err := h.authSvc.Login(c.Context(), &req)
	if err != nil {
		return authError(c, err)
	}

	return c.JSON(model.LoginResponse{Token: token})
}

// ConfirmEmail handles the link emitted by the mailer.
// GET /api/auth/confirmemail?userId=&token=
func (h *AuthHandler) ConfirmEmail(c *fiber.Ctx) error {
	userID := c.Query("userId")
	token := c.Query("token")
	if userID == "" || token == "" {
		return c.Status(400).JSON(fiber.Map{"error": "userId and token are required"})
	}

	if err := h.authSvc.ConfirmEmail(c.Context(), userID, token); err != nil {
		return authError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Email confirmed successfully!"})
}

// UserExist is the existence contract the message service's authorization
// client depends on. The response bodies are part of that contract.
// GET /api/auth/userexist/:userId
func (h *AuthHandler) UserExist(c *fiber.Ctx) error {
	if _, err := h.authSvc.UserByID(c.Context(), c.Params("userId")); err != nil {
		return c.Status(404).SendString("User was not found")
	}
	return c.SendString("User found")
}

// FillContacts enriches a contact list with usernames and emails.
// POST /api/auth/fillcontacts
func (h *AuthHandler) FillContacts(c *fiber.Ctx) error {
	var contacts []model.Contact
	if err := c.BodyParser(&contacts); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	return c.JSON(h.authSvc.FillContacts(c.Context(), contacts))
}

func authError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(400).JSON(fiber.Map{"error": "invalid email or password"})
	case errors.Is(err, service.ErrEmailTaken):
		return c.Status(400).JSON(fiber.Map{"error": "email already in use"})
	case errors.Is(err, service.ErrEmailNotConfirmed):
		return c.Status(400).JSON(fiber.Map{"error": "email is not confirmed"})
	case errors.Is(err, service.ErrUserNotFound):
		return c.Status(400).JSON(fiber.Map{"error": "user was not found"})
	case errors.Is(err, service.ErrInvalidToken):
		return c.Status(400).JSON(fiber.Map{"error": "invalid or expired token"})
	case errors.Is(err, service.ErrWeakPassword), errors.Is(err, service.ErrInvalidUsername):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(500).JSON(fiber.Map{"error": "internal server error"})
	}
}
