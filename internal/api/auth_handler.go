package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/chat-backend/internal/session"
)

type AuthHandler struct {
	sessions *session.Service
}

func NewAuthHandler(sessions *session.Service) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	a, err := h.sessions.Register(c.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		DeviceID   string `json:"device_id"`
		DeviceName string `json:"device_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.DeviceID == "" {
		req.DeviceID = "default"
	}
	res, err := h.sessions.Login(c.Context(), req.Email, req.Password, req.DeviceID, req.DeviceName)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"account":    res.Account,
		"session_id": res.SessionID,
		"token":      res.Token,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.Logout(c.Context(), accountID(c), deviceID(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) ValidateSession(c *fiber.Ctx) error {
	valid, err := h.sessions.ValidateSession(c.Context(), accountID(c), deviceID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"valid": valid})
}

func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	if err := h.sessions.DeleteAccount(c.Context(), accountID(c), deviceID(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "account deleted"})
}
