package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/chat-backend/internal/account"
	"github.com/fathima-sithara/chat-backend/internal/presence"
)

type AccountHandler struct {
	accounts account.Repository
	presence *presence.Tracker
}

func NewAccountHandler(accounts account.Repository, tracker *presence.Tracker) *AccountHandler {
	return &AccountHandler{accounts: accounts, presence: tracker}
}

func (h *AccountHandler) Get(c *fiber.Ctx) error {
	a, err := h.accounts.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(a)
}

func (h *AccountHandler) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		DisplayName *string `json:"display_name"`
		AboutInfo   *string `json:"about_info"`
		ImageURL    *string `json:"image_url"`
		PhoneNumber *string `json:"phone_number"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	fields := map[string]any{}
	if req.DisplayName != nil {
		fields["display_name"] = *req.DisplayName
	}
	if req.AboutInfo != nil {
		fields["about_info"] = *req.AboutInfo
	}
	if req.ImageURL != nil {
		fields["image_url"] = *req.ImageURL
	}
	if req.PhoneNumber != nil {
		fields["phone_number"] = *req.PhoneNumber
	}
	if len(fields) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "nothing to update"})
	}
	if err := h.accounts.UpdateProfile(c.Context(), accountID(c), fields); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "profile updated"})
}

// SetPresence flips the caller's online/typing flags. Fire-and-forget on
// the service side; the handler always answers ok.
func (h *AccountHandler) SetPresence(c *fiber.Ctx) error {
	var req struct {
		Online *bool `json:"online"`
		Typing *bool `json:"typing"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.Online != nil {
		h.presence.SetOnline(c.Context(), accountID(c), *req.Online)
	}
	if req.Typing != nil {
		h.presence.SetTyping(c.Context(), accountID(c), *req.Typing)
	}
	return c.JSON(fiber.Map{"message": "presence updated"})
}
