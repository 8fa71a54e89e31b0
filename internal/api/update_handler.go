package api

import (
	"encoding/base64"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/chat-backend/internal/models"
	"github.com/fathima-sithara/chat-backend/internal/update"
)

type UpdateHandler struct {
	updates *update.Service
}

func NewUpdateHandler(updates *update.Service) *UpdateHandler {
	return &UpdateHandler{updates: updates}
}

func (h *UpdateHandler) Post(c *fiber.Ctx) error {
	var req struct {
		Content     string `json:"content"`
		MediaType   string `json:"media_type"`
		Media       string `json:"media"` // base64
		ContentType string `json:"content_type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	var data []byte
	if req.Media != "" {
		var err error
		data, err = base64.StdEncoding.DecodeString(req.Media)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "media must be base64"})
		}
	}
	if req.MediaType == "" {
		req.MediaType = string(models.UpdateText)
	}
	u, err := h.updates.PostUpdate(c.Context(), update.PostInput{
		AuthorID:    accountID(c),
		Content:     req.Content,
		MediaType:   models.UpdateMediaType(req.MediaType),
		Media:       data,
		ContentType: req.ContentType,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

func (h *UpdateHandler) ListActive(c *fiber.Ctx) error {
	if author := c.Query("author_id"); author != "" {
		out, err := h.updates.ListActiveByAuthor(c.Context(), author)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(out)
	}
	out, err := h.updates.ListActive(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

func (h *UpdateHandler) Delete(c *fiber.Ctx) error {
	if err := h.updates.DeleteUpdate(c.Context(), accountID(c), c.Params("update_id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "deleted"})
}
