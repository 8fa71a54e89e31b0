package api

import (
	"encoding/base64"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/chat-backend/internal/message"
	"github.com/fathima-sithara/chat-backend/internal/models"
)

type MessageHandler struct {
	messages *message.Service
}

func NewMessageHandler(messages *message.Service) *MessageHandler {
	return &MessageHandler{messages: messages}
}

func (h *MessageHandler) SendText(c *fiber.Ctx) error {
	var req struct {
		ReceiverID string `json:"receiver_id"`
		Content    string `json:"content"`
		ReplyToID  string `json:"reply_to_id"`
		Forwarded  bool   `json:"forwarded"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	m, err := h.messages.SendText(c.Context(), message.SendTextInput{
		ChatID:     c.Params("chat_id"),
		SenderID:   accountID(c),
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		ReplyToID:  req.ReplyToID,
		Forwarded:  req.Forwarded,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (h *MessageHandler) SendMedia(c *fiber.Ctx) error {
	var req struct {
		ReceiverID    string  `json:"receiver_id"`
		Type          string  `json:"type"`
		Caption       string  `json:"caption"`
		Media         string  `json:"media"` // base64
		ContentType   string  `json:"content_type"`
		VoiceDuration float64 `json:"voice_duration_seconds"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	data, err := base64.StdEncoding.DecodeString(req.Media)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "media must be base64"})
	}
	m, err := h.messages.SendMedia(c.Context(), message.SendMediaInput{
		ChatID:        c.Params("chat_id"),
		SenderID:      accountID(c),
		ReceiverID:    req.ReceiverID,
		Type:          models.MessageType(req.Type),
		Caption:       req.Caption,
		Media:         data,
		ContentType:   req.ContentType,
		VoiceDuration: req.VoiceDuration,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (h *MessageHandler) List(c *fiber.Ctx) error {
	out, err := h.messages.ListMessages(c.Context(), accountID(c), c.Params("chat_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

func (h *MessageHandler) MarkSeen(c *fiber.Ctx) error {
	if err := h.messages.MarkSeen(c.Context(), accountID(c), c.Params("msg_id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "seen"})
}

func (h *MessageHandler) Delete(c *fiber.Ctx) error {
	if err := h.messages.DeleteMessage(c.Context(), accountID(c), c.Params("msg_id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "deleted"})
}
