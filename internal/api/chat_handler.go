package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/chat-backend/internal/chat"
)

type ChatHandler struct {
	chats *chat.Service
}

func NewChatHandler(chats *chat.Service) *ChatHandler {
	return &ChatHandler{chats: chats}
}

func (h *ChatHandler) FindOrCreate(c *fiber.Ctx) error {
	var req struct {
		PeerID string `json:"peer_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	ch, err := h.chats.FindOrCreateChat(c.Context(), accountID(c), req.PeerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(ch)
}

func (h *ChatHandler) CreateGroup(c *fiber.Ctx) error {
	var req struct {
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	ch, err := h.chats.CreateGroupChat(c.Context(), accountID(c), req.Name, req.Members)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ch)
}

func (h *ChatHandler) List(c *fiber.Ctx) error {
	out, err := h.chats.ListChats(c.Context(), accountID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

func (h *ChatHandler) Get(c *fiber.Ctx) error {
	ch, err := h.chats.GetChat(c.Context(), accountID(c), c.Params("chat_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(ch)
}

func (h *ChatHandler) AddMember(c *fiber.Ctx) error {
	var req struct {
		AccountID string `json:"account_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if err := h.chats.AddMember(c.Context(), accountID(c), c.Params("chat_id"), req.AccountID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "member added"})
}

func (h *ChatHandler) RemoveMember(c *fiber.Ctx) error {
	if err := h.chats.RemoveMember(c.Context(), accountID(c), c.Params("chat_id"), c.Params("account_id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "member removed"})
}

func (h *ChatHandler) Delete(c *fiber.Ctx) error {
	if err := h.chats.DeleteChat(c.Context(), accountID(c), c.Params("chat_id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "chat deleted"})
}

// LastMessage reads the denormalized summary for the caller's chat with a
// peer; empty fields mean no chat or no messages yet.
func (h *ChatHandler) LastMessage(c *fiber.Ctx) error {
	content, at, err := h.chats.LastMessageSummary(c.Context(), accountID(c), c.Params("peer_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"content": content, "sent_at": at})
}
