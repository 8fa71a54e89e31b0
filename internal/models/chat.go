package models

import "time"

type ChatKind string

const (
	ChatSingle ChatKind = "single"
	ChatGroup  ChatKind = "group"
)

type Chat struct {
	ID      string   `bson:"_id" json:"id"`
	Kind    ChatKind `bson:"kind" json:"kind"`
	Members []string `bson:"members" json:"members"` // account IDs only

	// Group metadata, empty for single chats.
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
	ImageURL string `bson:"image_url,omitempty" json:"image_url,omitempty"`
	OwnerID  string `bson:"owner_id,omitempty" json:"owner_id,omitempty"`

	// Denormalized summary of the latest message for list rendering. The
	// Message document is the source of truth; this copy may lag one write.
	LastMessageID      string     `bson:"last_message_id,omitempty" json:"last_message_id,omitempty"`
	LastMessageContent string     `bson:"last_message_content,omitempty" json:"last_message_content,omitempty"`
	LastMessageAt      *time.Time `bson:"last_message_at,omitempty" json:"last_message_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasMember reports whether the account participates in the chat.
func (c *Chat) HasMember(accountID string) bool {
	for _, m := range c.Members {
		if m == accountID {
			return true
		}
	}
	return false
}
