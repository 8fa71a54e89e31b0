package models

import "time"

type UpdateMediaType string

const (
	UpdateText  UpdateMediaType = "text"
	UpdateImage UpdateMediaType = "image"
	UpdateVideo UpdateMediaType = "video"
)

// UpdateTTL is the fixed lifetime of an ephemeral update. ExpiresAt is set
// once at creation and never extended.
const UpdateTTL = 24 * time.Hour

type Update struct {
	ID        string          `bson:"_id" json:"id"`
	AuthorID  string          `bson:"author_id" json:"author_id"`
	Content   string          `bson:"content" json:"content"`
	MediaType UpdateMediaType `bson:"media_type" json:"media_type"`
	MediaURL  string          `bson:"media_url,omitempty" json:"media_url,omitempty"`
	MediaKey  string          `bson:"media_key,omitempty" json:"-"`
	CreatedAt time.Time       `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time       `bson:"expires_at" json:"expires_at"`
}

// Expired reports whether the update is logically dead at the given instant.
func (u *Update) Expired(now time.Time) bool {
	return now.After(u.ExpiresAt)
}
