package models

import "time"

type MessageType string

const (
	MessageText     MessageType = "text"
	MessageImage    MessageType = "image"
	MessageVideo    MessageType = "video"
	MessageVoice    MessageType = "voice"
	MessageLocation MessageType = "location"
	MessageContact  MessageType = "contact"
)

// TombstoneContent replaces the content of a deleted message. The document
// itself is kept so ordering and reply anchors survive for the peer.
const TombstoneContent = "You deleted this message"

type Message struct {
	ID         string      `bson:"_id" json:"id"`
	ChatID     string      `bson:"chat_id" json:"chat_id"`
	Type       MessageType `bson:"type" json:"type"`
	Content    string      `bson:"content" json:"content"`
	SenderID   string      `bson:"sender_id" json:"sender_id"`
	ReceiverID string      `bson:"receiver_id" json:"receiver_id"`
	SentAt     time.Time   `bson:"sent_at" json:"sent_at"`
	Seen       bool        `bson:"seen" json:"seen"`
	ReplyToID  string      `bson:"reply_to_id,omitempty" json:"reply_to_id,omitempty"`
	Forwarded  bool        `bson:"forwarded" json:"forwarded"`
	Deleted    bool        `bson:"deleted" json:"deleted"`

	MediaURL      string  `bson:"media_url,omitempty" json:"media_url,omitempty"`
	VoiceDuration float64 `bson:"voice_duration_seconds,omitempty" json:"voice_duration_seconds,omitempty"`
}
