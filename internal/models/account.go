package models

import "time"

// AuthMethod identifies which identity-provider flow created the account.
type AuthMethod string

const (
	AuthEmail   AuthMethod = "email"
	AuthGoogle  AuthMethod = "google"
	AuthPhone   AuthMethod = "phone"
	AuthLinked  AuthMethod = "linked"
	AuthUnknown AuthMethod = "unknown"
)

type Account struct {
	ID           string     `bson:"_id" json:"id"`
	DisplayName  string     `bson:"display_name" json:"display_name"`
	PhoneNumber  string     `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	Email        string     `bson:"email,omitempty" json:"email,omitempty"`
	PasswordHash string     `bson:"password_hash,omitempty" json:"-"`
	ImageURL     string     `bson:"image_url,omitempty" json:"image_url,omitempty"`
	AboutInfo    string     `bson:"about_info" json:"about_info"`
	AuthMethod   AuthMethod `bson:"auth_method" json:"auth_method"`
	LastSeenAt   *time.Time `bson:"last_seen_at,omitempty" json:"last_seen_at,omitempty"`
	Online       bool       `bson:"online" json:"online"`
	Typing       bool       `bson:"typing" json:"typing"`

	// Single-session enforcement: the one session id currently allowed to
	// act as this account, plus metadata about the device that owns it.
	SessionID   string     `bson:"session_id,omitempty" json:"-"`
	DeviceName  string     `bson:"device_name,omitempty" json:"-"`
	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
