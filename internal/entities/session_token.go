package entities

import "time"

// DefaultTokenName is the name given to tokens issued by password login.
const DefaultTokenName = "api-token"

// SessionToken is an opaque bearer credential. Only the SHA-256 of the
// plaintext is stored; the plaintext is handed to the client once.
type SessionToken struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"-"`
	Name       string     `gorm:"size:100;not null" json:"name"`
	TokenHash  string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (SessionToken) TableName() string {
	return "session_tokens"
}

// IsExpired reports whether the token has an expiry that has passed.
func (t *SessionToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}
