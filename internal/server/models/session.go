package models

import "time"

// Session binds a token to an account until ExpiresAt.
type Session struct {
	Token     Token
	UserID    UserID
	ExpiresAt time.Time
	CreatedAt time.Time
}
