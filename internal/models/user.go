package models

import "time"

// User represents a registered account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Avatar       string    `json:"avatar"`
	PasswordHash string    `json:"password,omitempty"` // bcrypt hash, only set on the register response
	CreatedAt    time.Time `json:"date"`
}
