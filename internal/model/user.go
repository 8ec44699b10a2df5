package model

import "time"

// Roles carried in access tokens.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User mirrors the users table. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}
