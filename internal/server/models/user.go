// Package models defines the server-side persistence records.
package models

import "time"

// User is a registered account holder. PasswordHash is a bcrypt hash and
// never leaves the server.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
}
