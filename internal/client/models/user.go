// Package models defines client-side data models used by the wallet CLI.
package models

// User is the identity record of the signed-in person.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
