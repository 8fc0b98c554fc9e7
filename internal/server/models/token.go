package models

import "time"

// SessionToken records an issued access token by its jti. A refresh rotates
// the row; deleting it revokes the session.
type SessionToken struct {
	ID      string
	UserID  string
	Expires time.Time
}

// ResetToken is a single-use password reset token.
type ResetToken struct {
	Token   string
	UserID  string
	Expires time.Time
}
