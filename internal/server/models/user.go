// Package models holds the persistent entities of the chat server.
package models

import (
	"database/sql"
	"time"
)

// User is a registered account. Password holds the bcrypt hash, never the
// plaintext. TelegramID is the external contact id used for out-of-band
// notifications; it is optional.
type User struct {
	ID         int64
	Email      string
	Password   string
	TelegramID sql.NullInt64
	CreatedAt  time.Time
}
