package model

import (
	"strings"
	"time"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is the caller asserted by a verified session token.
type Identity struct {
	AccountID string
	Email     string
}

// NormalizeEmail trims and lower-cases an address; emails compare case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
