package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Message content limits for chat
const (
	MaxMessageLength = 8000
	MaxGroupNameLen  = 80
)

// ValidateEmail checks the address shape without touching the network.
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePassword enforces the minimum credential strength accepted at
// sign-up. Kept deliberately lax (length only) to match the product's
// original rules.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters long")
	}
	return nil
}

// ValidateMessageContent rejects empty/whitespace-only and oversized content.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return fmt.Errorf("message exceeds maximum length")
	}
	return nil
}

// EmailLocalPart returns the part of the address before the @.
func EmailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
