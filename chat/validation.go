package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxMessageLength is the longest chat message accepted, in characters
const MaxMessageLength = 500

// ValidateMessage rejects blank or oversized chat messages
func ValidateMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if n := utf8.RuneCountInString(text); n > MaxMessageLength {
		return fmt.Errorf("message length %d exceeds maximum of %d characters", n, MaxMessageLength)
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("message must be valid UTF-8")
	}
	return nil
}

// ValidateSessionID checks that id is a UUID as issued by Manager.Create
func ValidateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: invalid session id %q", ErrSessionNotFound, id)
	}
	return nil
}
