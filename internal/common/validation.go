package common

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailRegex  = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
	handleRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

const MaxEmojiRunes = 10

func ValidateHandle(handle string) error {
	handle = strings.TrimSpace(handle)
	if len(handle) < 3 || len(handle) > 50 {
		return NewValidationError("handle must be between 3 and 50 characters")
	}

	if !handleRegex.MatchString(handle) {
		return NewValidationError("handle can only contain letters, numbers, and underscores")
	}

	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 6 {
		return NewValidationError("password must be at least 6 characters long")
	}

	if len(password) > 100 {
		return NewValidationError("password is too long")
	}

	return nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return NewValidationError("invalid email format")
	}

	return nil
}

// ValidateEmoji accepts any non-blank string of at most MaxEmojiRunes runes.
func ValidateEmoji(emoji string) error {
	if strings.TrimSpace(emoji) == "" || !utf8.ValidString(emoji) {
		return ErrInvalidEmoji
	}
	if utf8.RuneCountInString(emoji) > MaxEmojiRunes {
		return ErrInvalidEmoji
	}
	return nil
}
