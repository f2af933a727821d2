package handlers

import (
	"strings"
	"unicode/utf8"
)

// MaxMessageLength bounds a chat message in characters.
const MaxMessageLength = 500

const (
	errMessageEmpty     = "Message cannot be empty."
	errMessageTooLong   = "Message cannot exceed 500 characters."
	errMessageOffensive = "Message contains offensive words."
)

var forbiddenWords = []string{"puta", "puto", "gilipollas", "idiota", "mierda"}

type messageForm struct {
	Message string `form:"message"`
}

// clean trims the message and validates it. Field errors are keyed by form field.
func (f messageForm) clean() (string, map[string][]string) {
	text := strings.TrimSpace(f.Message)
	if text == "" {
		return "", map[string][]string{"message": {errMessageEmpty}}
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return "", map[string][]string{"message": {errMessageTooLong}}
	}
	lower := strings.ToLower(text)
	for _, word := range forbiddenWords {
		if strings.Contains(lower, word) {
			return "", map[string][]string{"message": {errMessageOffensive}}
		}
	}
	return text, nil
}
