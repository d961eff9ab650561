package utils

import (
	"crypto/rand"
	"encoding/base64"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateID returns a short lowercase id, suitable for Google conference request ids.
func GenerateID(length int) string {
	id, err := gonanoid.Generate(idAlphabet, length)
	if err != nil {
		return ""
	}
	return id
}

// ConferenceRequestID returns the requestId used when asking Google to attach a Meet link.
func ConferenceRequestID() string {
	return "req-" + GenerateID(12)
}

// GenerateRandomString generates a cryptographically secure random string
func GenerateRandomString(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to nanoid if crypto/rand fails
		return GenerateID(length)
	}
	return base64.RawURLEncoding.EncodeToString(bytes)[:length]
}
