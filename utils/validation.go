// utils/validation.go
package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	phonePattern  = regexp.MustCompile(`^\+\d{10,15}$`)
	senderPattern = regexp.MustCompile(`^[a-zA-Z0-9]{1,11}$`)
	nonPhoneChars = regexp.MustCompile(`[^\d+]`)
)

// NormalizePhoneNumber cleans a phone number and converts French local
// numbers (leading 0) to E.164 (+33). Returns an error when the result
// is not a plausible international number.
func NormalizePhoneNumber(phone string) (string, error) {
	if phone == "" {
		return "", fmt.Errorf("phone number is empty")
	}

	cleaned := nonPhoneChars.ReplaceAllString(phone, "")

	if strings.HasPrefix(cleaned, "0") {
		cleaned = "+33" + cleaned[1:]
	} else if !strings.HasPrefix(cleaned, "+") {
		cleaned = "+33" + cleaned
	}

	if !phonePattern.MatchString(cleaned) {
		return "", fmt.Errorf("invalid phone number: %s", phone)
	}

	return cleaned, nil
}

// ValidatePhone reports whether a phone number can be normalized.
func ValidatePhone(phone string) bool {
	_, err := NormalizePhoneNumber(phone)
	return err == nil
}

// ValidateSenderName enforces the gateway constraint on SMS sender
// identifiers: alphanumeric, 1 to 11 characters.
func ValidateSenderName(sender string) error {
	if !senderPattern.MatchString(sender) {
		return fmt.Errorf("sender name must be 1-11 alphanumeric characters, got %q", sender)
	}
	return nil
}
