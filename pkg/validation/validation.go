package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateUsername validates username format
func ValidateUsername(username string) bool {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 30 {
		return false
	}
	return usernameRegex.MatchString(username)
}

// ValidatePassword validates password strength
func ValidatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	return hasUpper && hasLower && hasNumber
}

// NormalizePhoneNumber parses a phone number and returns its canonical E.164
// form. The region is only consulted for numbers without a country prefix.
func NormalizePhoneNumber(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("phone number is required")
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", errors.New("invalid phone number")
	}
	// Possible-number check (length/prefix based) rather than strict regional
	// validity, so reserved test ranges stay usable in non-production setups
	if !phonenumbers.IsPossibleNumber(num) {
		return "", errors.New("invalid phone number")
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// SanitizeString removes potentially harmful characters
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return input
}
