package utils

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s()-]+$`)
)

// NormalizeString trims whitespace and normalizes string input
func NormalizeString(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeContact trims the contact and lowercases it when it is an email.
func NormalizeContact(contact string) string {
	c := strings.TrimSpace(contact)
	if strings.Contains(c, "@") {
		return strings.ToLower(c)
	}
	return c
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// IsValidPhone accepts digits, spaces, parentheses and dashes, with at
// least one digit.
func IsValidPhone(phone string) bool {
	p := strings.TrimSpace(phone)
	return phonePattern.MatchString(p) && strings.ContainsAny(p, "0123456789")
}

// IsValidContact reports whether contact is an email address or a phone number.
func IsValidContact(contact string) bool {
	return IsValidEmail(contact) || IsValidPhone(contact)
}
