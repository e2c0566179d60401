package service

import (
	"net/url"
	"strings"
)

// NormalizeEmail returns the stored form of an address: trimmed and lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func verificationLink(frontendURL, rawToken string) string {
	return frontendURL + "/auth/verify-email?token=" + url.QueryEscape(rawToken)
}

func resetLink(frontendURL, rawToken string) string {
	return frontendURL + "/auth/reset-password?token=" + url.QueryEscape(rawToken)
}
