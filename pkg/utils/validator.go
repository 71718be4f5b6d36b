package utils

import "regexp"

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidEmail reports whether s looks like an email address. Empty client
// emails are allowed; this only guards non-empty values.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// SanitizeString strips control characters from free-text fields such as
// descriptions and notes before they reach the store.
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
