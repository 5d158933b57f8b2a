package utils

import (
	"html"
	"strings"
	"unicode"
)

// SanitizeString trims and escapes HTML in single-line input
func SanitizeString(input string) string {
	return html.EscapeString(strings.TrimSpace(input))
}

// SanitizeText sanitizes multi-line text input
func SanitizeText(input string) string {
	escaped := SanitizeString(input)

	// Remove any control characters except newlines and tabs
	var result strings.Builder
	for _, r := range escaped {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' || r == '\r' {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// SanitizeOptional applies SanitizeText to an optional field, mapping blank
// input to nil.
func SanitizeOptional(input *string) *string {
	if input == nil {
		return nil
	}
	cleaned := SanitizeText(*input)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// NormalizeRegistration upper-cases a truck plate and collapses inner spaces.
func NormalizeRegistration(plate string) string {
	return strings.Join(strings.Fields(strings.ToUpper(plate)), " ")
}
