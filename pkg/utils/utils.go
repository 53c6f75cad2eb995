package utils

import (
	"database/sql"
	"strings"
	"unicode/utf8"
)

// ToNullString converts an optional string to sql.NullString. nil becomes NULL;
// a pointer to "" stays a valid empty string.
func ToNullString(str *string) sql.NullString {
	if str == nil {
		return sql.NullString{}
	}
	return sql.NullString{
		String: *str,
		Valid:  true,
	}
}

// MaskEmail hides the middle of the local part for logging. Input without
// an @ is masked entirely.
//
//	MaskEmail("a@example.com")    // "a@example.com"
//	MaskEmail("ab@example.com")   // "a*b@example.com"
//	MaskEmail("john@example.com") // "j***n@example.com"
func MaskEmail(email string) string {
	local, domain, found := strings.Cut(email, "@")
	if !found {
		return strings.Repeat("*", utf8.RuneCountInString(email))
	}

	runes := []rune(local)
	switch {
	case len(runes) <= 1:
		return email
	case len(runes) == 2:
		return string(runes[0]) + "*" + string(runes[1]) + "@" + domain
	default:
		return string(runes[0]) + "***" + string(runes[len(runes)-1]) + "@" + domain
	}
}
