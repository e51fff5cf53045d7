package validation

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Display names: letters, spaces, hyphens, apostrophes and periods.
var nameRe = regexp.MustCompile(`^[\p{L}\s\-'.]+$`)

func IsValidEmail(email string) bool {
	return len(email) <= 254 && emailRe.MatchString(email)
}

// IsValidPassword requires at least 8 characters with a letter and a digit.
func IsValidPassword(password string) bool {
	if len(password) < 8 || len(password) > 72 {
		return false
	}
	hasLetter, hasDigit := false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func IsValidName(name string) bool {
	return name != "" && utf8.RuneCountInString(name) <= 100 && nameRe.MatchString(name)
}

// LengthBetween reports whether s has between min and max characters.
func LengthBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}
