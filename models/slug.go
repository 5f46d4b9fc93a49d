package models

import (
	"regexp"
	"strings"
)

var (
	slugSeparators  = regexp.MustCompile(`[\s\W-]+`)
	usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)
)

// Slugify lower-cases name and collapses every run of spaces, punctuation
// and hyphens into a single hyphen.
func Slugify(name string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugSeparators.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "", ErrInvalidSlug
	}
	return s, nil
}

func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}
