// Package moderation validates user-chosen names. The social room and the
// HTTP validation endpoint share this list.
package moderation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
)

// Errors
var (
	ErrUsernameLength     = errors.New("username length out of range")
	ErrUsernameCharacters = errors.New("username has invalid characters")
	ErrUsernameBlocked    = errors.New("username contains blocked word")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

var blockedWords = []string{
	"admin",
	"moderator",
	"staff",
	"fuck",
	"shit",
	"ass",
	"dick",
	"cock",
	"pussy",
	"bitch",
	"nigger",
	"nigga",
	"faggot",
	"retard",
	"whore",
	"slut",
	"cunt",
	"porn",
	"sex",
	"rape",
	"nazi",
	"hitler",
	"kill",
	"murder",
	"suicide",
	"drug",
	"weed",
	"cocaine",
}

var leetReplacer = strings.NewReplacer(
	"0", "o",
	"1", "i",
	"3", "e",
	"4", "a",
	"5", "s",
	"7", "t",
	"@", "a",
	"$", "s",
)

// Normalize lowercases s and undoes common leet substitutions
func Normalize(s string) string {
	return leetReplacer.Replace(strings.ToLower(s))
}

// ContainsBlockedWord reports whether the name contains a blocked word,
// either as typed or after leet normalization
func ContainsBlockedWord(name string) bool {
	lower := strings.ToLower(name)
	normalized := Normalize(name)
	for _, word := range blockedWords {
		if strings.Contains(normalized, word) || strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// ValidateUsername checks length, allowed characters and the blocklist, in that order
func ValidateUsername(name string) error {
	n := utf8.RuneCountInString(name)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return ErrUsernameLength
	}
	if !usernamePattern.MatchString(name) {
		return ErrUsernameCharacters
	}
	if ContainsBlockedWord(name) {
		return ErrUsernameBlocked
	}
	return nil
}

// Reason returns the player-facing explanation for a validation error
func Reason(err error) string {
	switch {
	case err == nil:
		return "Username looks good!"
	case errors.Is(err, ErrUsernameLength):
		return "Username must be 3-20 characters."
	case errors.Is(err, ErrUsernameCharacters):
		return "Username can only contain letters, numbers, and underscores."
	case errors.Is(err, ErrUsernameBlocked):
		return "Username contains inappropriate content."
	default:
		return "Username is not allowed."
	}
}
