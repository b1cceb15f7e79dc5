package validate

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Text field length limits, counted in characters.
const (
	MinUsernameLength            = 3
	MaxUsernameLength            = 30
	MaxFullNameLength            = 100
	MaxEmailLength               = 320
	MinPasswordLength            = 8
	MaxPasswordLength            = 72
	MaxTitleLength               = 200
	MaxDescriptionLength         = 5000
	MaxCommentLength             = 2000
	MaxTweetLength               = 200
	MaxPlaylistNameLength        = 100
	MaxPlaylistDescriptionLength = 1000
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.]+$`)

// ID reports whether s is a well-formed resource identifier.
func ID(s string) bool {
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func checkLen(value string, max int, field string) string {
	if utf8.RuneCountInString(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func Username(s string) string {
	n := utf8.RuneCountInString(s)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return fmt.Sprintf("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength)
	}
	if !usernamePattern.MatchString(s) {
		return "username may only contain lowercase letters, digits, dots and underscores"
	}
	return ""
}

func Password(s string) string {
	if len(s) < MinPasswordLength {
		return fmt.Sprintf("password must be at least %d characters", MinPasswordLength)
	}
	if len(s) > MaxPasswordLength {
		return fmt.Sprintf("password must be at most %d characters", MaxPasswordLength)
	}
	return ""
}

func FullName(s string) string    { return checkLen(s, MaxFullNameLength, "full name") }
func Email(s string) string       { return checkLen(s, MaxEmailLength, "email") }
func Title(s string) string       { return checkLen(s, MaxTitleLength, "title") }
func Description(s string) string { return checkLen(s, MaxDescriptionLength, "description") }
func Comment(s string) string     { return checkLen(s, MaxCommentLength, "comment") }
func PlaylistName(s string) string {
	return checkLen(s, MaxPlaylistNameLength, "playlist name")
}
func PlaylistDescription(s string) string {
	return checkLen(s, MaxPlaylistDescriptionLength, "playlist description")
}

func Tweet(s string) string {
	if utf8.RuneCountInString(s) > MaxTweetLength {
		return fmt.Sprintf("Tweet should be less than %d characters", MaxTweetLength)
	}
	return ""
}

// FieldLimits returns a map of field names to max lengths for the /limits endpoint.
func FieldLimits() map[string]int {
	return map[string]int{
		"username":            MaxUsernameLength,
		"fullName":            MaxFullNameLength,
		"title":               MaxTitleLength,
		"description":         MaxDescriptionLength,
		"comment":             MaxCommentLength,
		"tweet":               MaxTweetLength,
		"playlistName":        MaxPlaylistNameLength,
		"playlistDescription": MaxPlaylistDescriptionLength,
	}
}
