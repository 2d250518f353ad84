package util

import (
	"strings"
)

// ExtractMentions extracts @username mentions from text content
// Returns a slice of unique usernames (lowercase, without @ symbol)
func ExtractMentions(content string) []string {
	return extractTagged(content, "@", func(name string) bool {
		return len(name) >= 3 && len(name) <= 30
	})
}

// ExtractHashtags extracts #hashtag tags from text content
// Returns a slice of unique tags (lowercase, without # symbol)
func ExtractHashtags(content string) []string {
	return extractTagged(content, "#", func(tag string) bool {
		return len(tag) <= 50 && isTagChars(tag)
	})
}

// extractTagged collects the unique words carrying the given marker prefix,
// lowercased and stripped of trailing punctuation, in order of first
// appearance. valid filters the cleaned token.
func extractTagged(content, prefix string, valid func(string) bool) []string {
	var tokens []string
	seen := make(map[string]bool)

	for _, word := range strings.Fields(content) {
		if !strings.HasPrefix(word, prefix) || len(word) <= len(prefix) {
			continue
		}
		token := strings.TrimPrefix(word, prefix)
		token = strings.TrimRight(token, ".,!?;:")
		token = strings.ToLower(token)

		if token == "" || seen[token] || !valid(token) {
			continue
		}
		seen[token] = true
		tokens = append(tokens, token)
	}
	return tokens
}

// isTagChars reports whether s contains only letters, digits or underscores
func isTagChars(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
