// Package mention resolves @name tokens in user input to the subset of
// conversation participants a turn should target.
package mention

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aethernet/internal/chat"
)

// Resolve scans text for @<display name> mentions against the roster and
// returns the targeted participants in roster order. Matching is
// case-insensitive on the full display name, terminated at a word boundary,
// so "@Gem" never targets "Gemini" and "@GeminiPro" never targets "Gemini".
// With no matching mention the whole roster is returned (broadcast default).
// Duplicate mentions collapse to one entry. Mention tokens are left in the
// text; targeting never rewrites the message content.
func Resolve(text string, participants []chat.Participant) []chat.Participant {
	lowered := strings.ToLower(text)

	var targets []chat.Participant
	for _, p := range participants {
		if p.DisplayName == "" {
			continue
		}
		if mentioned(lowered, strings.ToLower(p.DisplayName)) {
			targets = append(targets, p)
		}
	}

	if len(targets) == 0 {
		return append([]chat.Participant(nil), participants...)
	}
	return targets
}

// mentioned reports whether "@"+name occurs in lowered text with a word
// boundary right after the name.
func mentioned(lowered, name string) bool {
	token := "@" + name
	for from := 0; ; {
		idx := strings.Index(lowered[from:], token)
		if idx < 0 {
			return false
		}
		end := from + idx + len(token)
		if boundaryAt(lowered, end) {
			return true
		}
		from += idx + 1
	}
}

// boundaryAt reports whether position i in s ends a word: end of string or
// a rune that is neither a letter nor a digit.
func boundaryAt(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
