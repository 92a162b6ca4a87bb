package vocab

import (
	"strings"
	"unicode"
)

// Tokenize splits a sentence into case-folded word tokens and terminal
// punctuation tokens. Words are runs of letters; single-letter words and
// anything that is neither a word nor terminal punctuation are dropped.
func Tokenize(sentence string) []string {
	var (
		tokens []string
		word   strings.Builder
	)
	flush := func() {
		if word.Len() > 1 {
			tokens = append(tokens, strings.ToLower(word.String()))
		}
		word.Reset()
	}
	for _, r := range sentence {
		switch {
		case unicode.IsLetter(r):
			word.WriteRune(r)
		case r == '.' || r == '!' || r == '?':
			flush()
			tokens = append(tokens, string(r))
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// IsTerminal reports whether a token is a sentence-terminating punctuation token.
func IsTerminal(token string) bool {
	return token == "." || token == "!" || token == "?"
}
