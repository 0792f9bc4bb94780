package chunker

import (
	"unicode/utf8"
)

// CharsPerToken is the fixed characters-per-token ratio behind every size in
// this package. Chunk boundaries depend on it, so it is not configurable.
const CharsPerToken = 4

// EstimateTokens approximates the token count of text as ceil(runes / 4).
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}

// advance moves pos forward by n runes, stopping at the end of s.
func advance(s string, pos, n int) int {
	for ; n > 0 && pos < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[pos:])
		pos += size
	}
	return pos
}

// retreat moves pos back by n runes, stopping at 0.
func retreat(s string, pos, n int) int {
	for ; n > 0 && pos > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:pos])
		pos -= size
	}
	return pos
}
