package protocol

import (
	"strings"
	"unicode"
)

// Token is one argument of a command line.
type Token struct {
	// Value is the token text with any surrounding quotes stripped.
	Value string

	// Null is set for the bare token `null`, the explicit absence
	// marker. A quoted "null" is the literal four-letter string and
	// does not set this.
	Null bool

	// Quoted reports whether the token was double-quoted.
	Quoted bool
}

// Tokenize splits a raw argument string into tokens. Runs of whitespace
// separate tokens; a double-quoted substring is a single token and may
// contain whitespace. Quotes carry no escape mechanism: a quoted token
// ends at the next double quote.
func Tokenize(args string) []Token {
	var tokens []Token

	i := 0
	for i < len(args) {
		// Skip leading whitespace
		for i < len(args) && unicode.IsSpace(rune(args[i])) {
			i++
		}
		if i >= len(args) {
			break
		}

		if args[i] == '"' {
			end := strings.IndexByte(args[i+1:], '"')
			if end < 0 {
				// Unterminated quote: the rest of the line is the token
				tokens = append(tokens, Token{Value: args[i+1:], Quoted: true})
				break
			}
			tokens = append(tokens, Token{Value: args[i+1 : i+1+end], Quoted: true})
			i += end + 2
			continue
		}

		start := i
		for i < len(args) && !unicode.IsSpace(rune(args[i])) {
			i++
		}
		value := args[start:i]
		tokens = append(tokens, Token{Value: value, Null: value == "null"})
	}

	return tokens
}

// splitCommand separates the first whitespace-delimited word from the
// remainder of the line. The remainder keeps its internal spacing so
// handlers that expect raw payloads (JSON grids) see it untouched.
func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	idx := strings.IndexFunc(line, unicode.IsSpace)
	if idx < 0 {
		return line, ""
	}
	return line[:idx], strings.TrimSpace(line[idx+1:])
}

// quoteToken wraps a value in double quotes when it contains whitespace,
// so event lines stay tokenizable by the client.
func quoteToken(value string) string {
	if strings.IndexFunc(value, unicode.IsSpace) >= 0 {
		return `"` + value + `"`
	}
	return value
}
