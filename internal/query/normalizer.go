// Package query rewrites raw user queries into the document store's FTS5
// boolean query language.
package query

import (
	"strings"
	"unicode/utf8"
)

// Bounds on raw query input, to cap worst-case query cost.
const (
	// MaxLength is the maximum raw query length in bytes.
	MaxLength = 1000
	// MaxTokens is the maximum number of tokens considered.
	MaxTokens = 50
)

// isOperator reports whether the uppercased token is a boolean operator.
func isOperator(upper string) bool {
	return upper == "AND" || upper == "OR" || upper == "NOT"
}

// Normalize rewrites a raw query for execution:
//
//   - input is truncated to MaxLength bytes and MaxTokens tokens
//   - tokens are split on whitespace
//   - AND/OR/NOT are recognized case-insensitively and uppercased
//   - if any operator is present, tokens are rejoined verbatim: the user
//     controls the boolean structure
//   - otherwise multiple terms are joined with OR, trading precision for
//     recall on casual multi-word queries
//   - single-term and empty queries pass through aside from bounding
func Normalize(raw string) string {
	if len(raw) > MaxLength {
		// Back off to a rune boundary so the cut never leaves invalid UTF-8
		// in the trailing token.
		cut := MaxLength
		for cut > 0 && !utf8.RuneStart(raw[cut]) {
			cut--
		}
		raw = raw[:cut]
	}

	tokens := strings.Fields(raw)
	if len(tokens) > MaxTokens {
		tokens = tokens[:MaxTokens]
	}
	if len(tokens) == 0 {
		return ""
	}

	hasOperator := false
	for i, tok := range tokens {
		if upper := strings.ToUpper(tok); isOperator(upper) {
			tokens[i] = upper
			hasOperator = true
		}
	}

	if hasOperator || len(tokens) == 1 {
		return strings.Join(tokens, " ")
	}
	return strings.Join(tokens, " OR ")
}
