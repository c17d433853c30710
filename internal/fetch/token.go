// Package fetch implements the Fetch command language core: token matching,
// nested command-table dispatch, input arity validation and command-line
// parsing. Peripheral modules plug their command tables into an Engine and
// receive calls with the remaining token path and argument list.
package fetch

import "strings"

// NoMatch is the sentinel returned when a token resolves to no candidate.
const NoMatch = -1

// MaxTokenLen bounds how many characters of a token take part in a
// comparison. Tokens longer than this are compared on their prefix only,
// matching the fixed buffers of the original grammar.
const MaxTokenLen = 32

// Command-line geometry. A token path has at most MaxTokens slots and a
// handler receives at most MaxArgs data arguments.
const (
	MaxTokens = 8
	MaxArgs   = 10
)

// Named token path positions. Slot 0 is always the module name; what the
// later slots mean depends on the module's grammar.
const (
	TokCmd       = 0
	TokSubcmd0   = 1
	TokAction    = 1
	TokPort      = 2
	TokPin       = 3
	TokDirection = 4
	TokSense     = 5
)

// tokenEqual is the one comparison used everywhere: case-insensitive over
// the full length of both tokens, capped at MaxTokenLen. Because the
// compared length is the longer of the two, this is exact matching, not
// prefix matching: "config" never matches "configure".
func tokenEqual(a, b string) bool {
	if len(a) > MaxTokenLen {
		a = a[:MaxTokenLen]
	}
	if len(b) > MaxTokenLen {
		b = b[:MaxTokenLen]
	}
	return strings.EqualFold(a, b)
}

// TokenMatch resolves tok against a terminal set and returns the matched
// index, or NoMatch. An empty token never matches; matching is a pure
// function of its inputs.
func TokenMatch(set []string, tok string) int {
	if tok == "" {
		return NoMatch
	}
	for i, cand := range set {
		if tokenEqual(cand, tok) {
			return i
		}
	}
	return NoMatch
}
