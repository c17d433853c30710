package fetch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyLine marks a line with no content after whitespace stripping.
// The session layer skips these without opening a transaction.
var ErrEmptyLine = errors.New("empty command line")

// ParseLine splits one assembled command line into its token path and
// argument list. The grammar is a colon-separated path with an optional
// parenthesized, comma-separated data list attached to the final segment:
//
//	gpio:config:porta:pin3:output:floating
//	dac:write(4, 2048)
//
// Whitespace is insignificant everywhere, including inside tokens, so
// "gpio : con fig" parses the same as "gpio:config".
func ParseLine(line string) (path []string, args []string, err error) {
	stripped := stripWhitespace(line)
	if stripped == "" {
		return nil, nil, ErrEmptyLine
	}

	head := stripped
	if open := strings.IndexByte(stripped, '('); open >= 0 {
		if !strings.HasSuffix(stripped, ")") {
			return nil, nil, errors.New("unterminated argument list")
		}
		head = stripped[:open]
		inner := stripped[open+1 : len(stripped)-1]
		if inner != "" {
			args = strings.Split(inner, ",")
			for i := range args {
				if args[i] == "" {
					return nil, nil, errors.New("empty argument")
				}
			}
		}
	} else if strings.ContainsAny(stripped, ")") {
		return nil, nil, errors.New("unmatched parenthesis")
	}

	if head == "" {
		return nil, nil, errors.New("missing command before argument list")
	}

	path = strings.Split(head, ":")
	for i := range path {
		if path[i] == "" {
			return nil, nil, errors.New("empty command token")
		}
	}

	if len(path) > MaxTokens {
		return nil, nil, fmt.Errorf("too many command tokens, max %d", MaxTokens)
	}
	if len(args) > MaxArgs {
		return nil, nil, fmt.Errorf("too many arguments, max %d", MaxArgs)
	}
	return path, args, nil
}

func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\r', '\n':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
