package pipeline

import (
	"fmt"
	"strings"
)

// Split tokenizes a shell-style command string. Single and double quotes
// group tokens; backslashes are literal characters, not escapes, so
// arguments carrying braces or Windows-style paths pass through intact.
func Split(command string) ([]string, error) {
	var args []string
	var current strings.Builder
	var quote rune
	inToken := false

	for _, r := range strings.TrimSpace(command) {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			if inToken {
				args = append(args, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unclosed %c quote in command", quote)
	}
	if inToken {
		args = append(args, current.String())
	}
	return args, nil
}
