package core

import (
	"strings"
	"unicode"
)

// Command is a parsed slash command.
type Command struct {
	Name string   // first token without the leading slash
	Args []string // remaining whitespace-separated tokens
	raw  string   // text after the slash
}

// ParseCommand splits "/name arg1 arg2" into a Command. ok is false when
// text does not start with a slash.
func ParseCommand(text string) (Command, bool) {
	if !strings.HasPrefix(text, "/") {
		return Command{}, false
	}
	raw := text[1:]
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Command{raw: raw}, true
	}
	return Command{Name: fields[0], Args: fields[1:], raw: raw}, true
}

// Tail returns the text after the first n tokens (the command name counts
// as the first) with internal whitespace preserved and the ends trimmed.
func (c Command) Tail(n int) string {
	rest := c.raw
	for i := 0; i < n; i++ {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			return ""
		}
		rest = rest[end:]
	}
	return strings.TrimSpace(rest)
}
