package utils

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldName returns the case-folded form used to compare display names.
// A Caser is stateful, so each call gets its own.
func FoldName(name string) string {
	return cases.Fold().String(name)
}

// SameName reports whether two names are equal ignoring case.
func SameName(a, b string) bool {
	return FoldName(a) == FoldName(b)
}

// StripNonAlnum drops every rune outside [A-Za-z0-9].
func StripNonAlnum(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return -1
		}
	}, s)
}
