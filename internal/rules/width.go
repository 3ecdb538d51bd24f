package rules

import (
	"unicode/utf8"

	"golang.org/x/text/width"
)

// EstimateWidth approximates the rendered width of s in pixels at SERP title size
func EstimateWidth(s string) int {
	total := 0
	for _, r := range s {
		total += runeWidth(r)
	}
	return total
}

func runeWidth(r rune) int {
	if r >= utf8.RuneSelf {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			return 18
		}
		return 12
	}
	switch {
	case r == ' ':
		return 5
	case r >= 'A' && r <= 'Z':
		return 12
	case r >= '0' && r <= '9':
		return 9
	case r >= 'a' && r <= 'z':
		return 8
	default:
		return 6
	}
}
