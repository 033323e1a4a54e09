package rules

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var foldCaser = cases.Fold()

// NormalizeText folds user-submitted text into the canonical form all
// category matchers run against: NFKC normalization, case folding and
// whitespace collapse. Matching offsets refer to this form.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}

	normalized := norm.NFKC.String(text)
	folded := foldCaser.String(normalized)

	var b strings.Builder
	b.Grow(len(folded))
	previousSpace := false
	for _, r := range folded {
		if unicode.IsSpace(r) {
			if !previousSpace {
				b.WriteRune(' ')
			}
			previousSpace = true
			continue
		}
		previousSpace = false
		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}

// CollapseRepeats shortens runs of the same rune longer than max to
// exactly max occurrences ("heeeey" -> "heey" for max=2). Spam phrasing
// often stretches characters to dodge keyword matchers.
func CollapseRepeats(text string, max int) string {
	if max <= 0 || text == "" {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	var last rune
	run := 0
	for i, r := range text {
		if i > 0 && r == last {
			run++
		} else {
			run = 1
		}
		if run <= max {
			b.WriteRune(r)
		}
		last = r
	}

	return b.String()
}
