package chunker

import (
	"regexp"
	"strings"
)

var (
	// Particles and phrases that continue a cross-reference: 제5조를 참고, 제5조에 따라, 제5조제2항.
	referenceAfterRe = regexp.MustCompile(`^(?:을|를|에|의|에\s*따르면|를\s*참고|에\s*따라|에\s*의하여|에\s*의한|제\s*\d+항)`)

	// Another article reference followed by a particle or connective.
	referenceBeforeRe = regexp.MustCompile(`제\s*\d+(?:조(?:의\s*\d+)?)?(?:제\s*\d+항)?(?:을|를|에|의|및|와|과)`)
)

// IsArticleStart decides whether matched (a 제N조 header candidate) opens a new
// article or merely cites one, given the text immediately before and after it.
// Citing needs explicit evidence; anything ambiguous counts as an article start.
func IsArticleStart(before, matched, after string) bool {
	afterTrimmed := strings.TrimSpace(after)

	if atLineStart(before) {
		return !referenceAfterRe.MatchString(afterTrimmed)
	}
	if referenceBeforeRe.MatchString(strings.TrimSpace(before)) {
		return false
	}
	if referenceAfterRe.MatchString(afterTrimmed) {
		return false
	}
	return true
}

// atLineStart reports whether before is blank or ends with a line break
// followed only by horizontal whitespace.
func atLineStart(before string) bool {
	if strings.TrimSpace(before) == "" {
		return true
	}
	return strings.HasSuffix(strings.TrimRight(before, " \t"), "\n")
}
