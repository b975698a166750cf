// Package textnorm cleans extracted statute text before it is chunked.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultMarkers identify page header/footer lines stamped by the national law portal.
var DefaultMarkers = []string{"국가법령정보센터", "법제처"}

var (
	annotationRe = regexp.MustCompile(`<[^>]+>`)
	pageNumberRe = regexp.MustCompile(`^\d+$`)
	boundaryRe   = regexp.MustCompile(`^제\s*\d+[장조]`)
	hspaceRunRe  = regexp.MustCompile(`[ \t]{2,}`)
	newlineRunRe = regexp.MustCompile(`\n{3,}`)
)

// Normalizer strips page furniture and undoes line wrapping while keeping
// chapter and article starts on their own lines.
type Normalizer struct {
	markers []string
}

// New returns a Normalizer that drops lines containing any of markers.
// With no markers, DefaultMarkers are used.
func New(markers ...string) *Normalizer {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	return &Normalizer{markers: markers}
}

// Normalize is a pure transform; malformed input degrades, it never fails.
func (n *Normalizer) Normalize(raw string) string {
	text := norm.NFC.String(raw)
	text = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n").Replace(text)

	// Editorial history such as <개정 2020. 1. 1.>.
	text = annotationRe.ReplaceAllString(text, "")

	var out strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || n.isFurniture(line) || pageNumberRe.MatchString(line) {
			continue
		}
		if out.Len() > 0 {
			if IsBoundary(line) {
				out.WriteByte('\n')
			} else {
				out.WriteByte(' ')
			}
		}
		out.WriteString(line)
	}

	text = hspaceRunRe.ReplaceAllString(out.String(), " ")
	text = newlineRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func (n *Normalizer) isFurniture(line string) bool {
	for _, m := range n.markers {
		if m != "" && strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// IsBoundary reports whether a trimmed line opens a chapter or an article
// (제N장..., 제N조..., 제N조의M...).
func IsBoundary(line string) bool {
	return boundaryRe.MatchString(line)
}
