package nodule_extractor

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize prepares a report sentence for extraction: NFKC folding (full-width
// digits and compatibility letters become ASCII), control characters replaced
// by spaces, runs of whitespace collapsed and the ends trimmed.
func Normalize(text string) string {
	folded := norm.NFKC.String(text)

	var sb strings.Builder
	sb.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			pendingSpace = sb.Len() > 0
			continue
		}
		if pendingSpace {
			sb.WriteByte(' ')
			pendingSpace = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

//Personal.AI order the ending
