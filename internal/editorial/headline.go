package editorial

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	priceOfAboveRe = regexp.MustCompile(`(?i)the price of (.+?) be above`)
	bareBeRe       = regexp.MustCompile(`\bbe\b\s+`)
)

// ToHeadline converts a question-format market title to a declarative news
// headline, framed by probability: 80 and up reads as the expected outcome,
// 40-79 gets an uncertainty marker, below 40 is presented as unlikely.
// Probability is on the 0-100 scale.
func ToHeadline(title string, probability int) string {
	h := strings.TrimSpace(title)
	h = willPrefixRe.ReplaceAllString(h, "")
	h = strings.TrimSpace(strings.TrimRight(h, "?"))

	if h != "" {
		r := []rune(h)
		r[0] = unicode.ToUpper(r[0])
		h = string(r)
	}

	h = priceOfAboveRe.ReplaceAllStringFunc(h, func(s string) string {
		m := priceOfAboveRe.FindStringSubmatch(s)
		return m[1] + " Price Above"
	})
	h = bareBeRe.ReplaceAllString(h, "")

	switch {
	case probability >= 80:
		// Present as the expected outcome, no suffix.
	case probability >= 40:
		if !containsAny(h, "question", "uncertain", "jeopardy") {
			h += " — Outcome Uncertain"
		}
	default:
		if !containsAny(h, "unlikely", "doubt") {
			h += " Remains Unlikely"
		}
	}

	return h
}

func containsAny(s string, words ...string) bool {
	lower := strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
