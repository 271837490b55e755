package editorial

import (
	"regexp"
	"strconv"
	"strings"
)

// ThresholdRule extracts a subject and a numeric threshold from a market
// question. Rules are evaluated in order, first match wins.
type ThresholdRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// DefaultThresholdRules covers the common phrasings of price-threshold
// questions ("Will the price of Bitcoin be above $60,000 on February 13?").
var DefaultThresholdRules = []ThresholdRule{
	{
		Name:    "price-of-above",
		Pattern: regexp.MustCompile(`(?i)price of (.+?) (?:be )?above \$?([\d,]+(?:\.\d+)?)`),
	},
	{
		Name:    "above",
		Pattern: regexp.MustCompile(`(?i)(.+?) (?:be )?above \$?([\d,]+(?:\.\d+)?)`),
	},
	{
		Name:    "exceed",
		Pattern: regexp.MustCompile(`(?i)(.+?) exceed \$?([\d,]+(?:\.\d+)?)`),
	},
}

var (
	willPrefixRe = regexp.MustCompile(`(?i)^will\s+`)
	dollarRe     = regexp.MustCompile(`\$[\d,]+(?:\.\d+)?`)
	monthDayRe   = regexp.MustCompile(`(?i)(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// NormalizeTitle collapses a market question to its comparison key:
// lowercased, "will" prefix and trailing "?" stripped, dollar amounts
// replaced with THRESHOLD and month-day dates with DATE. Two questions that
// differ only in their threshold normalize to the same string.
func NormalizeTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	t = willPrefixRe.ReplaceAllString(t, "")
	t = strings.TrimSpace(strings.TrimRight(t, "?"))
	t = dollarRe.ReplaceAllString(t, "THRESHOLD")
	t = monthDayRe.ReplaceAllString(t, "DATE")
	return strings.TrimSpace(spaceRe.ReplaceAllString(t, " "))
}

// ExtractThreshold returns the numeric threshold in a question, or false
// when no rule matches.
func ExtractThreshold(rules []ThresholdRule, title string) (float64, bool) {
	for _, r := range rules {
		m := r.Pattern.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

// ExtractSubject returns the subject of a threshold question, e.g.
// "Bitcoin" from "Will Bitcoin be above $60,000?".
func ExtractSubject(rules []ThresholdRule, title string) (string, bool) {
	title = willPrefixRe.ReplaceAllString(strings.TrimSpace(title), "")
	for _, r := range rules {
		m := r.Pattern.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}
