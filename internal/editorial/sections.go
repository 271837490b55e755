package editorial

import (
	"math"
	"sort"
	"strings"

	"github.com/polynews/backend/internal/domain"
)

var geopoliticsKeywords = map[string]struct{}{
	"war": {}, "government": {}, "minister": {}, "president": {}, "election": {},
	"strike": {}, "nato": {}, "capture": {}, "military": {}, "sanctions": {},
	"ceasefire": {}, "invasion": {}, "diplomacy": {}, "parliament": {}, "coalition": {},
}

var techKeywords = map[string]struct{}{
	"nvidia": {}, "apple": {}, "microsoft": {}, "google": {}, "ai": {}, "bitcoin": {},
	"ethereum": {}, "crypto": {}, "tesla": {}, "openai": {}, "meta": {}, "amazon": {},
}

// AssignSections distributes non-hero markets into the fixed editorial
// sections, in priority order: High Confidence, Geopolitics, Tech. A market
// claimed by an earlier section never appears in a later one. Sections with
// no members are omitted.
func AssignSections(markets []*domain.EditorialMarket, heroIDs map[string]bool) []domain.FeedSection {
	var remaining []*domain.EditorialMarket
	for _, m := range markets {
		if !heroIDs[m.ID] {
			remaining = append(remaining, m)
		}
	}

	var sections []domain.FeedSection

	// High Confidence: probability 90 and up.
	var highConf []*domain.EditorialMarket
	for _, m := range remaining {
		if m.Probability >= 90 {
			highConf = append(highConf, m)
		}
	}
	sort.SliceStable(highConf, func(i, j int) bool {
		if highConf[i].Probability != highConf[j].Probability {
			return highConf[i].Probability > highConf[j].Probability
		}
		return highConf[i].Volume > highConf[j].Volume
	})
	highConf = capMarkets(highConf, 6)
	if len(highConf) > 0 {
		sections = append(sections, domain.FeedSection{
			Label:       "High Confidence · >90%",
			Type:        "default",
			CardVariant: "compact",
			GridCols:    3,
			Markets:     deref(highConf),
		})
	}
	claimed := idSet(highConf)

	// Geopolitics: politics category or conflict keywords in the question.
	var geo []*domain.EditorialMarket
	for _, m := range remaining {
		if claimed[m.ID] {
			continue
		}
		if m.Category == domain.CategoryPolitics || containsKeyword(m.Question, geopoliticsKeywords) {
			geo = append(geo, m)
		}
	}
	sortByChangeThenVolume(geo)
	geo = capMarkets(geo, 4)
	if len(geo) > 0 {
		sections = append(sections, domain.FeedSection{
			Label:       "Geopolitics & Conflict",
			Type:        "default",
			CardVariant: "mini",
			GridCols:    2,
			Markets:     deref(geo),
		})
	}
	for id := range idSet(geo) {
		claimed[id] = true
	}

	// Tech & Markets: tech/crypto category or tech keywords.
	var tech []*domain.EditorialMarket
	for _, m := range remaining {
		if claimed[m.ID] {
			continue
		}
		if m.Category == domain.CategoryTech || m.Category == domain.CategoryCrypto ||
			containsKeyword(m.Question, techKeywords) {
			tech = append(tech, m)
		}
	}
	sortByChangeThenVolume(tech)
	tech = capMarkets(tech, 4)
	if len(tech) > 0 {
		sections = append(sections, domain.FeedSection{
			Label:       "Tech & Markets",
			Type:        "default",
			CardVariant: "medium",
			GridCols:    2,
			Markets:     deref(tech),
		})
	}

	return sections
}

// SelectTicker returns the count markets with the largest absolute 24h
// change as compact ticker items. Headlines are truncated to 40 characters.
func SelectTicker(markets []*domain.EditorialMarket, count int) []domain.TickerItem {
	top := topByChange(markets, count)
	items := make([]domain.TickerItem, 0, len(top))
	for _, m := range top {
		label := m.Headline
		if len(label) > 40 {
			label = label[:40]
		}
		items = append(items, domain.TickerItem{
			Label:       label,
			Change:      m.Change24h,
			Probability: m.Probability,
		})
	}
	return items
}

// SelectMovers returns the count biggest movers for the sidebar.
func SelectMovers(markets []*domain.EditorialMarket, count int) []domain.EditorialMarket {
	return deref(topByChange(markets, count))
}

func topByChange(markets []*domain.EditorialMarket, count int) []*domain.EditorialMarket {
	sorted := make([]*domain.EditorialMarket, len(markets))
	copy(sorted, markets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Change24h) > math.Abs(sorted[j].Change24h)
	})
	return capMarkets(sorted, count)
}

func sortByChangeThenVolume(ms []*domain.EditorialMarket) {
	sort.SliceStable(ms, func(i, j int) bool {
		ci, cj := math.Abs(ms[i].Change24h), math.Abs(ms[j].Change24h)
		if ci != cj {
			return ci > cj
		}
		return ms[i].Volume > ms[j].Volume
	})
}

func containsKeyword(question string, keywords map[string]struct{}) bool {
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.Trim(word, ".,?!:;\"'()$")
		if _, ok := keywords[word]; ok {
			return true
		}
	}
	return false
}

func capMarkets(ms []*domain.EditorialMarket, n int) []*domain.EditorialMarket {
	if len(ms) > n {
		return ms[:n]
	}
	return ms
}

func idSet(ms []*domain.EditorialMarket) map[string]bool {
	set := make(map[string]bool, len(ms))
	for _, m := range ms {
		set[m.ID] = true
	}
	return set
}

func deref(ms []*domain.EditorialMarket) []domain.EditorialMarket {
	out := make([]domain.EditorialMarket, 0, len(ms))
	for _, m := range ms {
		out = append(out, *m)
	}
	return out
}
