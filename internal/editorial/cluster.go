package editorial

import (
	"fmt"
	"sort"

	"github.com/polynews/backend/internal/domain"
)

// Clusterer groups markets that represent thresholds of the same underlying
// question, e.g. a ladder of Bitcoin price levels.
type Clusterer struct {
	rules []ThresholdRule
}

// NewClusterer builds a Clusterer with the given extraction rules; nil rules
// fall back to DefaultThresholdRules.
func NewClusterer(rules []ThresholdRule) *Clusterer {
	if rules == nil {
		rules = DefaultThresholdRules
	}
	return &Clusterer{rules: rules}
}

type clusterMember struct {
	market    *domain.EditorialMarket
	threshold float64
}

// Cluster groups the given markets by normalized title, keeping only groups
// of three or more. Cluster ids are assigned sequentially from 1 in the
// order each group is first seen, members are sorted by threshold ascending,
// and each member's headline is replaced with a compact "Above $X" label.
// Cluster ids are ephemeral: they are recomputed on every call and must not
// be treated as stable references.
func (c *Clusterer) Cluster(markets []*domain.EditorialMarket) []domain.Cluster {
	groups := make(map[string][]clusterMember)
	var order []string

	for _, m := range markets {
		threshold, ok := ExtractThreshold(c.rules, m.Question)
		if !ok {
			continue
		}
		key := NormalizeTitle(m.Question)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], clusterMember{market: m, threshold: threshold})
	}

	var clusters []domain.Cluster
	nextID := 1

	for _, key := range order {
		group := groups[key]
		if len(group) < 3 {
			continue
		}

		sort.SliceStable(group, func(i, j int) bool {
			return group[i].threshold < group[j].threshold
		})

		title := "Related Markets"
		if subject, ok := ExtractSubject(c.rules, group[0].market.Question); ok {
			title = subject + " Price Outlook"
		}

		members := make([]domain.EditorialMarket, 0, len(group))
		for _, cm := range group {
			id := nextID
			cm.market.ClusterID = &id
			cm.market.Headline = thresholdHeadline(cm.threshold)
			members = append(members, *cm.market)
		}

		clusters = append(clusters, domain.Cluster{
			ID:      nextID,
			Title:   title,
			Tag:     "STORY",
			Markets: members,
		})
		nextID++
	}

	return clusters
}

// thresholdHeadline renders "Above $60,000" style labels, with thousands
// separators for values of 1000 and up.
func thresholdHeadline(threshold float64) string {
	if threshold >= 1000 {
		return "Above $" + groupThousands(int64(threshold+0.5))
	}
	if threshold == float64(int64(threshold)) {
		return fmt.Sprintf("Above $%d", int64(threshold))
	}
	return fmt.Sprintf("Above $%g", threshold)
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
