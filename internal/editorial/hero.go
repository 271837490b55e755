package editorial

import (
	"math"
	"sort"
	"strconv"

	"github.com/polynews/backend/internal/domain"
)

// SelectHero picks the top three most newsworthy markets for the hero
// section: one primary and up to two secondaries.
//
// Only markets whose absolute 24h change meets MinChangeThreshold are
// eligible; with no eligible markets the top three by volume are used
// instead. Markets sharing a cluster count as one story, and secondaries
// prefer categories different from the primary's.
func SelectHero(markets []*domain.EditorialMarket, params NewsworthinessParams) (*domain.EditorialMarket, []*domain.EditorialMarket) {
	var eligible []*domain.EditorialMarket
	for _, m := range markets {
		if math.Abs(m.Change24h) >= params.MinChangeThreshold {
			eligible = append(eligible, m)
		}
	}

	if len(eligible) == 0 {
		byVolume := make([]*domain.EditorialMarket, len(markets))
		copy(byVolume, markets)
		sort.SliceStable(byVolume, func(i, j int) bool {
			return byVolume[i].Volume > byVolume[j].Volume
		})
		if len(byVolume) == 0 {
			return nil, nil
		}
		end := len(byVolume)
		if end > 3 {
			end = 3
		}
		return byVolume[0], byVolume[1:end]
	}

	type scored struct {
		market *domain.EditorialMarket
		score  float64
	}
	ranked := make([]scored, 0, len(eligible))
	for _, m := range eligible {
		ranked = append(ranked, scored{m, params.Newsworthiness(m.Change24h, m.Volume, 0)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	// One market per cluster; unclustered markets stand alone.
	seen := make(map[string]bool)
	var dedup []*domain.EditorialMarket
	for _, s := range ranked {
		key := s.market.ID
		if s.market.ClusterID != nil {
			key = "cluster:" + strconv.Itoa(*s.market.ClusterID)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		dedup = append(dedup, s.market)
	}
	if len(dedup) == 0 {
		return nil, nil
	}

	primary := dedup[0]
	remaining := dedup[1:]

	var second, third *domain.EditorialMarket
	for _, m := range remaining {
		if second == nil && m.Category != primary.Category {
			second = m
		} else if third == nil && m.Category != primary.Category && m != second {
			third = m
		}
		if second != nil && third != nil {
			break
		}
	}
	if second == nil && len(remaining) > 0 {
		second = remaining[0]
	}
	if third == nil {
		for _, m := range remaining {
			if m != second {
				third = m
				break
			}
		}
	}

	var secondary []*domain.EditorialMarket
	if second != nil {
		secondary = append(secondary, second)
	}
	if third != nil {
		secondary = append(secondary, third)
	}
	return primary, secondary
}
