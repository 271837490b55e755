package editorial

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polynews/backend/internal/domain"
)

func TestAssignSectionsExcludesHeroesAndNeverDoubleAssigns(t *testing.T) {
	hero := mkMarket("hero", "Will the president win the election?", 30, 9e6, domain.CategoryPolitics)
	highConf := mkMarket("hc", "Will NATO expand?", 1, 5e6, domain.CategoryPolitics)
	highConf.Probability = 95
	geo := mkMarket("geo", "Will the ceasefire hold?", 8, 2e6, domain.CategoryPolitics)
	tech := mkMarket("tech", "Will Nvidia beat earnings?", 6, 3e6, domain.CategoryTech)

	markets := []*domain.EditorialMarket{hero, highConf, geo, tech}
	sections := AssignSections(markets, map[string]bool{"hero": true})

	require.Len(t, sections, 3)
	assert.Equal(t, "High Confidence · >90%", sections[0].Label)
	assert.Equal(t, "Geopolitics & Conflict", sections[1].Label)
	assert.Equal(t, "Tech & Markets", sections[2].Label)

	// Each market appears in exactly one section, and the hero in none.
	seen := map[string]int{}
	for _, sec := range sections {
		for _, m := range sec.Markets {
			seen[m.ID]++
		}
	}
	assert.NotContains(t, seen, "hero")
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
	// "hc" is politics but was claimed by High Confidence first.
	assert.Contains(t, seen, "hc")
	assert.Equal(t, []string{"geo"}, idsOf(sections[1].Markets))
	assert.Equal(t, []string{"tech"}, idsOf(sections[2].Markets))
}

func TestAssignSectionsCapsAndOrdering(t *testing.T) {
	var markets []*domain.EditorialMarket
	for i := 0; i < 8; i++ {
		m := mkMarket(fmt.Sprintf("hc%d", i), "Will it settle?", 1, float64(i)*1000, domain.CategoryOther)
		m.Probability = 90 + i
		markets = append(markets, m)
	}

	sections := AssignSections(markets, nil)
	require.Len(t, sections, 1)
	sec := sections[0]
	assert.Equal(t, "compact", sec.CardVariant)
	assert.Equal(t, 3, sec.GridCols)
	require.Len(t, sec.Markets, 6)
	// Highest probability first.
	assert.Equal(t, "hc7", sec.Markets[0].ID)
	assert.Equal(t, "hc2", sec.Markets[5].ID)
}

func TestAssignSectionsKeywordMatch(t *testing.T) {
	m := mkMarket("kw", "Will sanctions be lifted this year?", 5, 1000, domain.CategoryOther)
	sections := AssignSections([]*domain.EditorialMarket{m}, nil)
	require.Len(t, sections, 1)
	assert.Equal(t, "Geopolitics & Conflict", sections[0].Label)
}

func TestAssignSectionsEmpty(t *testing.T) {
	assert.Empty(t, AssignSections(nil, nil))
}

func TestSelectTickerTruncatesAndRanksByAbsChange(t *testing.T) {
	long := mkMarket("long", "Will this extremely long market question about world events resolve yes?", -18, 100, domain.CategoryOther)
	small := mkMarket("small", "Will X happen?", 3, 100, domain.CategoryOther)
	mid := mkMarket("mid", "Will Y happen?", 9, 100, domain.CategoryOther)

	items := SelectTicker([]*domain.EditorialMarket{small, long, mid}, 2)
	require.Len(t, items, 2)
	assert.LessOrEqual(t, len(items[0].Label), 40)
	assert.Equal(t, -18.0, items[0].Change)
	assert.Equal(t, 9.0, items[1].Change)
}

func TestSelectMovers(t *testing.T) {
	a := mkMarket("a", "Will A happen?", -12, 100, domain.CategoryOther)
	b := mkMarket("b", "Will B happen?", 4, 100, domain.CategoryOther)

	movers := SelectMovers([]*domain.EditorialMarket{b, a}, 8)
	require.Len(t, movers, 2)
	assert.Equal(t, "a", movers[0].ID)
	assert.Equal(t, "b", movers[1].ID)
}

func idsOf(ms []domain.EditorialMarket) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}
