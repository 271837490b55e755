package editorial

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polynews/backend/internal/domain"
)

func feedRow(id, question string, category domain.Category, price float64, dayAgo *float64, volume float64) domain.FeedRow {
	return domain.FeedRow{
		ID:           id,
		Question:     question,
		Category:     category,
		Status:       "active",
		CurrentPrice: price,
		Price24hAgo:  dayAgo,
		Volume:       volume,
	}
}

func ptr(v float64) *float64 { return &v }

func TestBuildMarketDerivesChangeAndProbability(t *testing.T) {
	m := BuildMarket(feedRow("m1", "Will it happen?", domain.CategoryOther, 0.62, ptr(0.50), 1000))
	assert.Equal(t, 62, m.Probability)
	assert.Equal(t, 12.0, m.Change24h)
	assert.NotEmpty(t, m.Headline)
	assert.NotEmpty(t, m.Summary)

	noHistory := BuildMarket(feedRow("m2", "Will it happen?", domain.CategoryOther, 0.62, nil, 1000))
	assert.Zero(t, noHistory.Change24h)
	assert.Nil(t, noHistory.Price24hAgo)
}

func TestComposeFullLayout(t *testing.T) {
	var rows []domain.FeedRow

	// A Bitcoin threshold ladder that should cluster.
	for i, threshold := range []int{50000, 60000, 70000} {
		rows = append(rows, feedRow(
			fmt.Sprintf("btc%d", i),
			fmt.Sprintf("Will Bitcoin be above $%d,000?", threshold/1000),
			domain.CategoryCrypto,
			0.6-float64(i)*0.1, ptr(0.5), float64(9-i)*1e6,
		))
	}

	// Big movers across categories.
	rows = append(rows,
		feedRow("pol", "Will the president call an election?", domain.CategoryPolitics, 0.70, ptr(0.45), 8e6),
		feedRow("tech", "Will Nvidia announce a new chip?", domain.CategoryTech, 0.30, ptr(0.55), 7e6),
	)

	// High-confidence filler.
	for i := 0; i < 3; i++ {
		rows = append(rows, feedRow(
			fmt.Sprintf("hc%d", i),
			fmt.Sprintf("Will settlement %d clear?", i),
			domain.CategoryOther,
			0.95, ptr(0.95), float64(i)*1000,
		))
	}

	lastSync := time.Date(2026, 8, 30, 11, 58, 0, 0, time.UTC)
	meta := domain.FeedMeta{
		TotalMarkets:  int64(len(rows)),
		LastSync:      &lastSync,
		SourcesStatus: map[string]string{"polymarket": "connected"},
	}
	resolved := []domain.FeedRow{
		feedRow("done", "Will the match finish on time?", domain.CategorySports, 1.0, nil, 5e5),
	}

	engine := NewEngine(DefaultNewsworthinessParams(), 8, 8)
	layout := engine.Compose(rows, resolved, meta)

	// Clustering
	require.Len(t, layout.Clusters, 1)
	assert.Equal(t, "Bitcoin Price Outlook", layout.Clusters[0].Title)
	assert.Len(t, layout.Clusters[0].Markets, 3)

	// Hero: primary exists, secondaries avoid the primary's category, and
	// no two heroes share a cluster.
	require.NotNil(t, layout.Hero.Primary)
	heroIDs := map[string]bool{layout.Hero.Primary.ID: true}
	clusterSeen := map[int]bool{}
	if layout.Hero.Primary.ClusterID != nil {
		clusterSeen[*layout.Hero.Primary.ClusterID] = true
	}
	for _, s := range layout.Hero.Secondary {
		assert.False(t, heroIDs[s.ID])
		heroIDs[s.ID] = true
		if s.ClusterID != nil {
			assert.False(t, clusterSeen[*s.ClusterID])
			clusterSeen[*s.ClusterID] = true
		}
	}

	// Sections never contain hero markets and never overlap.
	seen := map[string]bool{}
	for _, sec := range layout.Sections {
		require.NotEmpty(t, sec.Markets)
		for _, m := range sec.Markets {
			assert.False(t, heroIDs[m.ID], m.ID)
			assert.False(t, seen[m.ID], m.ID)
			seen[m.ID] = true
		}
	}

	// Ticker and movers are ranked by absolute change.
	require.NotEmpty(t, layout.Ticker)
	for i := 1; i < len(layout.Ticker); i++ {
		assert.GreaterOrEqual(t, abs(layout.Ticker[i-1].Change), abs(layout.Ticker[i].Change))
	}
	assert.NotEmpty(t, layout.Movers)

	// Recently resolved and meta pass through.
	require.Len(t, layout.RecentlyResolved, 1)
	assert.Equal(t, "done", layout.RecentlyResolved[0].ID)
	assert.Equal(t, meta.TotalMarkets, layout.Meta.TotalMarkets)
	assert.Equal(t, "connected", layout.Meta.SourcesStatus["polymarket"])
}

func TestComposeEmptyRows(t *testing.T) {
	engine := NewEngine(DefaultNewsworthinessParams(), 8, 8)
	layout := engine.Compose(nil, nil, domain.FeedMeta{})

	assert.Nil(t, layout.Hero.Primary)
	assert.Empty(t, layout.Clusters)
	assert.Empty(t, layout.Sections)
	assert.Empty(t, layout.Ticker)
	assert.Empty(t, layout.RecentlyResolved)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
