package editorial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polynews/backend/internal/domain"
)

func mkMarket(id, question string, change float64, volume float64, category domain.Category) *domain.EditorialMarket {
	probability := 50
	return &domain.EditorialMarket{
		ID:          id,
		Question:    question,
		Headline:    ToHeadline(question, probability),
		Category:    category,
		Probability: probability,
		Change24h:   change,
		Volume:      volume,
		Status:      "active",
	}
}

func TestNormalizeTitleCollapsesThresholdAndDate(t *testing.T) {
	a := NormalizeTitle("Will Bitcoin be above $50,000 on February 13?")
	b := NormalizeTitle("Will Bitcoin be above $70,000 on March 2?")
	assert.Equal(t, a, b)
	assert.Equal(t, "bitcoin be above THRESHOLD on DATE", a)
}

func TestExtractThreshold(t *testing.T) {
	v, ok := ExtractThreshold(DefaultThresholdRules, "Will Bitcoin be above $60,000?")
	require.True(t, ok)
	assert.Equal(t, 60000.0, v)

	v, ok = ExtractThreshold(DefaultThresholdRules, "Will the price of Ethereum be above $4,500.50 on May 1?")
	require.True(t, ok)
	assert.Equal(t, 4500.50, v)

	_, ok = ExtractThreshold(DefaultThresholdRules, "Will it rain tomorrow?")
	assert.False(t, ok)
}

func TestClusterThreeThresholdMarkets(t *testing.T) {
	markets := []*domain.EditorialMarket{
		mkMarket("b70", "Will Bitcoin be above $70,000?", 1, 100, domain.CategoryCrypto),
		mkMarket("b50", "Will Bitcoin be above $50,000?", 2, 300, domain.CategoryCrypto),
		mkMarket("b60", "Will Bitcoin be above $60,000?", 3, 200, domain.CategoryCrypto),
	}

	clusters := NewClusterer(nil).Cluster(markets)
	require.Len(t, clusters, 1)

	c := clusters[0]
	assert.Equal(t, 1, c.ID)
	assert.Equal(t, "Bitcoin Price Outlook", c.Title)
	assert.Equal(t, "STORY", c.Tag)

	// Members ordered by threshold ascending with compact headlines.
	require.Len(t, c.Markets, 3)
	assert.Equal(t, []string{"b50", "b60", "b70"}, []string{c.Markets[0].ID, c.Markets[1].ID, c.Markets[2].ID})
	assert.Equal(t, "Above $50,000", c.Markets[0].Headline)
	assert.Equal(t, "Above $60,000", c.Markets[1].Headline)
	assert.Equal(t, "Above $70,000", c.Markets[2].Headline)

	// Source markets carry the cluster id.
	for _, m := range markets {
		require.NotNil(t, m.ClusterID)
		assert.Equal(t, 1, *m.ClusterID)
	}
}

func TestClusterRequiresThreeMembers(t *testing.T) {
	markets := []*domain.EditorialMarket{
		mkMarket("b50", "Will Bitcoin be above $50,000?", 2, 300, domain.CategoryCrypto),
		mkMarket("b60", "Will Bitcoin be above $60,000?", 3, 200, domain.CategoryCrypto),
	}

	clusters := NewClusterer(nil).Cluster(markets)
	assert.Empty(t, clusters)
	for _, m := range markets {
		assert.Nil(t, m.ClusterID)
	}
}

func TestClusterIDsFollowFirstSeenOrder(t *testing.T) {
	markets := []*domain.EditorialMarket{
		mkMarket("e3", "Will Ethereum be above $3,000?", 0, 0, domain.CategoryCrypto),
		mkMarket("b50", "Will Bitcoin be above $50,000?", 0, 0, domain.CategoryCrypto),
		mkMarket("e4", "Will Ethereum be above $4,000?", 0, 0, domain.CategoryCrypto),
		mkMarket("b60", "Will Bitcoin be above $60,000?", 0, 0, domain.CategoryCrypto),
		mkMarket("e5", "Will Ethereum be above $5,000?", 0, 0, domain.CategoryCrypto),
		mkMarket("b70", "Will Bitcoin be above $70,000?", 0, 0, domain.CategoryCrypto),
	}

	clusters := NewClusterer(nil).Cluster(markets)
	require.Len(t, clusters, 2)
	assert.Equal(t, "Ethereum Price Outlook", clusters[0].Title)
	assert.Equal(t, 1, clusters[0].ID)
	assert.Equal(t, "Bitcoin Price Outlook", clusters[1].Title)
	assert.Equal(t, 2, clusters[1].ID)
}

func TestThresholdHeadlineFormats(t *testing.T) {
	assert.Equal(t, "Above $1,000", thresholdHeadline(1000))
	assert.Equal(t, "Above $60,000", thresholdHeadline(60000))
	assert.Equal(t, "Above $999", thresholdHeadline(999))
	assert.Equal(t, "Above $2.5", thresholdHeadline(2.5))
}
