package editorial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polynews/backend/internal/domain"
)

func TestSelectHeroPrefersNewsworthyWithCategoryDiversity(t *testing.T) {
	params := DefaultNewsworthinessParams()
	markets := []*domain.EditorialMarket{
		mkMarket("a", "Will A happen?", 25, 5e6, domain.CategoryPolitics),
		mkMarket("b", "Will B happen?", 20, 4e6, domain.CategoryPolitics),
		mkMarket("c", "Will C happen?", 15, 3e6, domain.CategoryCrypto),
		mkMarket("d", "Will D happen?", 10, 2e6, domain.CategoryTech),
	}

	primary, secondary := SelectHero(markets, params)
	require.NotNil(t, primary)
	assert.Equal(t, "a", primary.ID)

	// Secondaries skip "b" (same category as primary) in favor of c and d.
	require.Len(t, secondary, 2)
	assert.Equal(t, "c", secondary[0].ID)
	assert.Equal(t, "d", secondary[1].ID)
}

func TestSelectHeroDeduplicatesClusters(t *testing.T) {
	params := DefaultNewsworthinessParams()
	one := 1
	markets := []*domain.EditorialMarket{
		mkMarket("b50", "Will Bitcoin be above $50,000?", 30, 9e6, domain.CategoryCrypto),
		mkMarket("b60", "Will Bitcoin be above $60,000?", 28, 8e6, domain.CategoryCrypto),
		mkMarket("p", "Will the election be contested?", 12, 1e6, domain.CategoryPolitics),
	}
	markets[0].ClusterID = &one
	markets[1].ClusterID = &one

	primary, secondary := SelectHero(markets, params)
	require.NotNil(t, primary)
	assert.Equal(t, "b50", primary.ID)

	// The second cluster member is suppressed; the politics market steps in.
	require.Len(t, secondary, 1)
	assert.Equal(t, "p", secondary[0].ID)
}

func TestSelectHeroFallsBackToVolumeWhenFlat(t *testing.T) {
	params := DefaultNewsworthinessParams()
	markets := []*domain.EditorialMarket{
		mkMarket("low", "Will X happen?", 0.5, 100, domain.CategoryOther),
		mkMarket("high", "Will Y happen?", 1.0, 9000, domain.CategoryOther),
		mkMarket("mid", "Will Z happen?", 0.1, 5000, domain.CategoryOther),
	}

	primary, secondary := SelectHero(markets, params)
	require.NotNil(t, primary)
	assert.Equal(t, "high", primary.ID)
	require.Len(t, secondary, 2)
	assert.Equal(t, "mid", secondary[0].ID)
	assert.Equal(t, "low", secondary[1].ID)
}

func TestSelectHeroSameCategoryFallback(t *testing.T) {
	params := DefaultNewsworthinessParams()
	markets := []*domain.EditorialMarket{
		mkMarket("a", "Will A happen?", 25, 5e6, domain.CategoryPolitics),
		mkMarket("b", "Will B happen?", 20, 4e6, domain.CategoryPolitics),
		mkMarket("c", "Will C happen?", 15, 3e6, domain.CategoryPolitics),
	}

	primary, secondary := SelectHero(markets, params)
	require.NotNil(t, primary)
	assert.Equal(t, "a", primary.ID)
	// No diverse categories exist, so the next-best same-category markets fill in.
	require.Len(t, secondary, 2)
	assert.Equal(t, "b", secondary[0].ID)
	assert.Equal(t, "c", secondary[1].ID)
}

func TestSelectHeroEmptyInput(t *testing.T) {
	primary, secondary := SelectHero(nil, DefaultNewsworthinessParams())
	assert.Nil(t, primary)
	assert.Empty(t, secondary)
}
