package polymarket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polynews/backend/internal/domain"
)

func TestNormalizeStringEncodedFields(t *testing.T) {
	raw := []byte(`{
		"id": "mkt-1",
		"question": "Will Bitcoin be above $100,000?",
		"category": "Crypto",
		"slug": "btc-100k",
		"image": "https://img.example/btc.png",
		"active": "true",
		"closed": false,
		"outcomes": "[\"Yes\",\"No\"]",
		"outcomePrices": "[\"0.65\",\"0.35\"]",
		"volume": "123456.78",
		"liquidity": "9876.5",
		"endDate": "2026-12-31T00:00:00Z",
		"createdAt": "2026-01-15T10:00:00Z"
	}`)

	var m APIMarket
	require.NoError(t, json.Unmarshal(raw, &m))

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	im := m.Normalize(now)

	assert.Equal(t, "mkt-1", im.ID)
	assert.Equal(t, domain.CategoryCrypto, im.Category)
	assert.Equal(t, domain.MarketStatusActive, im.Status)
	assert.Equal(t, 0.65, im.YesPrice)
	assert.Equal(t, 0.35, im.NoPrice)
	assert.Equal(t, 123456.78, im.Volume)
	assert.Equal(t, 9876.5, im.OpenInterest)
	assert.Equal(t, []string{"Yes", "No"}, im.Outcomes)
	require.NotNil(t, im.ResolutionDate)
	assert.Equal(t, 2026, im.ResolutionDate.Year())
	assert.Equal(t, time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC), im.Market.CreatedAt)
	assert.Empty(t, im.Anomalies)
}

func TestNormalizePlainJSONFields(t *testing.T) {
	raw := []byte(`{
		"id": "mkt-2",
		"question": "Q?",
		"active": true,
		"closed": false,
		"outcomes": ["Yes","No"],
		"outcomePrices": ["0.10","0.90"],
		"volume": 42.5,
		"liquidity": 7
	}`)

	var m APIMarket
	require.NoError(t, json.Unmarshal(raw, &m))

	im := m.Normalize(time.Now().UTC())

	assert.Equal(t, 0.10, im.YesPrice)
	assert.Equal(t, 0.90, im.NoPrice)
	assert.Equal(t, 42.5, im.Volume)
	assert.Equal(t, 7.0, im.OpenInterest)
	assert.Empty(t, im.Anomalies)
}

func TestNormalizeMalformedFieldsDefaultWithAnomalies(t *testing.T) {
	raw := []byte(`{
		"id": "mkt-3",
		"question": "Q?",
		"active": true,
		"closed": false,
		"outcomePrices": "not-json",
		"volume": "abc",
		"liquidity": "xyz",
		"endDate": "tomorrow"
	}`)

	var m APIMarket
	require.NoError(t, json.Unmarshal(raw, &m))

	im := m.Normalize(time.Now().UTC())

	assert.Equal(t, 0.5, im.YesPrice)
	assert.Equal(t, 0.5, im.NoPrice)
	assert.Zero(t, im.Volume)
	assert.Zero(t, im.OpenInterest)
	assert.Nil(t, im.ResolutionDate)
	assert.ElementsMatch(t, []string{"outcome_prices", "volume", "liquidity", "end_date"}, im.Anomalies)
}

func TestNormalizeMissingFieldsAreNotAnomalies(t *testing.T) {
	raw := []byte(`{"id": "mkt-4", "question": "Q?", "active": true}`)

	var m APIMarket
	require.NoError(t, json.Unmarshal(raw, &m))

	im := m.Normalize(time.Now().UTC())

	assert.Equal(t, 0.5, im.YesPrice)
	assert.Equal(t, 0.5, im.NoPrice)
	assert.Zero(t, im.Volume)
	assert.Zero(t, im.OpenInterest)
	assert.Equal(t, domain.CategoryOther, im.Category)
	assert.Empty(t, im.Anomalies)
}

func TestNormalizeClosedMarketIsResolved(t *testing.T) {
	raw := []byte(`{
		"id": "mkt-5",
		"question": "Q?",
		"active": false,
		"closed": "true",
		"closedTime": "2026-08-29T18:30:00Z"
	}`)

	var m APIMarket
	require.NoError(t, json.Unmarshal(raw, &m))

	im := m.Normalize(time.Now().UTC())

	assert.Equal(t, domain.MarketStatusResolved, im.Status)
	require.NotNil(t, im.ClosedTime)
	assert.Equal(t, 18, im.ClosedTime.Hour())
}

func TestNormalizeCategoryFallsBackToGroupItemTitle(t *testing.T) {
	var m APIMarket
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "mkt-6",
		"question": "Q?",
		"active": true,
		"groupItemTitle": "US-Politics"
	}`), &m))

	im := m.Normalize(time.Now().UTC())
	assert.Equal(t, domain.CategoryPolitics, im.Category)
}

func TestFlexBool(t *testing.T) {
	cases := map[string]bool{
		`true`:    true,
		`false`:   false,
		`"true"`:  true,
		`"TRUE"`:  true,
		`"false"`: false,
		`"1"`:     true,
		`"0"`:     false,
	}
	for in, want := range cases {
		var f flexBool
		require.NoError(t, json.Unmarshal([]byte(in), &f), in)
		assert.Equal(t, want, bool(f), in)
	}
}
