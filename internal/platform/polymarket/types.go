package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/polynews/backend/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
// Numeric fields arrive as raw JSON because the API mixes strings, numbers,
// and JSON-encoded arrays; Normalize handles each shape.
type APIMarket struct {
	ID             string          `json:"id"`
	Question       string          `json:"question"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	GroupItemTitle string          `json:"groupItemTitle"`
	Slug           string          `json:"slug"`
	Image          string          `json:"image"`
	Active         flexBool        `json:"active"`
	Closed         flexBool        `json:"closed"`
	Outcomes       json.RawMessage `json:"outcomes"`      // "[\"Yes\",\"No\"]" or ["Yes","No"]
	OutcomePrices  json.RawMessage `json:"outcomePrices"` // "[\"0.65\",\"0.35\"]" or ["0.65","0.35"]
	Volume         json.RawMessage `json:"volume"`        // "12345.6" or 12345.6
	Liquidity      json.RawMessage `json:"liquidity"`
	EndDate        string          `json:"endDate"`
	ClosedTime     string          `json:"closedTime"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt"`
}

// Normalize converts a raw Gamma market into a domain.IngestedMarket ready
// for upsert. Malformed upstream fields never fail the conversion: each one
// falls back to a safe default and is recorded in the Anomalies list so the
// caller can log data-quality issues without dropping the market.
func (m *APIMarket) Normalize(now time.Time) domain.IngestedMarket {
	im := domain.IngestedMarket{
		Market: domain.Market{
			ID:          m.ID,
			Question:    m.Question,
			Description: m.Description,
			Category:    domain.MapCategory(firstNonEmpty(m.Category, m.GroupItemTitle)),
			Slug:        m.Slug,
			ImageURL:    m.Image,
			CreatedAt:   now,
			LastUpdated: now,
		},
		YesPrice: 0.5,
		NoPrice:  0.5,
	}

	if bool(m.Active) && !bool(m.Closed) {
		im.Status = domain.MarketStatusActive
	} else {
		im.Status = domain.MarketStatusResolved
	}

	// Outcome prices
	if prices, ok := parseStringArray(m.OutcomePrices); ok && len(prices) >= 2 {
		y, errY := strconv.ParseFloat(prices[0], 64)
		n, errN := strconv.ParseFloat(prices[1], 64)
		if errY == nil && errN == nil {
			im.YesPrice = y
			im.NoPrice = n
		} else {
			im.Anomalies = append(im.Anomalies, "outcome_prices")
		}
	} else if len(m.OutcomePrices) > 0 && !isJSONNull(m.OutcomePrices) {
		im.Anomalies = append(im.Anomalies, "outcome_prices")
	}

	// Volume and liquidity
	var ok bool
	if im.Volume, ok = parseFlexFloat(m.Volume); !ok {
		im.Anomalies = append(im.Anomalies, "volume")
	}
	if im.OpenInterest, ok = parseFlexFloat(m.Liquidity); !ok {
		im.Anomalies = append(im.Anomalies, "liquidity")
	}

	// Outcomes
	if outcomes, ok := parseStringArray(m.Outcomes); ok {
		im.Outcomes = outcomes
	} else if len(m.Outcomes) > 0 && !isJSONNull(m.Outcomes) {
		im.Anomalies = append(im.Anomalies, "outcomes")
	}

	// Dates
	if m.EndDate != "" {
		if t, err := parseISOTime(m.EndDate); err == nil {
			im.ResolutionDate = &t
		} else {
			im.Anomalies = append(im.Anomalies, "end_date")
		}
	}
	if m.ClosedTime != "" {
		if t, err := parseISOTime(m.ClosedTime); err == nil {
			im.ClosedTime = &t
		} else {
			im.Anomalies = append(im.Anomalies, "closed_time")
		}
	}
	if m.CreatedAt != "" {
		if t, err := parseISOTime(m.CreatedAt); err == nil {
			im.Market.CreatedAt = t
		} else {
			im.Anomalies = append(im.Anomalies, "created_at")
		}
	}

	return im
}

// parseStringArray decodes a Gamma array field that may arrive either as a
// JSON array or as a JSON-encoded string containing an array.
func parseStringArray(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 || isJSONNull(raw) {
		return nil, false
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return nil, false
	}
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		return nil, false
	}
	return arr, true
}

// parseFlexFloat decodes a numeric field that may arrive as a JSON number or
// string. Missing or null values count as a clean zero, not an anomaly.
func parseFlexFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || isJSONNull(raw) {
		return 0, true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isJSONNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

// parseISOTime handles timestamps with either an explicit offset or the
// bare "Z" suffix the Gamma API usually sends.
func parseISOTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02T15:04:05Z0700", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
