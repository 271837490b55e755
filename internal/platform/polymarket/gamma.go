package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/polynews/backend/internal/domain"
)

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery and metadata.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ActiveMarkets returns one page of open markets ordered by volume
// descending. Markets without a question are dropped; everything else is
// normalized with field-level anomaly reporting.
func (g *GammaClient) ActiveMarkets(ctx context.Context, limit, offset int) ([]domain.IngestedMarket, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("order", "volume")
	params.Set("ascending", "false")

	markets, err := g.listMarkets(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: active markets: %w", err)
	}
	return markets, nil
}

// ResolvedMarkets returns one page of closed markets ordered by their end
// date descending, newest resolutions first.
func (g *GammaClient) ResolvedMarkets(ctx context.Context, limit, offset int) ([]domain.IngestedMarket, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("closed", "true")
	params.Set("order", "endDate")
	params.Set("ascending", "false")

	markets, err := g.listMarkets(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: resolved markets: %w", err)
	}
	return markets, nil
}

// MarketByID fetches and normalizes a single market.
func (g *GammaClient) MarketByID(ctx context.Context, id string) (domain.IngestedMarket, error) {
	path := fmt.Sprintf("/markets/%s", url.PathEscape(id))

	body, err := g.doGet(ctx, path)
	if err != nil {
		return domain.IngestedMarket{}, fmt.Errorf("polymarket/gamma: get market %s: %w", id, err)
	}

	var apiMarket APIMarket
	if err := json.Unmarshal(body, &apiMarket); err != nil {
		return domain.IngestedMarket{}, fmt.Errorf("polymarket/gamma: decode market: %w", err)
	}
	if apiMarket.Question == "" {
		return domain.IngestedMarket{}, fmt.Errorf("polymarket/gamma: market %s: %w", id, domain.ErrNoData)
	}

	return apiMarket.Normalize(time.Now().UTC()), nil
}

func (g *GammaClient) listMarkets(ctx context.Context, path string) ([]domain.IngestedMarket, error) {
	body, err := g.doGet(ctx, path)
	if err != nil {
		return nil, err
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}

	now := time.Now().UTC()
	markets := make([]domain.IngestedMarket, 0, len(apiMarkets))
	for i := range apiMarkets {
		if apiMarkets[i].Question == "" {
			continue
		}
		markets = append(markets, apiMarkets[i].Normalize(now))
	}

	return markets, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
