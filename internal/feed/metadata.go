package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mselser95/polymarket-agent/pkg/cache"
	"github.com/mselser95/polymarket-agent/pkg/types"
)

// Exchange limits used when the CLOB API does not report them.
const (
	defaultTickSize     = 0.01
	defaultMinOrderSize = 5.0
)

// MetadataClient fetches per-token exchange limits from the CLOB API.
type MetadataClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMetadataClient creates a new metadata client.
func NewMetadataClient(baseURL string) *MetadataClient {
	return &MetadataClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchTickSize fetches the price granularity for a token.
func (c *MetadataClient) FetchTickSize(ctx context.Context, tokenID string) (tickSize float64, err error) {
	url := fmt.Sprintf("%s/tick-size?token_id=%s", c.baseURL, tokenID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return tickSize, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return tickSize, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return tickSize, fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	var data struct {
		MinimumTickSize float64 `json:"minimum_tick_size"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return tickSize, err
	}

	tickSize = data.MinimumTickSize
	return tickSize, err
}

// FetchMinOrderSize fetches the minimum order size for a token from the
// orderbook endpoint, falling back to the exchange default when the API
// does not report it.
func (c *MetadataClient) FetchMinOrderSize(ctx context.Context, tokenID string) (minOrderSize float64, err error) {
	url := fmt.Sprintf("%s/book?token_id=%s", c.baseURL, tokenID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return minOrderSize, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return minOrderSize, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return defaultMinOrderSize, nil
	}

	var data struct {
		MinSize float64 `json:"min_size"`
		Market  struct {
			MinSize float64 `json:"minimum_order_size"`
		} `json:"market"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return defaultMinOrderSize, nil
	}

	if data.MinSize > 0 {
		return data.MinSize, nil
	}
	if data.Market.MinSize > 0 {
		return data.Market.MinSize, nil
	}

	return defaultMinOrderSize, nil
}

// FetchTokenMetadata fetches both limits, substituting defaults for any
// that fail.
func (c *MetadataClient) FetchTokenMetadata(ctx context.Context, tokenID string) (*types.TokenMetadata, error) {
	tickSize, err := c.FetchTickSize(ctx, tokenID)
	if err != nil {
		tickSize = defaultTickSize
	}

	minOrderSize, err := c.FetchMinOrderSize(ctx, tokenID)
	if err != nil {
		minOrderSize = defaultMinOrderSize
	}

	return &types.TokenMetadata{
		TickSize:     tickSize,
		MinOrderSize: minOrderSize,
	}, nil
}

// CachedMetadataClient wraps MetadataClient with a Ristretto-backed
// cache. Exchange limits change rarely, so entries live for a day.
type CachedMetadataClient struct {
	client *MetadataClient
	cache  cache.Cache
	ttl    time.Duration
}

// NewCachedMetadataClient creates a new cached metadata client.
func NewCachedMetadataClient(client *MetadataClient, c cache.Cache) *CachedMetadataClient {
	return &CachedMetadataClient{
		client: client,
		cache:  c,
		ttl:    24 * time.Hour,
	}
}

// GetTokenMetadata returns token limits from cache, fetching on miss.
func (c *CachedMetadataClient) GetTokenMetadata(ctx context.Context, tokenID string) (*types.TokenMetadata, error) {
	cacheKey := fmt.Sprintf("metadata:%s", tokenID)

	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			if meta, ok := cached.(*types.TokenMetadata); ok {
				MetadataCacheHitsTotal.Inc()
				return meta, nil
			}
		}
		MetadataCacheMissesTotal.Inc()
	}

	meta, err := c.client.FetchTokenMetadata(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, meta, c.ttl)
	}

	return meta, nil
}
