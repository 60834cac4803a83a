// Package feed fetches the tradable universe: active markets from the
// Gamma API and per-token exchange limits from the CLOB API. The cycle
// coordinator refreshes the universe once per decision cycle.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/types"
)

// Client is an HTTP client for the Polymarket Gamma API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Gamma API client.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// MaxBatchSize is the maximum number of markets the Gamma API serves
// per request.
const MaxBatchSize = 100

// FetchActiveMarkets fetches active markets from the Gamma API with
// automatic pagination when limit exceeds a single batch. A limit of 0
// fetches every available market. orderBy is one of "volume24hr",
// "createdAt", or "endDate".
func (c *Client) FetchActiveMarkets(ctx context.Context, limit int, offset int, orderBy string) (*types.MarketsResponse, error) {
	start := time.Now()
	defer func() {
		FetchDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	fetchAll := limit == 0

	var resp *types.MarketsResponse
	var err error
	if limit > MaxBatchSize || fetchAll {
		resp, err = c.fetchWithPagination(ctx, limit, offset, orderBy)
	} else {
		resp, err = c.fetchSinglePage(ctx, limit, offset, orderBy)
	}

	if err != nil {
		FetchErrorsTotal.Inc()
		return nil, err
	}

	MarketsFetchedTotal.Add(float64(resp.Count))
	return resp, nil
}

// fetchSinglePage fetches one page of markets.
func (c *Client) fetchSinglePage(ctx context.Context, limit int, offset int, orderBy string) (*types.MarketsResponse, error) {
	if limit == 0 {
		limit = MaxBatchSize
	}

	endpoint := fmt.Sprintf("%s/markets", c.baseURL)

	params := url.Values{}
	params.Add("closed", "false")
	params.Add("active", "true")
	params.Add("limit", strconv.Itoa(limit))
	params.Add("offset", strconv.Itoa(offset))
	params.Add("order", orderBy)

	// endDate sorts ascending to get markets expiring soonest; volume
	// and createdAt sort descending for the most active/newest.
	if orderBy == "endDate" {
		params.Add("ascending", "true")
	} else {
		params.Add("ascending", "false")
	}

	requestURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "polymarket-agent/1.0")

	c.logger.Debug("fetching-markets",
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	// Gamma API returns a bare array, not a wrapped object.
	var markets []types.Market
	err = json.Unmarshal(body, &markets)
	if err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	marketsResp := &types.MarketsResponse{
		Data:   markets,
		Count:  len(markets),
		Limit:  limit,
		Offset: offset,
	}

	c.logger.Debug("fetched-markets",
		zap.Int("count", len(markets)))

	return marketsResp, nil
}

// fetchWithPagination fetches markets across multiple pages and
// aggregates results.
func (c *Client) fetchWithPagination(ctx context.Context, limit int, offset int, orderBy string) (*types.MarketsResponse, error) {
	var (
		allMarkets   []types.Market
		currentPage  = 0
		batchSize    = MaxBatchSize
		totalFetched = 0
		fetchAll     = limit == 0
	)

	for {
		var pageBatchSize int
		if fetchAll {
			pageBatchSize = batchSize
		} else {
			remaining := limit - totalFetched
			if remaining <= 0 {
				break
			}
			if remaining < batchSize {
				pageBatchSize = remaining
			} else {
				pageBatchSize = batchSize
			}
		}

		pageOffset := offset + (currentPage * batchSize)

		resp, err := c.fetchSinglePage(ctx, pageBatchSize, pageOffset, orderBy)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", currentPage, err)
		}

		allMarkets = append(allMarkets, resp.Data...)
		totalFetched += len(resp.Data)

		// Fewer results than requested means the API is exhausted.
		if len(resp.Data) < pageBatchSize {
			break
		}

		if !fetchAll && totalFetched >= limit {
			break
		}

		currentPage++
	}

	return &types.MarketsResponse{
		Data:   allMarkets,
		Count:  len(allMarkets),
		Limit:  limit,
		Offset: offset,
	}, nil
}
