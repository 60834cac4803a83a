package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/cache"
)

func TestFetchTokenMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tick-size":
			_, _ = w.Write([]byte(`{"minimum_tick_size": 0.001}`))
		case "/book":
			_, _ = w.Write([]byte(`{"min_size": 15}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewMetadataClient(server.URL)

	meta, err := client.FetchTokenMetadata(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.InDelta(t, 0.001, meta.TickSize, 1e-9)
	assert.InDelta(t, 15.0, meta.MinOrderSize, 1e-9)
}

func TestFetchTokenMetadata_Defaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewMetadataClient(server.URL)

	meta, err := client.FetchTokenMetadata(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.InDelta(t, defaultTickSize, meta.TickSize, 1e-9)
	assert.InDelta(t, defaultMinOrderSize, meta.MinOrderSize, 1e-9)
}

func TestFetchMinOrderSize_NestedMarketField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"market": {"minimum_order_size": 20}}`))
	}))
	defer server.Close()

	client := NewMetadataClient(server.URL)

	minSize, err := client.FetchMinOrderSize(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.InDelta(t, 20.0, minSize, 1e-9)
}

func TestCachedMetadataClient_FetchesOnceThenHits(t *testing.T) {
	var tickRequests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tick-size" {
			tickRequests++
			_, _ = w.Write([]byte(`{"minimum_tick_size": 0.01}`))
			return
		}
		_, _ = w.Write([]byte(`{"min_size": 5}`))
	}))
	defer server.Close()

	logger, _ := zap.NewDevelopment()
	c, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      logger,
	})
	require.NoError(t, err)
	defer c.Close()

	cached := NewCachedMetadataClient(NewMetadataClient(server.URL), c)

	meta, err := cached.GetTokenMetadata(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.InDelta(t, 0.01, meta.TickSize, 1e-9)
	c.Wait()

	meta, err = cached.GetTokenMetadata(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.InDelta(t, 0.01, meta.TickSize, 1e-9)

	assert.Equal(t, 1, tickRequests)
}
