package consensus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "model-a", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "Will it happen?")

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newChatProvider(t *testing.T, url string) *ChatProvider {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	p, err := NewChatProvider(&ChatProviderConfig{
		Model:   "model-a",
		APIURL:  url,
		APIKey:  "test-key",
		Timeout: time.Second,
		Logger:  logger,
	})
	require.NoError(t, err)
	return p
}

func TestChatProvider_GetOpinion(t *testing.T) {
	server := newChatServer(t, "PROBABILITY: 0.55\nCONFIDENCE: 7\nREASONING: coin flip plus momentum")
	defer server.Close()

	p := newChatProvider(t, server.URL)

	op, err := p.GetOpinion(context.Background(), testMarket(0.40))
	require.NoError(t, err)
	assert.InDelta(t, 0.55, op.Probability, 1e-9)
	assert.Equal(t, 7, op.Confidence)
}

func TestChatProvider_MalformedAnswer(t *testing.T) {
	server := newChatServer(t, "I cannot answer that.")
	defer server.Close()

	p := newChatProvider(t, server.URL)

	_, err := p.GetOpinion(context.Background(), testMarket(0.40))
	assert.Error(t, err)
}

func TestChatProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer server.Close()

	p := newChatProvider(t, server.URL)

	_, err := p.GetOpinion(context.Background(), testMarket(0.40))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestNewChatProvider_Validation(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	_, err := NewChatProvider(&ChatProviderConfig{APIURL: "http://x", Logger: logger})
	assert.Error(t, err, "empty model")

	_, err = NewChatProvider(&ChatProviderConfig{Model: "m", Logger: logger})
	assert.Error(t, err, "empty URL")

	_, err = NewChatProvider(&ChatProviderConfig{Model: "m", APIURL: "http://x"})
	assert.Error(t, err, "nil logger")
}
