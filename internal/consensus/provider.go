// Package consensus queries a roster of independent opinion models
// about a market and aggregates their probability judgments into a
// single directional consensus.
package consensus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/types"
)

// OpinionProvider is the single capability the analyzer needs from a
// backing model service.
type OpinionProvider interface {
	// Name returns the opaque model identifier.
	Name() string

	// GetOpinion returns the model's probability judgment for the
	// market, or an error for timeout/malformed responses.
	GetOpinion(ctx context.Context, market *types.Market) (*types.ModelOpinion, error)
}

// ChatProvider queries an OpenAI-compatible chat completions endpoint.
// One instance per model in the roster; they share nothing but the
// gateway URL and key.
type ChatProvider struct {
	model      string
	apiURL     string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// ChatProviderConfig holds configuration for a chat provider.
type ChatProviderConfig struct {
	Model   string
	APIURL  string
	APIKey  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewChatProvider creates a provider for one model.
func NewChatProvider(cfg *ChatProviderConfig) (*ChatProvider, error) {
	if cfg.Model == "" {
		return nil, errors.New("model cannot be empty")
	}

	if cfg.APIURL == "" {
		return nil, errors.New("API URL cannot be empty")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ChatProvider{
		model:  cfg.Model,
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: cfg.Logger,
	}, nil
}

// Name returns the model identifier.
func (p *ChatProvider) Name() string {
	return p.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `You are a forecasting analyst for prediction markets. ` +
	`Estimate the probability that the market resolves YES. ` +
	`Respond in exactly this format:
PROBABILITY: <number between 0 and 1>
CONFIDENCE: <integer between 1 and 10>
REASONING: <one short paragraph>`

// GetOpinion queries the model and parses its structured answer.
func (p *ChatProvider) GetOpinion(ctx context.Context, market *types.Market) (*types.ModelOpinion, error) {
	prompt := fmt.Sprintf("Market question: %s\nCurrent YES price: %.3f\nMarket ends: %s",
		market.Question, market.YesPrice, market.EndDate.Format("2006-01-02"))

	reqBody, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := p.apiURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	err = json.Unmarshal(body, &chatResp)
	if err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, errors.New("empty choices in response")
	}

	opinion, err := parseOpinion(p.model, chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("parse opinion: %w", err)
	}

	return opinion, nil
}
