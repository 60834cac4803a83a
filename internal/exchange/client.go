package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polymarket/go-order-utils/pkg/builder"
	"github.com/polymarket/go-order-utils/pkg/model"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/types"
	"github.com/mselser95/polymarket-agent/pkg/wallet"
)

// publicTaker is the zero address, meaning any counterparty may fill.
const publicTaker = "0x0000000000000000000000000000000000000000"

// Client submits signed orders to the CLOB and queries open orders.
// Credentials may be swapped mid-session after an authentication
// re-derivation; all other fields are read-only after construction.
type Client struct {
	baseURL      string
	identity     *wallet.Identity
	orderBuilder builder.ExchangeOrderBuilder
	httpClient   *http.Client
	logger       *zap.Logger

	credsMu sync.RWMutex
	creds   *APICredentials
}

// ClientConfig holds exchange client configuration.
type ClientConfig struct {
	BaseURL     string
	Identity    *wallet.Identity
	Credentials *APICredentials
	Logger      *zap.Logger
}

// NewClient creates a new exchange client.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.BaseURL == "" {
		return nil, errors.New("base URL cannot be empty")
	}

	if cfg.Identity == nil {
		return nil, errors.New("wallet identity cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	chainID := big.NewInt(137) // Polygon mainnet
	orderBuilder := builder.NewExchangeOrderBuilderImpl(chainID, nil)

	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		identity:     cfg.Identity,
		orderBuilder: orderBuilder,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: cfg.Logger,
		creds:  cfg.Credentials,
	}, nil
}

// SetCredentials replaces the L2 credentials after a re-derivation.
func (c *Client) SetCredentials(creds *APICredentials) {
	c.credsMu.Lock()
	defer c.credsMu.Unlock()
	c.creds = creds
}

// Credentials returns the current L2 credentials.
func (c *Client) Credentials() *APICredentials {
	c.credsMu.RLock()
	defer c.credsMu.RUnlock()
	return c.creds
}

// RederiveCredentials derives fresh credentials from the wallet key and
// installs them.
func (c *Client) RederiveCredentials(ctx context.Context) error {
	creds, err := DeriveAPICreds(ctx, c.baseURL, c.identity)
	if err != nil {
		return fmt.Errorf("derive api creds: %w", err)
	}

	c.SetCredentials(creds)
	c.logger.Info("api-credentials-rederived")
	return nil
}

// SubmitOrder builds, signs, and submits a limit order for a sizing
// decision. The decision's Amount is USDC spent; the taker amount is
// the number of outcome tokens bought at the limit price.
//
// Any failure is returned verbatim for the submitter to classify; the
// client itself never retries.
func (c *Client) SubmitOrder(ctx context.Context, decision *types.SizingDecision) (*types.OrderSubmissionResponse, error) {
	orderData := &model.OrderData{
		Maker:         c.identity.FunderAddress.Hex(),
		Taker:         publicTaker,
		TokenId:       decision.TokenID,
		MakerAmount:   usdToRawAmount(decision.Amount),
		TakerAmount:   usdToRawAmount(decision.Amount / decision.Price),
		Side:          model.BUY,
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        c.identity.SignerAddress.Hex(),
		Expiration:    "0",
		SignatureType: c.identity.SignatureType,
	}

	signedOrder, err := c.orderBuilder.BuildSignedOrder(c.identity.PrivateKey, orderData, model.CTFExchange)
	if err != nil {
		return nil, fmt.Errorf("build signed order: %w", err)
	}

	sideStr := "BUY"
	if signedOrder.Side.Uint64() == uint64(model.SELL) {
		sideStr = "SELL"
	}

	creds := c.Credentials()
	if creds == nil {
		return nil, errors.New("no API credentials configured")
	}

	jsonOrder := types.SignedOrderJSON{
		Salt:          signedOrder.Salt.Int64(),
		Maker:         signedOrder.Maker.Hex(),
		Signer:        signedOrder.Signer.Hex(),
		Taker:         signedOrder.Taker.Hex(),
		TokenID:       signedOrder.TokenId.String(),
		MakerAmount:   signedOrder.MakerAmount.String(),
		TakerAmount:   signedOrder.TakerAmount.String(),
		Side:          sideStr,
		Expiration:    signedOrder.Expiration.String(),
		Nonce:         signedOrder.Nonce.String(),
		FeeRateBps:    signedOrder.FeeRateBps.String(),
		SignatureType: int(signedOrder.SignatureType.Int64()),
		Signature:     "0x" + common.Bytes2Hex(signedOrder.Signature),
	}

	// "owner" is the API key, not the maker address.
	reqBody, err := json.Marshal(types.OrderSubmissionRequest{
		Order:     jsonOrder,
		Owner:     creds.Key,
		OrderType: "GTC",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	body, status, err := c.doSigned(ctx, http.MethodPost, "/order", reqBody, creds)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK && status != http.StatusCreated {
		return nil, fmt.Errorf("API error (status %d): %s", status, string(body))
	}

	var orderResp types.OrderSubmissionResponse
	err = json.Unmarshal(body, &orderResp)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if !orderResp.Success {
		return &orderResp, fmt.Errorf("order rejected: %s", orderResp.ErrorMsg)
	}

	c.logger.Info("order-submitted",
		zap.String("order-id", orderResp.OrderID),
		zap.String("status", orderResp.Status),
		zap.String("token-id", decision.TokenID),
		zap.Float64("price", decision.Price),
		zap.Float64("amount", decision.Amount))

	return &orderResp, nil
}

// GetOpenOrders fetches the session wallet's open orders from the CLOB.
func (c *Client) GetOpenOrders(ctx context.Context) ([]types.OrderQueryResponse, error) {
	creds := c.Credentials()
	if creds == nil {
		return nil, errors.New("no API credentials configured")
	}

	body, status, err := c.doSigned(ctx, http.MethodGet, "/orders", nil, creds)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", status, string(body))
	}

	var orders []types.OrderQueryResponse
	err = json.Unmarshal(body, &orders)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return orders, nil
}

// doSigned performs an HTTP request with L2 HMAC authentication headers.
func (c *Client) doSigned(ctx context.Context, method, path string, reqBody []byte, creds *APICredentials) ([]byte, int, error) {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	signaturePayload := timestamp + method + path + string(reqBody)

	// The shared secret is URL-safe base64, both ways.
	secretBytes, err := base64.URLEncoding.DecodeString(creds.Secret)
	if err != nil {
		return nil, 0, fmt.Errorf("decode secret: %w", err)
	}

	h := hmac.New(sha256.New, secretBytes)
	h.Write([]byte(signaturePayload))
	signature := base64.URLEncoding.EncodeToString(h.Sum(nil))

	var bodyReader io.Reader
	if reqBody != nil {
		bodyReader = strings.NewReader(string(reqBody))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	// POLY_ADDRESS is always the EOA address behind the key.
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("POLY_API_KEY", creds.Key)
	req.Header.Set("POLY_SIGNATURE", signature)
	req.Header.Set("POLY_TIMESTAMP", timestamp)
	req.Header.Set("POLY_PASSPHRASE", creds.Passphrase)
	req.Header.Set("POLY_ADDRESS", c.identity.SignerAddress.Hex())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

func usdToRawAmount(usd float64) string {
	rawAmount := int64(usd * 1000000)
	return fmt.Sprintf("%d", rawAmount)
}
