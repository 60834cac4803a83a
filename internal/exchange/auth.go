// Package exchange talks to the Polymarket CLOB API: credential
// derivation, signed order submission, and order queries.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/mselser95/polymarket-agent/pkg/wallet"
)

// APICredentials is the L2 credential triple derived from the signer key.
type APICredentials struct {
	Key        string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// DeriveAPICreds derives API credentials via L1 authentication: an
// EIP-712 ClobAuth attestation signed by the wallet key, exchanged at
// GET /auth/derive-api-key. Called once at startup and again when a
// submission fails with an authentication error.
func DeriveAPICreds(ctx context.Context, baseURL string, identity *wallet.Identity) (*APICredentials, error) {
	timestamp := time.Now().Unix()
	nonce := 0

	signatureHex, err := signClobAuth(identity, timestamp, nonce)
	if err != nil {
		return nil, fmt.Errorf("sign clob auth: %w", err)
	}

	url := baseURL + "/auth/derive-api-key"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("POLY_ADDRESS", identity.SignerAddress.Hex())
	req.Header.Set("POLY_SIGNATURE", signatureHex)
	req.Header.Set("POLY_TIMESTAMP", fmt.Sprintf("%d", timestamp))
	req.Header.Set("POLY_NONCE", fmt.Sprintf("%d", nonce))

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var creds APICredentials
	err = json.Unmarshal(body, &creds)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &creds, nil
}

// signClobAuth produces the EIP-712 signature over the ClobAuth
// attestation message.
func signClobAuth(identity *wallet.Identity, timestamp int64, nonce int) (string, error) {
	chainID := math.NewHexOrDecimal256(137) // Polygon
	domain := apitypes.TypedDataDomain{
		Name:    "ClobAuthDomain",
		Version: "1",
		ChainId: chainID,
	}

	message := map[string]interface{}{
		"address":   identity.SignerAddress.Hex(),
		"timestamp": fmt.Sprintf("%d", timestamp),
		"nonce":     fmt.Sprintf("%d", nonce),
		"message":   "This message attests that I control the given wallet",
	}

	types := apitypes.Types{
		"EIP712Domain": []apitypes.Type{
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
		},
		"ClobAuth": []apitypes.Type{
			{Name: "address", Type: "address"},
			{Name: "timestamp", Type: "string"},
			{Name: "nonce", Type: "uint256"},
			{Name: "message", Type: "string"},
		},
	}

	typedData := apitypes.TypedData{
		Types:       types,
		PrimaryType: "ClobAuth",
		Domain:      domain,
		Message:     message,
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return "", fmt.Errorf("hash domain: %w", err)
	}

	typedDataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return "", fmt.Errorf("hash message: %w", err)
	}

	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(typedDataHash)))
	hash := crypto.Keccak256Hash(rawData)

	signature, err := crypto.Sign(hash.Bytes(), identity.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}

	// Ethereum expects V in {27, 28}.
	if signature[64] < 27 {
		signature[64] += 27
	}

	return hexutil.Encode(signature), nil
}
