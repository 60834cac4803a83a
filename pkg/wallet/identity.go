package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/polymarket/go-order-utils/pkg/model"
)

// Identity is the resolved signing and funding configuration used for
// every order the agent places. It is resolved once at startup so a
// malformed wallet configuration fails before any market work happens.
type Identity struct {
	PrivateKey    *ecdsa.PrivateKey
	SignerAddress common.Address
	FunderAddress common.Address
	SignatureType model.SignatureType
}

// OverrideProxyLink forces the proxy-wallet signature scheme for
// accounts created through the email/Magic-link flow, where the funder
// is a proxy contract rather than a Gnosis safe.
const OverrideProxyLink = "proxy-link"

// IdentityConfig holds the raw wallet settings before resolution.
type IdentityConfig struct {
	PrivateKey    string
	SignerAddress string // optional, derived from the key when empty
	FunderAddress string // optional, defaults to the signer
	Override      string // "" or OverrideProxyLink
}

// ResolveIdentity validates the wallet configuration and derives the
// signature scheme from the signer/funder relationship:
//
//	signer == funder  -> EOA (direct signing)
//	signer != funder  -> Gnosis safe proxy
//	proxy-link set    -> Magic-link proxy, regardless of addresses
func ResolveIdentity(cfg *IdentityConfig) (*Identity, error) {
	if cfg.PrivateKey == "" {
		return nil, errors.New("private key cannot be empty")
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("derive public key from private key")
	}
	derived := crypto.PubkeyToAddress(*publicKey)

	signer := derived
	if cfg.SignerAddress != "" {
		if !common.IsHexAddress(cfg.SignerAddress) {
			return nil, fmt.Errorf("malformed signer address %q", cfg.SignerAddress)
		}
		signer = common.HexToAddress(cfg.SignerAddress)
		if signer != derived {
			return nil, fmt.Errorf("signer address %s does not match key-derived address %s",
				signer.Hex(), derived.Hex())
		}
	}

	funder := signer
	if cfg.FunderAddress != "" {
		if !common.IsHexAddress(cfg.FunderAddress) {
			return nil, fmt.Errorf("malformed funder address %q", cfg.FunderAddress)
		}
		funder = common.HexToAddress(cfg.FunderAddress)
	}

	var sigType model.SignatureType
	switch {
	case cfg.Override == OverrideProxyLink:
		sigType = model.POLY_PROXY
	case cfg.Override != "":
		return nil, fmt.Errorf("unknown signature type override %q", cfg.Override)
	case funder == signer:
		sigType = model.EOA
	default:
		sigType = model.POLY_GNOSIS_SAFE
	}

	return &Identity{
		PrivateKey:    privateKey,
		SignerAddress: signer,
		FunderAddress: funder,
		SignatureType: sigType,
	}, nil
}
