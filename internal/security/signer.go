// Package security provides optional cryptographic attestation of served
// price responses, so node operators can verify a response came from this
// adapter instance.
package security

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// Signer signs payloads with a secp256k1 key generated at startup. Signing
// never alters the payload; the signature rides alongside it.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    string
}

// Signature is the attestation attached to a signed response.
type Signature struct {
	Signature string `json:"signature"`
	Signer    string `json:"signer"`
	Algorithm string `json:"algorithm"`
	Timestamp int64  `json:"timestamp"`
}

// NewSigner generates a fresh signing key. The derived address identifies
// this adapter instance for the lifetime of the process.
func NewSigner() (*Signer, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}

	address := crypto.PubkeyToAddress(privateKey.PublicKey).Hex()
	logrus.Infof("Response signer initialized, signer address: %s", address)

	return &Signer{
		privateKey: privateKey,
		address:    address,
	}, nil
}

// Address returns the signer's address.
func (s *Signer) Address() string {
	return s.address
}

// Sign produces a signature over the keccak256 hash of the payload's JSON
// encoding.
func (s *Signer) Sign(payload interface{}) (*Signature, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	hash := crypto.Keccak256(raw)
	sig, err := crypto.Sign(hash, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payload: %w", err)
	}

	return &Signature{
		Signature: hex.EncodeToString(sig),
		Signer:    s.address,
		Algorithm: "secp256k1-keccak256",
		Timestamp: time.Now().Unix(),
	}, nil
}

// Verify checks that sig was produced over payload by the claimed signer.
func Verify(payload interface{}, sig *Signature) (bool, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to marshal payload: %w", err)
	}

	sigBytes, err := hex.DecodeString(sig.Signature)
	if err != nil {
		return false, fmt.Errorf("failed to decode signature: %w", err)
	}

	hash := crypto.Keccak256(raw)
	pubKey, err := crypto.SigToPub(hash, sigBytes)
	if err != nil {
		return false, fmt.Errorf("failed to recover public key: %w", err)
	}

	return crypto.PubkeyToAddress(*pubKey).Hex() == sig.Signer, nil
}
