package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"

	"github.com/tarantool/go-signedjson/hasher"
)

var (
	// ErrNoPrivateKey is returned when signing without a private key.
	ErrNoPrivateKey = errors.New("no private key")
	// ErrNoPublicKey is returned when verifying without a public key.
	ErrNoPublicKey = errors.New("no public key")
)

// RSAPSS represents the RSASSA-PSS algorithm family for
// signing/verification, available at three digest strengths.
type RSAPSS struct {
	name       string
	publicKey  *rsa.PublicKey
	privateKey *rsa.PrivateKey
	hash       crypto.Hash
	hasher     hasher.Hasher
}

// NewRSAPSS256 creates a new RSAPSS object with a SHA-256 digest.
func NewRSAPSS256(privKey *rsa.PrivateKey, pubKey *rsa.PublicKey) RSAPSS {
	return RSAPSS{
		name:       "PS256",
		publicKey:  pubKey,
		privateKey: privKey,
		hash:       crypto.SHA256,
		hasher:     hasher.NewSHA256Hasher(),
	}
}

// NewRSAPSS384 creates a new RSAPSS object with a SHA-384 digest.
func NewRSAPSS384(privKey *rsa.PrivateKey, pubKey *rsa.PublicKey) RSAPSS {
	return RSAPSS{
		name:       "PS384",
		publicKey:  pubKey,
		privateKey: privKey,
		hash:       crypto.SHA384,
		hasher:     hasher.NewSHA384Hasher(),
	}
}

// NewRSAPSS512 creates a new RSAPSS object with a SHA-512 digest.
func NewRSAPSS512(privKey *rsa.PrivateKey, pubKey *rsa.PublicKey) RSAPSS {
	return RSAPSS{
		name:       "PS512",
		publicKey:  pubKey,
		privateKey: privKey,
		hash:       crypto.SHA512,
		hasher:     hasher.NewSHA512Hasher(),
	}
}

// Name implements SignerVerifier interface.
func (r RSAPSS) Name() string {
	return r.name
}

// Sign generates the digest of the message stream and signs it
// using RSASSA-PSS.
func (r RSAPSS) Sign(message io.Reader) ([]byte, error) {
	if r.privateKey == nil {
		return nil, ErrNoPrivateKey
	}

	digest, err := r.hasher.Hash(message)
	if err != nil {
		return nil, fmt.Errorf("failed to get hash: %w", err)
	}

	signature, err := rsa.SignPSS(rand.Reader, r.privateKey, r.hash, digest, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       r.hash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	return signature, nil
}

// Verify compares the message stream with the signature.
func (r RSAPSS) Verify(message io.Reader, signature []byte) error {
	if r.publicKey == nil {
		return ErrNoPublicKey
	}

	digest, err := r.hasher.Hash(message)
	if err != nil {
		return fmt.Errorf("failed to get hash: %w", err)
	}

	err = rsa.VerifyPSS(r.publicKey, r.hash, digest, signature, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       r.hash,
	})
	if err != nil {
		return fmt.Errorf("failed to verify: %w", err)
	}

	return nil
}
