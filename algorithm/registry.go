// Package algorithm maps algorithm identifiers to signing and
// verification functions.
package algorithm

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"io"

	"github.com/tarantool/go-signedjson/crypto"
)

// Built-in algorithm identifiers (RSASSA-PSS at three digest strengths).
const (
	PS256 = "PS256"
	PS384 = "PS384"
	PS512 = "PS512"
)

// ErrUnsupportedAlgorithm is returned when an identifier has no
// registered functions.
var ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

// ErrKeyType is returned when a built-in receives a key of the wrong type.
var ErrKeyType = errors.New("unexpected key type")

// UnsupportedAlgorithmError reports which algorithm identifier was requested.
type UnsupportedAlgorithmError struct {
	Algorithm string
}

// Error returns a string representation of the unsupported algorithm error.
func (e UnsupportedAlgorithmError) Error() string {
	return "unsupported algorithm: " + e.Algorithm
}

// Unwrap makes the error match ErrUnsupportedAlgorithm via errors.Is.
func (e UnsupportedAlgorithmError) Unwrap() error {
	return ErrUnsupportedAlgorithm
}

// SignFunc produces a signature for the message stream using the given
// private key.
type SignFunc func(message io.Reader, key any) ([]byte, error)

// VerifyFunc checks the message stream against the signature using the
// given public key. A nil result means the signature is valid.
type VerifyFunc func(message io.Reader, key any, signature []byte) error

type entry struct {
	sign   SignFunc
	verify VerifyFunc
}

// Registry maps algorithm identifiers to sign/verify functions.
// A Registry is not safe for concurrent Register calls.
type Registry struct {
	entries map[string]entry
}

// New creates a Registry preloaded with the built-in algorithms.
func New() *Registry {
	registry := &Registry{
		entries: make(map[string]entry),
	}

	registry.Register(PS256, rsapssSign(crypto.NewRSAPSS256), rsapssVerify(crypto.NewRSAPSS256))
	registry.Register(PS384, rsapssSign(crypto.NewRSAPSS384), rsapssVerify(crypto.NewRSAPSS384))
	registry.Register(PS512, rsapssSign(crypto.NewRSAPSS512), rsapssVerify(crypto.NewRSAPSS512))

	return registry
}

// Register binds an identifier to caller-supplied sign and verify functions.
// Registering an existing identifier overrides it.
func (r *Registry) Register(name string, sign SignFunc, verify VerifyFunc) {
	r.entries[name] = entry{
		sign:   sign,
		verify: verify,
	}
}

// Signer returns the sign function registered for the identifier.
func (r *Registry) Signer(name string) (SignFunc, error) {
	found, ok := r.entries[name]
	if !ok || found.sign == nil {
		return nil, UnsupportedAlgorithmError{Algorithm: name}
	}

	return found.sign, nil
}

// Verifier returns the verify function registered for the identifier.
func (r *Registry) Verifier(name string) (VerifyFunc, error) {
	found, ok := r.entries[name]
	if !ok || found.verify == nil {
		return nil, UnsupportedAlgorithmError{Algorithm: name}
	}

	return found.verify, nil
}

type rsapssConstructor func(*rsa.PrivateKey, *rsa.PublicKey) crypto.RSAPSS

func rsapssSign(construct rsapssConstructor) SignFunc {
	return func(message io.Reader, key any) ([]byte, error) {
		privateKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: want *rsa.PrivateKey, got %T", ErrKeyType, key)
		}

		return construct(privateKey, nil).Sign(message)
	}
}

func rsapssVerify(construct rsapssConstructor) VerifyFunc {
	return func(message io.Reader, key any, signature []byte) error {
		publicKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return fmt.Errorf("%w: want *rsa.PublicKey, got %T", ErrKeyType, key)
		}

		return construct(nil, publicKey).Verify(message, signature)
	}
}
