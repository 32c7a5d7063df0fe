// Package hasher provides types and interfaces for hash calculating
// over byte streams.
package hasher

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"io"
)

// ErrMessageIsNil is returned if the passed message stream is nil.
var ErrMessageIsNil = errors.New("message is nil")

// Hasher is the interface that signature hashers must implement.
// It provides low-level operations for digest calculating over a stream.
type Hasher interface {
	Name() string
	Hash(message io.Reader) ([]byte, error)
}

type streamHasher struct {
	name    string
	factory func() hash.Hash
}

// NewSHA256Hasher creates a new SHA-256 Hasher instance.
func NewSHA256Hasher() Hasher {
	return &streamHasher{
		name:    "sha256",
		factory: sha256.New,
	}
}

// NewSHA384Hasher creates a new SHA-384 Hasher instance.
func NewSHA384Hasher() Hasher {
	return &streamHasher{
		name:    "sha384",
		factory: sha512.New384,
	}
}

// NewSHA512Hasher creates a new SHA-512 Hasher instance.
func NewSHA512Hasher() Hasher {
	return &streamHasher{
		name:    "sha512",
		factory: sha512.New,
	}
}

// Name implements Hasher interface.
func (h *streamHasher) Name() string {
	return h.name
}

// Hash implements Hasher interface. It drains the message stream.
func (h *streamHasher) Hash(message io.Reader) ([]byte, error) {
	if message == nil {
		return nil, ErrMessageIsNil
	}

	digest := h.factory()

	if _, err := io.Copy(digest, message); err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	return digest.Sum(nil), nil
}
