// Package crypto implements crypto interfaces.
package crypto

import "io"

// Signer implements high-level API for message signing.
type Signer interface {
	// Name returns name of the crypto algorithm, used by signer.
	Name() string
	// Sign returns signature for the passed message stream.
	Sign(message io.Reader) ([]byte, error)
}

// Verifier is an interface implementing a generic signature
// verification algorithm.
type Verifier interface {
	// Name returns name of the crypto algorithm, used by verifier.
	Name() string
	// Verify checks message and signature mapping.
	Verify(message io.Reader, signature []byte) error
}

// SignerVerifier common interface.
type SignerVerifier interface {
	Signer
	Verifier
}
