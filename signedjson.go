package signedjson

import (
	"errors"

	"github.com/tarantool/go-signedjson/algorithm"
	"github.com/tarantool/go-signedjson/internal/options"
)

var (
	// ErrNoRequests is returned when sign or verify is called with an empty
	// request list. A signed document with zero signatures is meaningless.
	ErrNoRequests = errors.New("no requests provided")
	// ErrAlreadySigned is returned when the body already begins with the
	// signature prologue prefix, preventing accidental double-embedding.
	ErrAlreadySigned = errors.New("body already begins with a signature prologue")
	// ErrBodyNotSeekable is returned when the body cannot be re-read from
	// its start and body buffering is disabled.
	ErrBodyNotSeekable = errors.New("body is not seekable")
)

// SignRequest describes one signature to embed. One body and N requests
// yield N prologue lines, each independently signing the same body.
type SignRequest struct {
	// Algorithm selects the registered algorithm identifier.
	Algorithm string
	// PublicKey is the opaque key material or key identifier placed into
	// the header's "key" field and returned to verifiers on success.
	PublicKey string
	// Key is the private key handed to the registered sign function.
	Key any
	// Extra carries caller-supplied header fields. They participate in the
	// signed message and are returned to verifiers on success.
	Extra map[string]string
}

// VerifyRequest describes one acceptable signer.
type VerifyRequest struct {
	// Algorithm selects the registered algorithm identifier.
	Algorithm string
	// Key is the public key handed to the registered verify function.
	Key any
}

// MatchResult reports one signature that validated.
type MatchResult struct {
	// Algorithm is the identifier the signature was checked with.
	Algorithm string
	// PublicKey is the header's "key" field, verbatim.
	PublicKey string
	// Header holds all decoded header fields, reserved ones included.
	Header map[string]string
}

type engineOptions struct {
	registry     *algorithm.Registry
	bufferedBody bool
}

// Option configures a Signer or a Verifier.
type Option = options.Callback[engineOptions]

// WithRegistry replaces the default algorithm registry, e.g. to add custom
// algorithms registered under caller-chosen identifiers.
func WithRegistry(registry *algorithm.Registry) Option {
	return func(opts *engineOptions) {
		opts.registry = registry
	}
}

// WithBufferedBody makes Sign buffer a non-seekable body in memory before
// signing. Without it, a body that is not an io.Seeker fails fast with
// ErrBodyNotSeekable.
func WithBufferedBody() Option {
	return func(opts *engineOptions) {
		opts.bufferedBody = true
	}
}

func newEngineOptions() engineOptions {
	return engineOptions{
		registry:     algorithm.New(),
		bufferedBody: false,
	}
}
