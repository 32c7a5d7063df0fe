// Package etcd persists signed JSON documents in etcd.
// It is a thin wrapper: documents are signed on write and their signatures
// are checked on read; the stored bytes are the full prologue plus body.
package etcd

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	etcd "go.etcd.io/etcd/client/v3"

	signedjson "github.com/tarantool/go-signedjson"
	"github.com/tarantool/go-signedjson/internal/options"
	"github.com/tarantool/go-signedjson/prologue"
)

var (
	// ErrNotFound is returned when no document exists under the name.
	ErrNotFound = errors.New("document not found")
	// ErrNotVerified is returned by GetVerified when no signature matches.
	ErrNotVerified = errors.New("document not verified")
)

// KV defines the minimal etcd surface the store needs.
// This allows for easier testing and mock implementations.
type KV interface {
	Put(ctx context.Context, key, val string, opts ...etcd.OpOption) (*etcd.PutResponse, error)
	Get(ctx context.Context, key string, opts ...etcd.OpOption) (*etcd.GetResponse, error)
}

type storeOptions struct {
	prefix   string
	signer   signedjson.Signer
	verifier signedjson.Verifier
}

// Option configures a Store.
type Option = options.Callback[storeOptions]

// WithPrefix sets the key prefix documents are stored under.
func WithPrefix(prefix string) Option {
	return func(opts *storeOptions) {
		opts.prefix = prefix
	}
}

// WithSigner replaces the default signing engine, e.g. to use a custom
// algorithm registry.
func WithSigner(signer signedjson.Signer) Option {
	return func(opts *storeOptions) {
		opts.signer = signer
	}
}

// WithVerifier replaces the default verification engine.
func WithVerifier(verifier signedjson.Verifier) Option {
	return func(opts *storeOptions) {
		opts.verifier = verifier
	}
}

func newStoreOptions() storeOptions {
	return storeOptions{
		prefix:   "/signed",
		signer:   signedjson.NewSigner(),
		verifier: signedjson.NewVerifier(),
	}
}

// Store reads and writes signed documents under a common key prefix.
type Store struct {
	kv       KV
	prefix   string
	signer   signedjson.Signer
	verifier signedjson.Verifier
}

// New creates a Store around an existing etcd client. The client should be
// properly configured and connected to an etcd cluster; *etcd.Client
// satisfies KV directly.
func New(kv KV, opts ...Option) *Store {
	cfg := options.Apply(newStoreOptions, opts)

	return &Store{
		kv:       kv,
		prefix:   cfg.prefix,
		signer:   cfg.signer,
		verifier: cfg.verifier,
	}
}

// Document is one fetched document.
type Document struct {
	// Body holds the document bytes, prologue stripped.
	Body []byte
	// Matches reports the verify requests that validated.
	Matches []signedjson.MatchResult
}

// Put signs the body with the given requests and stores the signed document
// under the name.
func (s *Store) Put(ctx context.Context, name string, body []byte, requests []signedjson.SignRequest) error {
	var signed bytes.Buffer

	if err := s.signer.Sign(bytes.NewReader(body), requests, &signed); err != nil {
		return fmt.Errorf("failed to sign document: %w", err)
	}

	if _, err := s.kv.Put(ctx, s.key(name), signed.String()); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}

	return nil
}

// Get fetches the document and reports which verify requests validated.
// A document whose signatures all fail still comes back, with no matches;
// callers needing a guarantee should use GetVerified.
func (s *Store) Get(ctx context.Context, name string, requests []signedjson.VerifyRequest) (Document, error) {
	resp, err := s.kv.Get(ctx, s.key(name))
	if err != nil {
		return Document{}, fmt.Errorf("failed to fetch document: %w", err)
	}

	if len(resp.Kvs) == 0 {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	raw := resp.Kvs[0].Value

	matches, err := s.verifier.Verify(bytes.NewReader(raw), requests)
	if err != nil {
		return Document{}, fmt.Errorf("failed to verify document: %w", err)
	}

	_, bodyOffset, err := prologue.Parse(bytes.NewReader(raw))
	if err != nil {
		return Document{}, fmt.Errorf("failed to locate body: %w", err)
	}

	return Document{
		Body:    raw[bodyOffset:],
		Matches: matches,
	}, nil
}

// GetVerified fetches the document and fails unless at least one verify
// request validated.
func (s *Store) GetVerified(ctx context.Context, name string, requests []signedjson.VerifyRequest) (Document, error) {
	doc, err := s.Get(ctx, name, requests)
	if err != nil {
		return Document{}, err
	}

	if len(doc.Matches) == 0 {
		return Document{}, fmt.Errorf("%w: %s", ErrNotVerified, name)
	}

	return doc, nil
}

func (s *Store) key(name string) string {
	return s.prefix + "/" + name
}
