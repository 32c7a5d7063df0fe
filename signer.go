package signedjson

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tarantool/go-signedjson/algorithm"
	"github.com/tarantool/go-signedjson/internal/options"
	"github.com/tarantool/go-signedjson/prologue"
	"github.com/tarantool/go-signedjson/stream"
)

// Signer embeds signature prologues into documents.
type Signer struct {
	registry     *algorithm.Registry
	bufferedBody bool
}

// NewSigner creates a Signer. Without options it uses the default algorithm
// registry and requires a seekable body.
func NewSigner(opts ...Option) Signer {
	cfg := options.Apply(newEngineOptions, opts)

	return Signer{
		registry:     cfg.registry,
		bufferedBody: cfg.bufferedBody,
	}
}

// Sign writes one prologue line per request to out, in request order,
// followed by exactly one verbatim copy of the body. Each signature covers
// its own encoded header plus the full body, so the body is re-read from its
// start once per request. Any per-request failure aborts the whole operation
// before anything is written to out.
func (s Signer) Sign(body io.Reader, requests []SignRequest, out io.Writer) error {
	if len(requests) == 0 {
		return ErrNoRequests
	}

	seekable, err := s.seekableBody(body)
	if err != nil {
		return err
	}

	if err := rejectSignedBody(seekable); err != nil {
		return err
	}

	lines := make([][]byte, 0, len(requests))

	for _, request := range requests {
		line, err := s.signOne(seekable, request)
		if err != nil {
			return fmt.Errorf("failed to sign with %q: %w", request.Algorithm, err)
		}

		lines = append(lines, line)
	}

	for _, line := range lines {
		if _, err := out.Write(line); err != nil {
			return fmt.Errorf("failed to write prologue line: %w", err)
		}
	}

	if _, err := seekable.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind body: %w", err)
	}

	if _, err := io.Copy(out, seekable); err != nil {
		return fmt.Errorf("failed to copy body: %w", err)
	}

	return nil
}

func (s Signer) signOne(body io.ReadSeeker, request SignRequest) ([]byte, error) {
	signFn, err := s.registry.Signer(request.Algorithm)
	if err != nil {
		return nil, err
	}

	encodedHeader, err := prologue.EncodeHeader(prologue.Header{
		Alg:   request.Algorithm,
		Key:   request.PublicKey,
		Extra: request.Extra,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode header: %w", err)
	}

	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind body: %w", err)
	}

	message := stream.NewConcat([]io.Reader{
		strings.NewReader(encodedHeader),
		strings.NewReader("."),
		body,
	})

	signature, err := signFn(message, request.Key)
	if err != nil {
		return nil, err
	}

	return prologue.EncodeLine(encodedHeader, signature), nil
}

func (s Signer) seekableBody(body io.Reader) (io.ReadSeeker, error) {
	if seekable, ok := body.(io.ReadSeeker); ok {
		return seekable, nil
	}

	if !s.bufferedBody {
		return nil, ErrBodyNotSeekable
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to buffer body: %w", err)
	}

	return bytes.NewReader(data), nil
}

func rejectSignedBody(body io.ReadSeeker) error {
	head := make([]byte, len(prologue.Prefix))

	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("failed to read body head: %w", err)
	}

	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind body: %w", err)
	}

	if n == len(head) && string(head) == prologue.Prefix {
		return ErrAlreadySigned
	}

	return nil
}
