package signedjson

import (
	"fmt"
	"io"
	"strings"

	"github.com/tarantool/go-signedjson/algorithm"
	"github.com/tarantool/go-signedjson/internal/options"
	"github.com/tarantool/go-signedjson/prologue"
	"github.com/tarantool/go-signedjson/stream"
)

// Verifier checks signature prologues.
type Verifier struct {
	registry *algorithm.Registry
}

// NewVerifier creates a Verifier. Without options it uses the default
// algorithm registry.
func NewVerifier(opts ...Option) Verifier {
	cfg := options.Apply(newEngineOptions, opts)

	return Verifier{
		registry: cfg.registry,
	}
}

// Verify attempts every parsed prologue record against every request whose
// algorithm identifier matches the record's "alg" field, and reports the
// pairings that validated. Results follow record order, then request order
// within one record. Malformed lines and failed signatures contribute
// nothing and never affect any other record; completely garbage input yields
// an empty list, not an error. Errors report programmer-level misuse (empty
// requests, unknown algorithms) and I/O failures only.
func (v Verifier) Verify(signed io.ReadSeeker, requests []VerifyRequest) ([]MatchResult, error) {
	return v.verify(signed, requests, false)
}

// VerifyAtLeastOne reports whether any request validates some signature.
// It stops scanning at the first match.
func (v Verifier) VerifyAtLeastOne(signed io.ReadSeeker, requests []VerifyRequest) (bool, error) {
	matches, err := v.verify(signed, requests, true)
	if err != nil {
		return false, err
	}

	return len(matches) > 0, nil
}

type resolvedRequest struct {
	request VerifyRequest
	verify  algorithm.VerifyFunc
}

func (v Verifier) verify(
	signed io.ReadSeeker,
	requests []VerifyRequest,
	firstOnly bool,
) ([]MatchResult, error) {
	if len(requests) == 0 {
		return nil, ErrNoRequests
	}

	resolved := make([]resolvedRequest, 0, len(requests))

	for _, request := range requests {
		verifyFn, err := v.registry.Verifier(request.Algorithm)
		if err != nil {
			return nil, err
		}

		resolved = append(resolved, resolvedRequest{
			request: request,
			verify:  verifyFn,
		})
	}

	if _, err := signed.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind stream: %w", err)
	}

	records, bodyOffset, err := prologue.Parse(signed)
	if err != nil {
		return nil, fmt.Errorf("failed to scan prologue: %w", err)
	}

	var matches []MatchResult

	for _, record := range records {
		for _, candidate := range resolved {
			if candidate.request.Algorithm != record.Fields[prologue.FieldAlg] {
				continue
			}

			ok, err := checkRecord(signed, bodyOffset, record, candidate)
			if err != nil {
				return nil, err
			}

			if !ok {
				continue
			}

			matches = append(matches, MatchResult{
				Algorithm: candidate.request.Algorithm,
				PublicKey: record.Fields[prologue.FieldKey],
				Header:    record.Fields,
			})

			if firstOnly {
				return matches, nil
			}
		}
	}

	return matches, nil
}

// checkRecord rebuilds the signable message from the record's verbatim
// encoded header and the body re-read from its offset. A failed signature is
// reported as false, never as an error.
func checkRecord(
	signed io.ReadSeeker,
	bodyOffset int64,
	record prologue.Record,
	candidate resolvedRequest,
) (bool, error) {
	if _, err := signed.Seek(bodyOffset, io.SeekStart); err != nil {
		return false, fmt.Errorf("failed to seek to body: %w", err)
	}

	message := stream.NewConcat([]io.Reader{
		strings.NewReader(record.EncodedHeader),
		strings.NewReader("."),
		signed,
	})

	if err := candidate.verify(message, candidate.request.Key, record.Signature); err != nil {
		return false, nil
	}

	return true, nil
}
