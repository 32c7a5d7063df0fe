// Package stream provides read-only composition of ordered byte sources.
package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/tarantool/go-signedjson/internal/options"
)

// ErrUnsupportedOperation is returned for operations a Concat cannot support.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// UnsupportedOperationError reports which operation was attempted on a Concat.
type UnsupportedOperationError struct {
	Op string
}

// Error returns a string representation of the unsupported operation error.
func (e UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation on concat stream: %s", e.Op)
}

// Unwrap makes the error match ErrUnsupportedOperation via errors.Is.
func (e UnsupportedOperationError) Unwrap() error {
	return ErrUnsupportedOperation
}

type concatOptions struct {
	closeSources bool
}

// Option configures a Concat.
type Option = options.Callback[concatOptions]

// WithCloseSources makes Close propagate to every underlying source.
// Without it the caller keeps ownership and may reuse the sources.
func WithCloseSources() Option {
	return func(opts *concatOptions) {
		opts.closeSources = true
	}
}

func newConcatOptions() concatOptions {
	return concatOptions{
		closeSources: false,
	}
}

// Concat presents an ordered list of sources as one continuous, forward-only,
// read-only stream. A single Read drains the current source only, so a caller
// may need several reads to cross a source boundary. Concat is a
// single-reader object and is not safe for concurrent use.
type Concat struct {
	sources      []io.Reader
	next         int
	closeSources bool
}

// NewConcat creates a Concat over the given sources in order.
func NewConcat(sources []io.Reader, opts ...Option) *Concat {
	cfg := options.Apply(newConcatOptions, opts)

	return &Concat{
		sources:      append([]io.Reader{}, sources...),
		next:         0,
		closeSources: cfg.closeSources,
	}
}

// Read fills p from the current source, silently advancing to the next source
// when the current one is exhausted. It reports io.EOF only once every source
// is exhausted; with zero sources it reports io.EOF immediately.
func (c *Concat) Read(p []byte) (int, error) {
	for c.next < len(c.sources) {
		n, err := c.sources[c.next].Read(p)
		if errors.Is(err, io.EOF) {
			c.next++

			if n == 0 {
				continue
			}

			err = nil
		}

		return n, err
	}

	return 0, io.EOF
}

// Close releases the stream. With the close-sources policy every underlying
// source implementing io.Closer is closed; otherwise no source is touched.
func (c *Concat) Close() error {
	if !c.closeSources {
		return nil
	}

	var errs []error

	for _, source := range c.sources {
		closer, ok := source.(io.Closer)
		if !ok {
			continue
		}

		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close source: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Seek always fails: the stream is forward-only.
func (c *Concat) Seek(_ int64, _ int) (int64, error) {
	return 0, UnsupportedOperationError{Op: "seek"}
}

// Write always fails: the stream is read-only.
func (c *Concat) Write(_ []byte) (int, error) {
	return 0, UnsupportedOperationError{Op: "write"}
}

// Size always fails: the total length is unknown until the sources are drained.
func (c *Concat) Size() (int64, error) {
	return 0, UnsupportedOperationError{Op: "size"}
}
