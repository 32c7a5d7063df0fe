// Package prologue implements the signature prologue framing codec.
//
// A signed document starts with zero or more signature lines of the exact
// form
//
//	//JSONSIG-V1: <base64url(header-json)>.<base64url(signature)>\n
//
// followed by the untouched document body. The lines read as line comments,
// so JSON consumers that tolerate comments can ignore them.
package prologue

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

const (
	// Prefix is the comment token that makes a prologue line ignorable
	// for the host JSON consumer.
	Prefix = "//"
	// TypeTag identifies the format and its version. It must match exactly
	// for a line to be recognized and is repeated in the header's "typ"
	// field.
	TypeTag = "JSONSIG-V1"

	// linePrefix is the exact start of every signature line.
	linePrefix = Prefix + TypeTag + ": "
)

// Reserved header field names.
const (
	FieldTyp = "typ"
	FieldAlg = "alg"
	FieldKey = "key"
)

// encoding is base64url without padding, as the segments appear on the wire.
var encoding = base64.RawURLEncoding

// ErrReservedField is returned when an extra header field collides with a
// reserved one.
var ErrReservedField = errors.New("reserved header field")

// Header describes one signature's metadata before encoding.
type Header struct {
	// Alg is the algorithm identifier.
	Alg string
	// Key is the public key material or key identifier, opaque to the codec.
	Key string
	// Extra carries caller-supplied flat string fields.
	Extra map[string]string
}

// EncodeHeader returns the base64url text of the header object. The field
// order is fixed (typ, alg, key, then extras sorted by name) so that signing
// identical inputs produces identical output.
func EncodeHeader(header Header) (string, error) {
	raw, err := header.encodeJSON()
	if err != nil {
		return "", err
	}

	return encoding.EncodeToString(raw), nil
}

// EncodeLine renders one complete prologue line from an already encoded
// header segment and the raw signature bytes.
func EncodeLine(encodedHeader string, signature []byte) []byte {
	var buf bytes.Buffer

	buf.WriteString(linePrefix)
	buf.WriteString(encodedHeader)
	buf.WriteByte('.')
	buf.WriteString(encoding.EncodeToString(signature))
	buf.WriteByte('\n')

	return buf.Bytes()
}

func (h Header) encodeJSON() ([]byte, error) {
	names := make([]string, 0, len(h.Extra))

	for name := range h.Extra {
		if name == FieldTyp || name == FieldAlg || name == FieldKey {
			return nil, fmt.Errorf("%w: %s", ErrReservedField, name)
		}

		names = append(names, name)
	}

	sort.Strings(names)

	var buf bytes.Buffer

	buf.WriteByte('{')

	if err := writeField(&buf, FieldTyp, TypeTag, true); err != nil {
		return nil, err
	}

	if err := writeField(&buf, FieldAlg, h.Alg, false); err != nil {
		return nil, err
	}

	if err := writeField(&buf, FieldKey, h.Key, false); err != nil {
		return nil, err
	}

	for _, name := range names {
		if err := writeField(&buf, name, h.Extra[name], false); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, name, value string, first bool) error {
	if !first {
		buf.WriteByte(',')
	}

	encodedName, err := json.Marshal(name)
	if err != nil {
		return fmt.Errorf("failed to encode field name: %w", err)
	}

	encodedValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode field value: %w", err)
	}

	buf.Write(encodedName)
	buf.WriteByte(':')
	buf.Write(encodedValue)

	return nil
}
