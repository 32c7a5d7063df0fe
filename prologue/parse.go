package prologue

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tarantool/go-option"
)

// maxLineBytes bounds a single prologue line. Real headers carry a key, a
// signature and a few short fields; anything larger is adversarial input and
// is treated as body.
const maxLineBytes = 1 << 20

// errLineTooLong marks an over-long line candidate; it never leaves Parse.
var errLineTooLong = errors.New("prologue line too long")

// Record is one parsed signature line.
type Record struct {
	// EncodedHeader is the verbatim base64url header segment. It is part of
	// the signed message and must never be re-encoded.
	EncodedHeader string
	// Fields holds the decoded header object, reserved fields included.
	Fields map[string]string
	// EncodedSignature is the verbatim base64url signature segment.
	EncodedSignature string
	// Signature holds the decoded signature bytes.
	Signature []byte
}

// ParseLine classifies one line candidate, which must include its trailing
// newline. It is a total function: any deviation from the grammar yields
// None, never an error.
func ParseLine(line []byte) option.Generic[Record] {
	none := option.None[Record]()

	if !bytes.HasPrefix(line, []byte(linePrefix)) || !bytes.HasSuffix(line, []byte{'\n'}) {
		return none
	}

	payload := string(line[len(linePrefix) : len(line)-1])

	dot := strings.IndexByte(payload, '.')
	if dot < 0 || strings.IndexByte(payload[dot+1:], '.') >= 0 {
		return none
	}

	encodedHeader, encodedSignature := payload[:dot], payload[dot+1:]

	// The standard decoder silently skips \r and \n, so the alphabet is
	// checked explicitly to keep the grammar byte-exact.
	if !isBase64URL(encodedHeader) || !isBase64URL(encodedSignature) {
		return none
	}

	headerRaw, err := encoding.DecodeString(encodedHeader)
	if err != nil {
		return none
	}

	signature, err := encoding.DecodeString(encodedSignature)
	if err != nil {
		return none
	}

	// A flat string-keyed object is required; non-string values fail here.
	var fields map[string]string
	if err := json.Unmarshal(headerRaw, &fields); err != nil {
		return none
	}

	if fields[FieldTyp] != TypeTag {
		return none
	}

	return option.Some(Record{
		EncodedHeader:    encodedHeader,
		Fields:           fields,
		EncodedSignature: encodedSignature,
		Signature:        signature,
	})
}

func isBase64URL(s string) bool {
	for i := range len(s) {
		c := s[i]

		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}

	return true
}

// Parse scans the prologue from the start of r. It returns the recognized
// records and the byte offset where the body begins: the first byte of the
// first line that does not begin with the signature prefix, or that has no
// terminating newline. A prefix-bearing line that fails the rest of the
// grammar (tampered base64, broken header JSON) stays part of the prologue:
// it is skipped without producing a record, so one corrupted header never
// hides its siblings or shifts the body other signatures were computed over.
// The returned error reports I/O failures only; malformed content never
// fails the call.
//
// Parse reads r past the body start; callers wanting the body must
// reposition the underlying stream using the returned offset.
func Parse(r io.Reader) ([]Record, int64, error) {
	reader := bufio.NewReader(r)

	var (
		records []Record
		offset  int64
	)

	for {
		line, err := readLine(reader)

		switch {
		case errors.Is(err, io.EOF), errors.Is(err, errLineTooLong):
			// A line without its newline cannot be a header; the body
			// starts where this line started.
		case err != nil:
			return nil, 0, fmt.Errorf("failed to read prologue line: %w", err)
		}

		if !bytes.HasPrefix(line, []byte(linePrefix)) || !bytes.HasSuffix(line, []byte{'\n'}) {
			return records, offset, nil
		}

		if parsed := ParseLine(line); parsed.IsSome() {
			records = append(records, parsed.UnwrapOr(Record{}))
		}

		offset += int64(len(line))
	}
}

func readLine(reader *bufio.Reader) ([]byte, error) {
	var line []byte

	for {
		chunk, err := reader.ReadSlice('\n')
		line = append(line, chunk...)

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			if len(line) > maxLineBytes {
				return line, errLineTooLong
			}
		default:
			return line, err
		}
	}
}
