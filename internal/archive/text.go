package archive

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxEntrySize bounds how much text a single entry may decode to.
const MaxEntrySize = 64 << 20

// DecodeText converts raw entry bytes to a string.
//
// A UTF-8 byte order mark is stripped; UTF-16 LE/BE content with a byte order
// mark is transcoded. Anything else is treated as UTF-8, with invalid
// sequences replaced by U+FFFD.
func DecodeText(data []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}

// readLimited reads r up to MaxEntrySize bytes.
func readLimited(r io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxEntrySize {
		return nil, fmt.Errorf("entry %s exceeds %d bytes", name, MaxEntrySize)
	}
	return data, nil
}
