package store

import (
	"fmt"

	"github.com/roach88/novelbackup/internal/ir"
)

// marshalBody returns the stored body and digest of a document. The body is
// the plain JSON encoding so text comes back byte for byte; only the digest
// goes through the NFC canonical form.
func marshalBody(d *ir.Document) (body string, digest string, err error) {
	data, err := ir.Marshal(d)
	if err != nil {
		return "", "", fmt.Errorf("marshal body: %w", err)
	}
	digest, err = ir.DocumentDigest(d)
	if err != nil {
		return "", "", fmt.Errorf("marshal body: %w", err)
	}
	return string(data), digest, nil
}

// unmarshalBody decodes a stored body, running the same checks as any other
// document read.
func unmarshalBody(body string) (*ir.Document, error) {
	d, err := ir.Unmarshal([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("unmarshal body: %w", err)
	}
	return d, nil
}
