package ir

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainChapter  = "novelbackup/chapter/v1"
	DomainDocument = "novelbackup/document/v1"
)

// hashWithDomain computes a BLAKE3-256 hash with domain separation.
// Format: BLAKE3(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := blake3.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content digest of a paragraph sequence.
//
// The digest covers the canonical JSON array of the paragraphs, so two
// chapters share a fingerprint iff their trimmed visible text is identical
// (modulo Unicode NFC normalization). Titles and ids never contribute.
func Fingerprint(paragraphs []string) string {
	if paragraphs == nil {
		paragraphs = []string{}
	}
	canonical, err := MarshalCanonical(paragraphs)
	if err != nil {
		// []string always marshals; a failure here is a programming error.
		panic(fmt.Sprintf("Fingerprint: %v", err))
	}
	return hashWithDomain(DomainChapter, canonical)
}

// DocumentDigest computes a content-addressed digest of a whole document,
// including metadata, ids and orders.
func DocumentDigest(d *Document) (string, error) {
	canonical, err := MarshalDocumentCanonical(d)
	if err != nil {
		return "", fmt.Errorf("DocumentDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

// MustDocumentDigest is like DocumentDigest but panics on error.
// Use only in tests or when the document is known to be valid.
func MustDocumentDigest(d *Document) string {
	digest, err := DocumentDigest(d)
	if err != nil {
		panic(err)
	}
	return digest
}

// ShortFingerprint returns the first 12 hex characters of a fingerprint for
// display.
func ShortFingerprint(fp string) string {
	if len(fp) <= 12 {
		return fp
	}
	return fp[:12]
}
