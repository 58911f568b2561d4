package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Encode writes a document as indented JSON.
// (Canonical JSON without indentation is used only for hashing.)
func Encode(w io.Writer, d *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// Marshal returns the indented JSON form of a document.
func Marshal(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// versionProbe reads only the format version so an unsupported document is
// rejected before the rest of it is interpreted.
type versionProbe struct {
	FormatVersion *int `json:"format_version"`
}

// Decode reads a backup document and checks it.
//
// The format version is checked first: a missing or unsupported version is an
// INCOMPATIBLE_FORMAT error. Chapters without a fingerprint get one computed;
// the document is then run through Validate so a caller never receives a
// document that breaks an invariant.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Unmarshal(data)
}

// Unmarshal is Decode over a byte slice.
func Unmarshal(data []byte) (*Document, error) {
	var probe versionProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &Error{
			Code:    ErrCodeInvalidDocument,
			Message: "document is not valid JSON",
			Details: map[string]string{"check": "json"},
			Err:     err,
		}
	}
	if probe.FormatVersion == nil {
		return nil, &Error{
			Code:    ErrCodeIncompatibleFormat,
			Message: "document has no format_version",
			Details: map[string]string{"role": "document"},
		}
	}
	if !SupportedFormat(*probe.FormatVersion) {
		return nil, NewIncompatibleFormatError("document", *probe.FormatVersion)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var d Document
	if err := dec.Decode(&d); err != nil {
		return nil, &Error{
			Code:    ErrCodeInvalidDocument,
			Message: "document does not match the backup schema",
			Details: map[string]string{"check": "schema"},
			Err:     err,
		}
	}
	if d.Chapters == nil {
		d.Chapters = []Chapter{}
	}
	for i := range d.Chapters {
		if d.Chapters[i].Paragraphs == nil {
			d.Chapters[i].Paragraphs = []string{}
		}
		if d.Chapters[i].Fingerprint == "" {
			d.Chapters[i].Fingerprint = Fingerprint(d.Chapters[i].Paragraphs)
		}
	}

	if err := Validate(&d); err != nil {
		return nil, err
	}
	return &d, nil
}
