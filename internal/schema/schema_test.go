package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/novelbackup/internal/ir"
	"github.com/roach88/novelbackup/internal/testutil"
)

func validJSON(t *testing.T) []byte {
	t.Helper()
	d := testutil.Document("Novel",
		testutil.Chapter("c1", "One", "Hello", "World"),
		testutil.Chapter("c2", "Two"),
	)
	data, err := ir.Marshal(d)
	require.NoError(t, err)
	return data
}

func fields(errs []ValidationError) string {
	var parts []string
	for _, e := range errs {
		parts = append(parts, e.Field)
	}
	return strings.Join(parts, ",")
}

func TestValidateAcceptsEncodedDocument(t *testing.T) {
	assert.Empty(t, Validate(validJSON(t)))
}

func TestValidateAcceptsMissingFingerprint(t *testing.T) {
	data := []byte(`{"format_version":1,"chapters":[{"id":"a","title":"A","paragraphs":["x"],"order":0}]}`)
	assert.Empty(t, Validate(data))
}

func TestValidateRejectsBadJSON(t *testing.T) {
	errs := Validate([]byte(`{"format_version": 1,`))
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrSyntax, errs[0].Code)
}

func TestValidateShapeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{
			name:  "missing chapters",
			input: `{"format_version":1}`,
			field: "chapters",
		},
		{
			name:  "missing version",
			input: `{"chapters":[]}`,
			field: "format_version",
		},
		{
			name:  "version below one",
			input: `{"format_version":0,"chapters":[]}`,
			field: "format_version",
		},
		{
			name:  "unknown field",
			input: `{"format_version":1,"chapters":[],"cover":"x"}`,
			field: "cover",
		},
		{
			name:  "empty id",
			input: `{"format_version":1,"chapters":[{"id":"","title":"A","paragraphs":[],"order":0}]}`,
			field: "chapters.0.id",
		},
		{
			name:  "untrimmed paragraph",
			input: `{"format_version":1,"chapters":[{"id":"a","title":"A","paragraphs":[" x"],"order":0}]}`,
			field: "chapters.0.paragraphs.0",
		},
		{
			name:  "multi-line paragraph",
			input: `{"format_version":1,"chapters":[{"id":"a","title":"A","paragraphs":["x\ny"],"order":0}]}`,
			field: "chapters.0.paragraphs.0",
		},
		{
			name:  "negative order",
			input: `{"format_version":1,"chapters":[{"id":"a","title":"A","paragraphs":[],"order":-1}]}`,
			field: "chapters.0.order",
		},
		{
			name:  "malformed fingerprint",
			input: `{"format_version":1,"chapters":[{"id":"a","title":"A","paragraphs":[],"order":0,"fingerprint":"xyz"}]}`,
			field: "chapters.0.fingerprint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate([]byte(tt.input))
			require.NotEmpty(t, errs)
			assert.Equal(t, ErrShape, errs[0].Code)
			assert.Contains(t, fields(errs), tt.field)
		})
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Field: "chapters.0.id", Message: "bad", Code: ErrShape, Line: 3}
	assert.Equal(t, "[E101] line 3: chapters.0.id: bad", e.Error())

	e.Line = 0
	assert.Equal(t, "[E101] chapters.0.id: bad", e.Error())
}

func TestSourceIsEmbedded(t *testing.T) {
	assert.Contains(t, Source(), "#Document")
}
