// Package schema validates the shape of backup JSON against an embedded CUE
// schema.
//
// Shape checks report every problem with its field path and, where CUE can
// place it, the line in the input. They run before the semantic checks in
// ir.Validate, which need a decoded document.
package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed backup.cue
var source []byte

// Source returns the CUE schema text.
func Source() string { return string(source) }

// Validation error codes (E100-E109)
const (
	ErrSyntax    = "E100" // input is not JSON
	ErrShape     = "E101" // JSON does not match the schema
	ErrInvariant = "E102" // decoded document breaks a document invariant
	ErrInternal  = "E109" // schema failed to compile
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

const inputName = "document.json"

var (
	compileOnce sync.Once
	ctx         *cue.Context
	document    cue.Value
	compileErr  error
)

func compiled() (*cue.Context, cue.Value, error) {
	compileOnce.Do(func() {
		ctx = cuecontext.New()
		v := ctx.CompileBytes(source, cue.Filename("backup.cue"))
		if err := v.Err(); err != nil {
			compileErr = err
			return
		}
		document = v.LookupPath(cue.ParsePath("#Document"))
		compileErr = document.Err()
	})
	return ctx, document, compileErr
}

// Validate checks data against the backup document schema.
// Returns all errors found (does not fail-fast); nil means the shape is valid.
func Validate(data []byte) []ValidationError {
	cctx, def, err := compiled()
	if err != nil {
		return []ValidationError{{Field: "schema", Message: err.Error(), Code: ErrInternal}}
	}

	expr, err := cuejson.Extract(inputName, data)
	if err != nil {
		return convert(err, ErrSyntax, "json")
	}
	v := cctx.BuildExpr(expr)
	if err := v.Err(); err != nil {
		return convert(err, ErrSyntax, "json")
	}

	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return convert(err, ErrShape, "document")
	}
	return nil
}

// convert flattens a CUE error list, keeping the position inside the input
// when there is one.
func convert(err error, code, fallbackField string) []ValidationError {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return []ValidationError{{Field: fallbackField, Message: err.Error(), Code: code}}
	}

	out := make([]ValidationError, 0, len(errs))
	seen := make(map[string]bool, len(errs))
	for _, e := range errs {
		field := strings.Join(e.Path(), ".")
		if field == "" {
			field = fallbackField
		}
		format, args := e.Msg()
		ve := ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
			Line:    inputLine(errors.Positions(e)),
		}
		key := ve.Error()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ve)
	}
	return out
}

func inputLine(positions []token.Pos) int {
	for _, p := range positions {
		if p.IsValid() && p.Filename() == inputName {
			return p.Line()
		}
	}
	return 0
}
