package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ppiankov/actcheck/internal/llm"
	"github.com/ppiankov/actcheck/internal/model"
)

// Messages stored under the "error" key when extraction degrades
const (
	InvalidJSONMessage = "Invalid JSON returned from model"
	SchemaMessage      = "Sections did not match expected schema"
)

// ErrInvalidJSON is returned when a model response is not a JSON object
var ErrInvalidJSON = errors.New("invalid JSON returned from model")

// SchemaError reports a parseable response that does not match the expected shape
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema mismatch: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// Seven required keys; each value is a string, a list of strings,
// or an object whose values are strings
const sectionsSchema = `{
	"type": "object",
	"required": ["definitions", "obligations", "responsibilities", "eligibility", "payments", "penalties", "record_keeping"],
	"properties": {
		"definitions": {"$ref": "#/$defs/field"},
		"obligations": {"$ref": "#/$defs/field"},
		"responsibilities": {"$ref": "#/$defs/field"},
		"eligibility": {"$ref": "#/$defs/field"},
		"payments": {"$ref": "#/$defs/field"},
		"penalties": {"$ref": "#/$defs/field"},
		"record_keeping": {"$ref": "#/$defs/field"}
	},
	"$defs": {
		"field": {
			"anyOf": [
				{"type": "string"},
				{"type": "array", "items": {"type": "string"}},
				{"type": "object", "additionalProperties": {"type": "string"}}
			]
		}
	}
}`

var sectionsValidator = jsonschema.MustCompileString("sections.json", sectionsSchema)

// SectionExtractor asks the model for the seven legislative sections
type SectionExtractor struct {
	provider llm.Provider
	opts     Options
}

// NewSectionExtractor creates an extractor backed by provider
func NewSectionExtractor(provider llm.Provider, opts Options) *SectionExtractor {
	return &SectionExtractor{provider: provider, opts: opts}
}

// Extract returns the parsed sections. Unusable model output degrades to an
// error mapping instead of failing; only the model call itself can fail.
func (e *SectionExtractor) Extract(ctx context.Context, text string) (model.Sections, error) {
	input := text
	if e.opts.TruncateSections {
		var cut bool
		input, cut = Truncate(text, e.opts.MaxInputChars)
		if cut {
			e.opts.warnf("Act text truncated to %d characters for section extraction", e.opts.MaxInputChars)
		}
	}

	resp, err := e.provider.Complete(ctx, e.opts.request(SectionsPrompt(input)))
	if err != nil {
		return nil, fmt.Errorf("extract sections: %w", err)
	}

	sections, err := ParseSections(resp.Text)
	var schemaErr *SchemaError
	switch {
	case err == nil:
		return sections, nil
	case errors.As(err, &schemaErr):
		if e.opts.StrictSchema {
			return model.ErrorSections(SchemaMessage), nil
		}
		e.opts.warnf("sections %v", err)
		return sections, nil
	default:
		return model.ErrorSections(InvalidJSONMessage), nil
	}
}

// ParseSections decodes a model response into sections.
// Responses that are not a single JSON object return ErrInvalidJSON.
// Objects that fail validation are returned together with a *SchemaError.
func ParseSections(raw string) (model.Sections, error) {
	var v any
	if err := DecodeJSON(raw, &v); err != nil {
		return nil, err
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T, want object", ErrInvalidJSON, v)
	}

	if err := sectionsValidator.Validate(obj); err != nil {
		return model.Sections(obj), &SchemaError{Err: err}
	}
	return model.Sections(obj), nil
}

// DecodeJSON decodes exactly one JSON value from model output, keeping numbers exact.
// Anything else, including markdown-fenced JSON, wraps ErrInvalidJSON.
func DecodeJSON(raw string, v any) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data after JSON value", ErrInvalidJSON)
	}
	return nil
}
