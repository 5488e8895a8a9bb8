package handlers

import (
	"errors"
	"strings"

	e "github.com/gartstein/professionals/internal/professional/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const profileSchemaURL = "professional.json"

// profileSchema describes one candidate profile payload. Unknown keys are
// ignored; known keys must be strings or null.
const profileSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "full_name":    {"type": ["string", "null"]},
    "email":        {"type": ["string", "null"]},
    "phone":        {"type": ["string", "null"]},
    "company_name": {"type": ["string", "null"]},
    "job_title":    {"type": ["string", "null"]},
    "source":       {"type": ["string", "null"]}
  }
}`

var profileValidator = jsonschema.MustCompileString(profileSchemaURL, profileSchema)

// checkProfileShape validates a decoded JSON value against profileSchema.
func checkProfileShape(v any) error {
	err := profileValidator.Validate(v)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}

	problems := &e.ValidationError{}
	for _, leaf := range leaves(ve) {
		field := strings.TrimPrefix(leaf.InstanceLocation, "/")
		if field == "" {
			field = "body"
		}
		problems.Add(field, e.CodeInvalidType, field+": "+leaf.Message)
	}
	return problems
}

func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}
