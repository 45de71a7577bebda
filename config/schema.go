package config

import (
	"encoding/json"
	"sync"

	"github.com/grovetools/runwatch/errors"
	"github.com/grovetools/runwatch/schema"
	"github.com/invopop/jsonschema"
)

var (
	validatorOnce sync.Once
	validator     *schema.Validator
	validatorErr  error
)

// GenerateSchema reflects the JSON Schema for runwatch.yml.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	s := r.Reflect(&Config{})
	s.Title = "runwatch configuration"
	s.Description = "Schema for runwatch.yml."
	s.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(s, "", "  ")
}

// ValidateSchema checks cfg against the reflected schema.
func ValidateSchema(cfg *Config) error {
	validatorOnce.Do(func() {
		var data []byte
		data, validatorErr = GenerateSchema()
		if validatorErr == nil {
			validator, validatorErr = schema.Compile("runwatch.schema.json", data)
		}
	})
	if validatorErr != nil {
		return errors.Wrap(validatorErr, errors.ErrCodeInternal, "failed to build config schema")
	}
	if err := validator.Validate(cfg); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed")
	}
	return nil
}
