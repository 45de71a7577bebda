package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "count": {"type": "integer", "minimum": 1}
  },
  "required": ["name"],
  "additionalProperties": false
}`

func TestValidator(t *testing.T) {
	v, err := Compile("test.json", []byte(testSchema))
	require.NoError(t, err)

	t.Run("valid struct", func(t *testing.T) {
		doc := struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		}{"a", 2}
		assert.NoError(t, v.Validate(doc))
	})

	t.Run("collects every problem", func(t *testing.T) {
		err := v.Validate(map[string]interface{}{"count": 0, "extra": true})
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.GreaterOrEqual(t, len(verr.Problems), 2)
		assert.True(t, strings.HasPrefix(err.Error(), "schema validation failed:"))
	})

	t.Run("json numbers", func(t *testing.T) {
		assert.NoError(t, v.ValidateDocument(map[string]interface{}{"name": "x", "count": json.Number("3")}))
		assert.Error(t, v.ValidateDocument(map[string]interface{}{"name": "x", "count": json.Number("1.5")}))
	})
}

func TestCompileInvalidSchema(t *testing.T) {
	_, err := Compile("bad.json", []byte(`{"type": 12}`))
	assert.Error(t, err)
}
